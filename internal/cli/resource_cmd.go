package cli

import (
	"fmt"

	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/spf13/cobra"
)

func parseTarget(kind string) (quotes.Target, error) {
	switch kind {
	case "skill":
		return quotes.TargetSkill, nil
	case "equipment":
		return quotes.TargetEquipment, nil
	default:
		return "", fmt.Errorf("invalid kind %q (want skill or equipment)", kind)
	}
}

func newResourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Attach, count and detach skills and equipment",
	}

	cmd.AddCommand(
		newResourceMutationCmd(app, "add", "Attach a skill or piece of equipment", quotes.OpAdd),
		newResourceMutationCmd(app, "set", "Set the count of a skill or piece of equipment", quotes.OpUpdateCount),
		newResourceMutationCmd(app, "adjust", "Change a count by --delta", quotes.OpAdjust),
		newResourceMutationCmd(app, "remove", "Detach a skill or piece of equipment", quotes.OpRemove),
	)

	return cmd
}

func newResourceMutationCmd(app *App, use, short string, op quotes.Op) *cobra.Command {
	var kind, name string
	var count, delta int

	cmd := &cobra.Command{
		Use:   use + " <quote> <item>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(kind)
			if err != nil {
				return err
			}
			item, err := parseSerial(kind, args[1])
			if err != nil {
				return err
			}
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			q, err := app.Session.MutateResource(cmd.Context(), quotes.Mutation{
				Target:  target,
				Op:      op,
				Serials: []int64{item},
				Name:    name,
				Count:   count,
				Delta:   delta,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatResources(q))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "skill", "skill or equipment")
	switch op {
	case quotes.OpAdd:
		cmd.Flags().StringVar(&name, "name", "", "Display name of the item")
		cmd.Flags().IntVar(&count, "count", 1, "Quantity to attach")
	case quotes.OpUpdateCount:
		cmd.Flags().StringVar(&name, "name", "", "Display name when the item is new")
		cmd.Flags().IntVar(&count, "count", 0, "New quantity; 0 detaches")
		_ = cmd.MarkFlagRequired("count")
	case quotes.OpAdjust:
		cmd.Flags().IntVar(&delta, "delta", 0, "Amount to add, negative to subtract")
		_ = cmd.MarkFlagRequired("delta")
	}
	return cmd
}

func newWorkPackageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workpackage",
		Short: "Manage work packages attached directly to a quote",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <quote> <work-package>",
		Short: "Detach a quote work package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := parseSerial("work package", args[1])
			if err != nil {
				return err
			}
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			q, err := app.Session.MutateResource(cmd.Context(), quotes.Mutation{
				Target:  quotes.TargetQuoteWorkPackage,
				Op:      quotes.OpRemove,
				Serials: []int64{serial},
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatWorkPackages(q))
			return nil
		},
	})

	return cmd
}
