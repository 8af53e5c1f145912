package cli

import (
	"fmt"

	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/spf13/cobra"
)

func newGroupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Browse and attach resource groups",
	}

	cmd.AddCommand(
		newGroupListCmd(app),
		newGroupAddCmd(app),
		newGroupRemoveCmd(app),
	)

	return cmd
}

func newGroupListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <quote>",
		Short: "List the resource groups available to a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			groups, err := app.Session.ResourceGroups(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No resource groups.")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintf(out, "%6d  %s\n", g.Serial, g.Name)
			}
			return nil
		},
	}
}

func newGroupAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <quote> <group>...",
		Short: "Attach one or more resource groups in a single request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			catalogue, err := app.Session.ResourceGroups(cmd.Context())
			if err != nil {
				return err
			}
			var sel quotes.Selection
			for _, raw := range args[1:] {
				serial, err := parseSerial("group", raw)
				if err != nil {
					return err
				}
				g, ok := findGroup(catalogue, serial)
				if !ok {
					return fmt.Errorf("resource group %d is not available", serial)
				}
				if !sel.Contains(serial) {
					sel.Toggle(g)
				}
			}
			q, err := app.Session.SubmitSelection(cmd.Context(), &sel)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatWorkPackages(q))
			return nil
		},
	}
}

func newGroupRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <quote> <group>...",
		Short: "Detach one or more resource groups in a single request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serials := make([]int64, 0, len(args)-1)
			for _, raw := range args[1:] {
				serial, err := parseSerial("group", raw)
				if err != nil {
					return err
				}
				serials = append(serials, serial)
			}
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			q, err := app.Session.MutateResource(cmd.Context(), quotes.Mutation{
				Target:  quotes.TargetResourceGroup,
				Op:      quotes.OpRemove,
				Serials: serials,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatWorkPackages(q))
			return nil
		},
	}
}

func findGroup(groups []quotes.ResourceGroup, serial int64) (quotes.ResourceGroup, bool) {
	for _, g := range groups {
		if g.Serial == serial {
			return g, true
		}
	}
	return quotes.ResourceGroup{}, false
}
