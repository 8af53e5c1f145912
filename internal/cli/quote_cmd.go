package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
	"github.com/spf13/cobra"
)

func parseSerial(kind, raw string) (int64, error) {
	serial, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || serial <= 0 {
		return 0, fmt.Errorf("invalid %s serial %q", kind, raw)
	}
	return serial, nil
}

// loadQuote opens and fetches the quote named by raw.
func loadQuote(ctx context.Context, app *App, raw string) (quotes.Quote, error) {
	serial, err := parseSerial("quote", raw)
	if err != nil {
		return quotes.Quote{}, err
	}
	return app.Session.Load(ctx, serial)
}

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Show and edit quote fields",
	}

	cmd.AddCommand(
		newQuoteShowCmd(app),
		newQuoteSetCmd(app),
		newQuoteBlackoutCmd(app),
	)

	return cmd
}

func newQuoteShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quote>",
		Short: "Fetch a quote and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQuote(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatQuote(q))
			return nil
		},
	}
}

func newQuoteSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <quote> <field> <value>",
		Short: "Change one of Hours, Priority, NotBefore, NiceToHaveBy, MustCompleteBy, BlackoutDate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, ok := quotes.ParseScalarField(args[1])
			if !ok {
				return fmt.Errorf("unknown field %q", args[1])
			}
			if _, err := loadQuote(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			q, err := app.Session.SaveScalar(cmd.Context(), field, args[2])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatQuote(q))
			return nil
		},
	}
}

func newQuoteBlackoutCmd(app *App) *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "blackout <quote> <MM/DD/YYYY>...",
		Short: "Toggle blackout days, or add them with --add",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := make([]caldate.Date, 0, len(args)-1)
			for _, raw := range args[1:] {
				day, err := caldate.Parse(raw)
				if err != nil {
					return err
				}
				days = append(days, day)
			}
			q, err := loadQuote(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if add {
				q, err = app.Session.AddBlackoutDates(cmd.Context(), days...)
				if err != nil {
					return err
				}
			} else {
				for _, day := range days {
					if q, err = app.Session.ToggleBlackout(cmd.Context(), day); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blackout dates: %s\n", orDash(q.Blackout.Serialize()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Add the days instead of toggling them")
	return cmd
}
