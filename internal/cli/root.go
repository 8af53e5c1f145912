package cli

import (
	"context"

	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/spf13/cobra"
)

// Credentials signs the device in and out.
type Credentials interface {
	SignIn(ctx context.Context, code string) error
	SignOut(ctx context.Context) error
}

// App holds the collaborators CLI commands act on.
type App struct {
	Session *quotes.Session
	Auth    Credentials
}

// NewRootCmd creates the top-level "quotectl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Inspect and edit field-service quotes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSignInCmd(app),
		newSignOutCmd(app),
		newQuoteCmd(app),
		newResourceCmd(app),
		newWorkPackageCmd(app),
		newGroupCmd(app),
	)

	return root
}
