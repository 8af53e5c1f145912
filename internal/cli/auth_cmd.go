package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSignInCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signin <authorization-code>",
		Short: "Store the authorization code for this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if code == "" {
				return fmt.Errorf("authorization code is required")
			}
			if err := app.Auth.SignIn(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		},
	}
}

func newSignOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored authorization code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
