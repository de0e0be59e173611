// Package logoutcmder provides the logout command for ending the session.
package logoutcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
)

const logoutLongDesc string = `End the active crates session.

Clears session.toml in the .crates/ directory. Logging out when nobody is
logged in is a no-op.

Examples:
  crates logout`

const logoutShortDesc string = "End the session"

func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: logoutShortDesc,
		Long:  logoutLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runLogout(configDir)
		},
	}

	return cmd
}

func runLogout(configDir string) error {
	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading auth store: %w", err)
	}

	user, err := mgr.CurrentUser()
	if err != nil {
		return err
	}

	if user == "" {
		fmt.Printf("\n  %s Nobody is logged in.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	if err := mgr.Logout(); err != nil {
		return err
	}

	fmt.Printf("\n  %s Logged out %s.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(user),
	)

	return nil
}
