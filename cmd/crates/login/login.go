// Package logincmder provides the login command for starting a session.
package logincmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
)

const loginLongDesc string = `Start a session as a registered crates user.

Prompts for a username and password and verifies them against users.toml.
The active session is recorded in session.toml in the .crates/ directory
and lasts until 'crates logout'.

Examples:
  crates login
  printf 'ada\npw\n' | crates login`

const loginShortDesc string = "Start a session"

func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: loginShortDesc,
		Long:  loginLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runLogin(cmd, configDir)
		},
	}

	return cmd
}

func runLogin(cmd *cobra.Command, configDir string) error {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	username, err := cliui.ReadLine(in, out, "Username")
	if err != nil {
		return err
	}
	if username == "" {
		return errors.New("username cannot be empty")
	}

	password, err := cliui.ReadSecret(in, out, "Password")
	if err != nil {
		return err
	}

	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading auth store: %w", err)
	}

	if err := mgr.Login(username, password); err != nil {
		return err
	}

	fmt.Printf("\n  %s Logged in as %s.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(username),
	)

	return nil
}
