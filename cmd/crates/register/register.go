// Package registercmder provides the register command for creating a local
// crates account.
package registercmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
)

const registerLongDesc string = `Create a local crates account.

Prompts for a username and password. The password is hashed with bcrypt and
stored in users.toml in the .crates/ directory; it never leaves this machine.
Run 'crates login' afterwards to start a session.

Examples:
  crates register
  printf 'ada\npw\npw\n' | crates register`

const registerShortDesc string = "Create a local crates account"

func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: registerShortDesc,
		Long:  registerLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runRegister(cmd, configDir)
		},
	}

	return cmd
}

func runRegister(cmd *cobra.Command, configDir string) error {
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
	if password == "" {
		return errors.New("password cannot be empty")
	}

	confirm, err := cliui.ReadSecret(in, out, "Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading auth store: %w", err)
	}

	if err := mgr.Register(username, password); err != nil {
		return err
	}

	fmt.Printf("\n  %s Registered %s. Run 'crates login' to start a session.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(username),
	)

	return nil
}
