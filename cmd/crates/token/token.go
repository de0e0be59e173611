// Package tokencmder provides the token command for storing the GitHub
// token used to list and fetch repositories.
package tokencmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/logger"
)

const tokenLongDesc string = `Store a GitHub token for the logged-in user.

The token is validated against the GitHub API before it is stored in
users.toml. Fine-grained and classic personal access tokens both work; the
token needs read access to the repositories you want to index.

Examples:
  crates token                    Prompt for a token and validate it
  crates token --show             Show the stored token, masked
  crates token --remove           Delete the stored token
  echo $GITHUB_TOKEN | crates token`

const tokenShortDesc string = "Store or inspect the GitHub token"

type tokenCommander struct {
	show   bool
	remove bool

	githubTarget string

	debug bool
}

func NewTokenCmd() *cobra.Command {
	cmder := &tokenCommander{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: tokenShortDesc,
		Long:  tokenLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("github-target") {
				cmder.githubTarget = cfg.GitHub.Target
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd, configDir)
		},
	}

	cmd.Flags().BoolVar(&cmder.show, "show", false, "Show the stored token, masked")
	cmd.Flags().BoolVar(&cmder.remove, "remove", false, "Remove the stored token")
	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)

	return cmd
}

func (c *tokenCommander) run(cmd *cobra.Command, configDir string) error {
	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading auth store: %w", err)
	}

	user, err := mgr.CurrentUser()
	if err != nil {
		return err
	}
	if user == "" {
		return errors.New("not logged in: run 'crates login' first")
	}

	switch {
	case c.show:
		return c.runShow(mgr, user)
	case c.remove:
		return c.runRemove(mgr, user)
	default:
		return c.runStore(cmd, mgr, user)
	}
}

func (c *tokenCommander) runShow(mgr *auth.Manager, user string) error {
	token, err := mgr.Token(user)
	if err != nil {
		return err
	}

	if token == "" {
		fmt.Printf("\n  %s No token stored for %s. Run 'crates token' to add one.\n\n",
			cliui.DimStyle.Render("●"),
			cliui.NameStyle.Render(user),
		)
		return nil
	}

	fmt.Printf("\n  %s  %s\n\n",
		cliui.KeyStyle.Render("Token:"),
		cliui.ValueStyle.Render(maskToken(token)),
	)

	return nil
}

func (c *tokenCommander) runRemove(mgr *auth.Manager, user string) error {
	if err := mgr.SetToken(user, ""); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed token for %s.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(user),
	)

	return nil
}

func (c *tokenCommander) runStore(cmd *cobra.Command, mgr *auth.Manager, user string) error {
	token, err := cliui.ReadSecret(cmd.InOrStdin(), cmd.OutOrStdout(), "GitHub token")
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	client := github.NewClient(github.Config{
		Target: c.githubTarget,
		Token:  token,
	}, log)

	ghUser, err := client.GetUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("validating token: %w", err)
	}

	if err := mgr.SetToken(user, token); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored token for %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(user),
		cliui.DimStyle.Render("(github: "+ghUser.Login+")"),
	)

	return nil
}

// maskToken hides all but the edges of a token so --show output is safe to
// paste into an issue or a terminal recording.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
