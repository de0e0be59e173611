// Package selectcmder provides the select command for choosing which
// repository subsequent index runs operate on.
package selectcmder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/logger"
)

const selectLongDesc string = `Select the repository that 'crates index' and 'crates search' default to.

With an owner/name argument the selection is saved directly. Without an
argument an interactive picker lists the repositories visible to the stored
GitHub token; type to filter, arrow keys to move, enter to select.

The selection is persisted to .crates/selection.json.

Examples:
  crates select octocat/hello-world
  crates select`

const selectShortDesc string = "Select a repository for indexing and search"

type selectCommander struct {
	githubTarget string

	debug bool
}

func NewSelectCmd() *cobra.Command {
	cmder := &selectCommander{}

	cmd := &cobra.Command{
		Use:   "select [owner/repo]",
		Short: selectShortDesc,
		Long:  selectLongDesc,
		Args:  cobra.MaximumNArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd, args, configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)

	return cmd
}

func (c *selectCommander) run(cmd *cobra.Command, args []string, configDir string) error {
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

	if len(args) == 1 {
		repo := strings.TrimSpace(args[0])
		if err := validateSlug(repo); err != nil {
			return err
		}
		return saveSelection(user, repo, configDir)
	}

	token, err := mgr.Token(user)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no GitHub token stored: run 'crates token' first")
	}

	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	client := github.NewClient(github.Config{
		Target: c.githubTarget,
		Token:  token,
	}, log)

	repos, err := client.ListRepos(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	if len(repos) == 0 {
		fmt.Printf("\n  %s No repositories visible to this token.\n\n",
			cliui.DimStyle.Render("●"),
		)
		return nil
	}

	choice, err := runPicker(cmd.Context(), repos)
	if err != nil {
		return fmt.Errorf("running picker: %w", err)
	}

	if choice == "" {
		fmt.Printf("\n  %s No repository selected.\n\n",
			cliui.DimStyle.Render("●"),
		)
		return nil
	}

	return saveSelection(user, choice, configDir)
}

// validateSlug checks that a repository argument looks like "owner/name".
func validateSlug(repo string) error {
	owner, name, found := strings.Cut(repo, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}
	return nil
}

func saveSelection(user, repo, configDir string) error {
	state := &dotdir.SelectionState{
		Username:   user,
		Repo:       repo,
		SelectedAt: time.Now().UTC(),
	}

	if err := dotdir.NewManager().SaveSelection(state, configDir); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}

	fmt.Printf("\n  %s Selected %s for indexing.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(repo),
	)

	return nil
}
