// Package showcmder provides the show command for printing a file from
// the selected repository.
package showcmder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/logger"
)

const showLongDesc string = `Print a file from the selected repository.

The file is fetched from GitHub at the repository's default branch. Markdown
files are rendered for the terminal; pass --raw to print the bytes as-is.

Examples:
  crates show README.md
  crates show docs/architecture.md
  crates show Makefile --raw`

const showShortDesc string = "Print a file from the selected repository"

type showCommander struct {
	raw bool

	githubTarget string

	debug bool
}

func NewShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
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
			return cmder.run(cmd, args[0], configDir)
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the raw file without markdown rendering")
	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)

	return cmd
}

func (c *showCommander) run(cmd *cobra.Command, path, configDir string) error {
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

	token, err := mgr.Token(user)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no GitHub token stored: run 'crates token' first")
	}

	state, err := dotdir.NewManager().LoadSelectionState(configDir)
	if err != nil {
		return fmt.Errorf("loading selection: %w", err)
	}
	if state == nil || state.Repo == "" {
		return errors.New("no repository selected: run 'crates select' first")
	}

	owner, name, found := strings.Cut(state.Repo, "/")
	if !found || owner == "" || name == "" {
		return fmt.Errorf("invalid selected repository %q: expected owner/name", state.Repo)
	}

	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	client := github.NewClient(github.Config{
		Target: c.githubTarget,
		Token:  token,
	}, log)

	content, err := client.GetFileContent(cmd.Context(), owner, name, path, "")
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}

	if !c.raw && isMarkdown(path) {
		rendered, err := cliui.RenderMarkdown(string(content))
		if err != nil {
			// Fall back to the raw bytes when rendering fails.
			fmt.Print(string(content))
			return nil
		}
		fmt.Print(rendered)
		return nil
	}

	fmt.Print(string(content))
	return nil
}

func isMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
