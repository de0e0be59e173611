// Package reposcmder provides the repos command for listing the GitHub
// repositories visible to the stored token.
package reposcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/utils"
)

const reposLongDesc string = `List the GitHub repositories the stored token can see.

Repositories come from the authenticated /user/repos endpoint, so private
repositories the token grants access to are included and marked.

Examples:
  crates repos
  crates repos --github-target https://github.example.com/api/v3`

const reposShortDesc string = "List repositories visible to the stored token"

type reposCommander struct {
	githubTarget string

	debug bool
}

func NewReposCmd() *cobra.Command {
	cmder := &reposCommander{}

	cmd := &cobra.Command{
		Use:   "repos",
		Short: reposShortDesc,
		Long:  reposLongDesc,
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

	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)

	return cmd
}

func (c *reposCommander) run(cmd *cobra.Command, configDir string) error {
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

	nameWidth := 0
	for _, repo := range repos {
		if len(repo.FullName) > nameWidth {
			nameWidth = len(repo.FullName)
		}
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Repositories:"))
	for _, repo := range repos {
		marker := " "
		if repo.Private {
			marker = cliui.WarnStyle.Render("●")
		}

		// Pad before styling so ANSI codes do not break the column alignment.
		fmt.Printf("  %s %s  %s  %s\n",
			marker,
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", nameWidth, repo.FullName)),
			cliui.DimStyle.Render(repo.DefaultBranch),
			utils.Truncate(repo.Description, 60),
		)
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d repositories (● private)", len(repos))))

	return nil
}
