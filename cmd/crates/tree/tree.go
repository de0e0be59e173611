// Package treecmder provides the tree command for listing the files of
// the selected repository.
package treecmder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/logger"
)

const treeLongDesc string = `List every file in the selected repository.

Paths come from the repository tree at the default branch, sorted and
printed one per line. Useful for checking what an index run will see.

Examples:
  crates tree
  crates tree --ref v2.1.0`

const treeShortDesc string = "List the files of the selected repository"

type treeCommander struct {
	ref string

	githubTarget string

	debug bool
}

func NewTreeCmd() *cobra.Command {
	cmder := &treeCommander{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: treeShortDesc,
		Long:  treeLongDesc,
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

	cmd.Flags().StringVar(&cmder.ref, "ref", "", "Git ref to list (branch, tag, or commit SHA)")
	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)

	return cmd
}

func (c *treeCommander) run(cmd *cobra.Command, configDir string) error {
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

	entries, err := client.ListFiles(cmd.Context(), owner, name, c.ref)
	if err != nil {
		return fmt.Errorf("listing files: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render(state.Repo))
	for _, entry := range entries {
		fmt.Printf("  %s  %s\n",
			entry.Path,
			cliui.DimStyle.Render(formatSize(entry.Size)),
		)
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d files", len(entries))))

	return nil
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
