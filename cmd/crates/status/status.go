// Package statuscmder provides the status command for displaying the current
// session, selection, and vector store state.
package statuscmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/cmd/crates/storepath"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/logger"
	vectorutils "github.com/papercomputeco/crates/pkg/vector/utils"
)

const statusLongDesc string = `Show the current crates session and store state.

Reads the local .crates/ directory (or ~/.crates/) to display the logged-in
user, whether a GitHub token is stored, the selected repository, and the
vector store the index commands will talk to. When a repository is selected
the store is also queried for its document count; an unreachable store is
noted rather than treated as an error.

Examples:
  crates status`

const statusShortDesc string = "Show session, selection, and store state"

type statusCommander struct {
	storeProvider string
	storeTarget   string

	embedDims uint

	apiTarget string

	debug bool
}

// statusFlagKeys are the registry flags this command binds into viper.
var statusFlagKeys = []string{
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingDims,
	config.FlagAPITarget,
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, statusFlagKeys)

			cmder.storeProvider = v.GetString("vector_store.provider")
			cmder.storeTarget = v.GetString("vector_store.target")
			cmder.embedDims = v.GetUint("embedding.dimensions")
			cmder.apiTarget = v.GetString("client.api_target")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.storeTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *statusCommander) run(ctx context.Context, configDir string) error {
	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading auth store: %w", err)
	}

	user, err := mgr.CurrentUser()
	if err != nil {
		return err
	}

	state, err := dotdir.NewManager().LoadSelectionState(configDir)
	if err != nil {
		return fmt.Errorf("loading selection: %w", err)
	}

	target, err := storepath.StoreTarget(c.storeProvider, c.storeTarget, configDir)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("User:      "), c.renderUser(user))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Token:     "), c.renderToken(mgr, user))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Selected:  "), c.renderSelection(state))
	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render("Store:     "),
		cliui.ValueStyle.Render(c.storeProvider),
		cliui.DimStyle.Render(target),
	)

	if state != nil && state.Repo != "" {
		log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Documents: "), c.countDocuments(ctx, state.Repo, target, log))
	}

	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("API target:"), cliui.ValueStyle.Render(c.apiTarget))

	return nil
}

func (c *statusCommander) renderUser(user string) string {
	if user == "" {
		return cliui.DimStyle.Render("not logged in (run 'crates login')")
	}
	return cliui.NameStyle.Render(user)
}

func (c *statusCommander) renderToken(mgr *auth.Manager, user string) string {
	if user == "" {
		return cliui.DimStyle.Render("none")
	}

	token, err := mgr.Token(user)
	if err != nil || token == "" {
		return cliui.DimStyle.Render("none (run 'crates token')")
	}

	return cliui.ValueStyle.Render("stored")
}

func (c *statusCommander) renderSelection(state *dotdir.SelectionState) string {
	if state == nil || state.Repo == "" {
		return cliui.DimStyle.Render("none (run 'crates select')")
	}

	return fmt.Sprintf("%s %s",
		cliui.NameStyle.Render(state.Repo),
		cliui.DimStyle.Render(state.SelectedAt.Format("(2006-01-02 15:04 MST)")),
	)
}

// countDocuments reports how many documents the store holds for repo. Status
// never fails because a backend is down, so errors render as a note instead
// of aborting.
func (c *statusCommander) countDocuments(ctx context.Context, repo, target string, log *slog.Logger) string {
	// Opening a sqlite store creates the database file, so stat first to
	// keep status read-only.
	if c.storeProvider == "sqlite" {
		if _, err := os.Stat(target); err != nil {
			return cliui.ValueStyle.Render("0")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	store, err := vectorutils.NewDriver(ctx, &vectorutils.NewDriverOpts{
		ProviderType: c.storeProvider,
		TargetURL:    target,
		Dimensions:   c.embedDims,
		Logger:       log,
	})
	if err != nil {
		return cliui.DimStyle.Render("(store unreachable)")
	}
	defer func() { _ = store.Close() }()

	count, err := store.CountScope(ctx, repo)
	if err != nil {
		return cliui.DimStyle.Render("(store unreachable)")
	}

	return cliui.NameStyle.Render(strconv.Itoa(count))
}
