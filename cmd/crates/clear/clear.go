// Package clearcmder provides the clear command for removing a
// repository's documents from the vector store.
package clearcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/cmd/crates/storepath"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/crates/pkg/eventstream/utils"
	"github.com/papercomputeco/crates/pkg/logger"
	vectorutils "github.com/papercomputeco/crates/pkg/vector/utils"
)

const clearLongDesc string = `Remove every indexed document for a repository.

Only documents tagged with the given repository are deleted; other
repositories sharing the store are untouched. Clearing a repository that was
never indexed succeeds without doing anything, so the command is safe to
script.

Examples:
  crates clear                       Clear the selected repository
  crates clear octocat/hello-world   Clear a specific repository`

const clearShortDesc string = "Remove a repository's documents from the vector store"

type clearCommander struct {
	storeProvider string
	storeTarget   string

	embedDims uint

	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	debug bool
}

// clearFlagKeys are the registry flags this command binds into viper.
var clearFlagKeys = []string{
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingDims,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear [owner/repo]",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, clearFlagKeys)

			cmder.storeProvider = v.GetString("vector_store.provider")
			cmder.storeTarget = v.GetString("vector_store.target")
			cmder.embedDims = v.GetUint("embedding.dimensions")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = v.GetString("events.brokers")
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), args, configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.storeTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *clearCommander) run(ctx context.Context, args []string, configDir string) error {
	repo, err := resolveRepo(args, configDir)
	if err != nil {
		return err
	}

	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	target, err := storepath.StoreTarget(c.storeProvider, c.storeTarget, configDir)
	if err != nil {
		return err
	}

	store, err := vectorutils.NewDriver(ctx, &vectorutils.NewDriverOpts{
		ProviderType: c.storeProvider,
		TargetURL:    target,
		Dimensions:   c.embedDims,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("connecting to vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteScope(ctx, repo); err != nil {
		return fmt.Errorf("clearing %s: %w", repo, err)
	}

	c.publishCleared(ctx, repo, log)

	fmt.Printf("\n  %s Cleared index for %s.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(repo),
	)

	return nil
}

// publishCleared emits the scope-cleared event. The clear itself already
// happened, so publish failures are logged rather than returned.
func (c *clearCommander) publishCleared(ctx context.Context, repo string, log *slog.Logger) {
	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.eventsProvider,
		Brokers:      c.eventsBrokers,
		Topic:        c.eventsTopic,
		Logger:       log,
	})
	if err != nil {
		log.Warn("creating event publisher", "error", err)
		return
	}
	defer func() { _ = publisher.Close() }()

	if err := publisher.PublishScopeCleared(ctx, eventstream.NewScopeClearedEvent(repo)); err != nil {
		log.Warn("publishing scope-cleared event", "repo", repo, "error", err)
	}
}

// resolveRepo picks the repository to clear: the argument when given,
// otherwise the persisted selection.
func resolveRepo(args []string, configDir string) (string, error) {
	if len(args) == 1 {
		repo := strings.TrimSpace(args[0])
		owner, name, found := strings.Cut(repo, "/")
		if !found || owner == "" || name == "" || strings.Contains(name, "/") {
			return "", fmt.Errorf("invalid repository %q: expected owner/name", repo)
		}
		return repo, nil
	}

	state, err := dotdir.NewManager().LoadSelectionState(configDir)
	if err != nil {
		return "", fmt.Errorf("loading selection: %w", err)
	}
	if state == nil || state.Repo == "" {
		return "", errors.New("no repository selected: run 'crates select' or pass one as an argument")
	}

	return state.Repo, nil
}
