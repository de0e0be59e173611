// Package indexcmder provides the index command that embeds repository
// files and upserts them into the vector store.
package indexcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/cmd/crates/storepath"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/crates/pkg/embeddings/utils"
	eventstreamutils "github.com/papercomputeco/crates/pkg/eventstream/utils"
	"github.com/papercomputeco/crates/pkg/git"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/indexer"
	"github.com/papercomputeco/crates/pkg/localsrc"
	"github.com/papercomputeco/crates/pkg/logger"
	vectorutils "github.com/papercomputeco/crates/pkg/vector/utils"
)

const indexLongDesc string = `Index a repository into the vector store.

Files are fetched from GitHub (or read from a local directory with --local),
embedded in batches, and upserted into the configured vector store. Re-running
the command replaces documents in place, so an index run is always safe to
repeat after new commits.

Oversized and unreadable files are skipped and counted; a skip never fails
the run.

Examples:
  crates index                              Index the selected repository
  crates index --repo octocat/hello-world   Index a specific repository
  crates index --ref v2.1.0                 Index a tag instead of the default branch
  crates index --local . --repo my-project  Index the working tree
  crates index --batch-size 128             Larger embedding batches`

const indexShortDesc string = "Index a repository into the vector store"

type indexCommander struct {
	repo  string
	ref   string
	local string

	githubTarget string

	storeProvider string
	storeTarget   string

	embedProvider string
	embedTarget   string
	embedModel    string
	embedDims     uint

	batchSize    int
	maxFileBytes int64

	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	debug bool
}

// indexFlagKeys are the registry flags this command binds into viper.
var indexFlagKeys = []string{
	config.FlagGitHubTarget,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagIndexBatchSize,
	config.FlagIndexMaxBytes,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, indexFlagKeys)

			cmder.githubTarget = v.GetString("github.target")
			cmder.storeProvider = v.GetString("vector_store.provider")
			cmder.storeTarget = v.GetString("vector_store.target")
			cmder.embedProvider = v.GetString("embedding.provider")
			cmder.embedTarget = v.GetString("embedding.target")
			cmder.embedModel = v.GetString("embedding.model")
			cmder.embedDims = v.GetUint("embedding.dimensions")
			cmder.batchSize = v.GetInt("index.batch_size")
			cmder.maxFileBytes = v.GetInt64("index.max_file_bytes")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = v.GetString("events.brokers")
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.repo, "repo", "r", "", "Repository to index (owner/name); defaults to the selection")
	cmd.Flags().StringVar(&cmder.ref, "ref", "", "Git ref to index (branch, tag, or commit SHA)")
	cmd.Flags().StringVar(&cmder.local, "local", "", "Index a local directory instead of GitHub")

	config.AddStringFlag(cmd, config.Flags, config.FlagGitHubTarget, &cmder.githubTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.storeTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddIntFlag(cmd, config.Flags, config.FlagIndexBatchSize, &cmder.batchSize)
	config.AddInt64Flag(cmd, config.Flags, config.FlagIndexMaxBytes, &cmder.maxFileBytes)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *indexCommander) run(ctx context.Context, configDir string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	repoName, files, fetchSkipped, err := c.collect(ctx, configDir, log)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Printf("\n  %s Nothing to index in %s.\n\n",
			cliui.DimStyle.Render("●"),
			cliui.NameStyle.Render(repoName),
		)
		return nil
	}

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

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embedProvider,
		TargetURL:    c.embedTarget,
		Model:        c.embedModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.eventsProvider,
		Brokers:      c.eventsBrokers,
		Topic:        c.eventsTopic,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer func() { _ = publisher.Close() }()

	session := indexer.NewSession(indexer.Options{
		Embedder:     embedder,
		Store:        store,
		Publisher:    publisher,
		BatchSize:    c.batchSize,
		MaxFileBytes: c.maxFileBytes,
		Logger:       log,
	})

	var report *indexer.Report
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Indexing %d files into %s", len(files), c.storeProvider), func() error {
		var runErr error
		report, runErr = session.Run(ctx, repoName, files)
		return runErr
	}); err != nil {
		return err
	}

	// Fold fetch-side skips into the report so the summary counts every
	// file the run decided not to index.
	report.Skipped += fetchSkipped

	fmt.Printf("\n  %s %s\n", cliui.SuccessMark, report.Summary())
	if report.Skipped > 0 {
		fmt.Printf("  %s %d files were skipped; re-run with --debug to see which\n",
			cliui.WarnStyle.Render("!"),
			report.Skipped,
		)
	}
	fmt.Println()

	return nil
}

// collect gathers the files to index, either from a local directory or
// from the GitHub API. It returns the repo name used as the index scope,
// the file contents by path, and how many files the fetch skipped.
func (c *indexCommander) collect(ctx context.Context, configDir string, log *slog.Logger) (string, map[string][]byte, int, error) {
	if c.local != "" {
		return c.collectLocal(ctx, log)
	}
	return c.collectGitHub(ctx, configDir, log)
}

func (c *indexCommander) collectLocal(ctx context.Context, log *slog.Logger) (string, map[string][]byte, int, error) {
	repoName := c.repo
	if repoName == "" {
		repoName = git.RepoName(c.local)
	}

	var (
		files   map[string][]byte
		skipped int
	)
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Collecting files from %s", c.local), func() error {
		var err error
		files, skipped, err = localsrc.Collect(ctx, c.local, c.maxFileBytes, log)
		return err
	}); err != nil {
		return "", nil, 0, err
	}

	return repoName, files, skipped, nil
}

func (c *indexCommander) collectGitHub(ctx context.Context, configDir string, log *slog.Logger) (string, map[string][]byte, int, error) {
	repoName := c.repo
	if repoName == "" {
		state, err := dotdir.NewManager().LoadSelectionState(configDir)
		if err != nil {
			return "", nil, 0, fmt.Errorf("loading selection: %w", err)
		}
		if state != nil {
			repoName = state.Repo
		}
	}
	if repoName == "" {
		return "", nil, 0, errors.New("no repository selected: run 'crates select' or pass --repo")
	}

	owner, name, found := strings.Cut(repoName, "/")
	if !found || owner == "" || name == "" {
		return "", nil, 0, fmt.Errorf("invalid repository %q: expected owner/name", repoName)
	}

	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return "", nil, 0, fmt.Errorf("loading auth store: %w", err)
	}

	user, err := mgr.CurrentUser()
	if err != nil {
		return "", nil, 0, err
	}
	if user == "" {
		return "", nil, 0, errors.New("not logged in: run 'crates login' first")
	}

	token, err := mgr.Token(user)
	if err != nil {
		return "", nil, 0, err
	}
	if token == "" {
		return "", nil, 0, errors.New("no GitHub token stored: run 'crates token' first")
	}

	client := github.NewClient(github.Config{
		Target: c.githubTarget,
		Token:  token,
	}, log)

	var (
		files   map[string][]byte
		skipped int
	)
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Fetching %s from GitHub", repoName), func() error {
		var err error
		files, skipped, err = client.FetchContents(ctx, owner, name, c.ref, c.maxFileBytes)
		return err
	}); err != nil {
		return "", nil, 0, err
	}

	return repoName, files, skipped, nil
}
