// Package servecmder provides the serve command for running the crates API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/api"
	"github.com/papercomputeco/crates/api/jobs"
	"github.com/papercomputeco/crates/api/mcp"
	"github.com/papercomputeco/crates/cmd/crates/storepath"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/crates/pkg/embeddings/utils"
	"github.com/papercomputeco/crates/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/crates/pkg/eventstream/utils"
	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/indexer"
	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/search"
	"github.com/papercomputeco/crates/pkg/vector"
	vectorutils "github.com/papercomputeco/crates/pkg/vector/utils"
)

const serveLongDesc string = `Run the crates API server.

Exposes search and index endpoints over HTTP, plus an MCP endpoint at /mcp
for agents. Index jobs run asynchronously on a worker pool; when no GitHub
token is stored the index endpoint is disabled and only search is served.

Endpoints:
  GET    /healthz                    Liveness probe
  POST   /v1/search                  Semantic search
  POST   /v1/index                   Queue an index job
  GET    /v1/jobs/{id}               Poll an index job
  DELETE /v1/scopes/{owner}/{name}   Clear a repository's documents
  *      /mcp                        MCP streamable HTTP endpoint

Examples:
  crates serve
  crates serve --listen :9090
  crates serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the crates API server"

type serveCommander struct {
	listen  string
	logFile string

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

// serveFlagKeys are the registry flags this command binds into viper.
var serveFlagKeys = []string{
	config.FlagAPIListen,
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

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

			cmder.listen = v.GetString("api.listen")
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

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Append JSON logs to this file and log readably to stdout")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
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

func (c *serveCommander) run(ctx context.Context, configDir string) error {
	log, closeLogs, err := c.buildLogger()
	if err != nil {
		return err
	}
	defer closeLogs()

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

	engine := search.NewEngine(embedder, store, log)

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

	pool, err := c.buildPool(configDir, embedder, store, publisher, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Engine: engine,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.listen,
		MCP:        mcpServer.Handler(),
	}, engine, store, pool, publisher, log)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	log.Info("starting crates API server",
		"listen", c.listen,
		"store", c.storeProvider,
		"embedder", c.embedProvider,
		"indexing", pool != nil,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		if err := apiServer.Shutdown(); err != nil {
			log.Warn("shutting down API server", "error", err)
		}
		return nil
	}
}

// buildLogger returns the server logger. Records go to stdout as JSON by
// default. With --log-file the JSON stream goes to the file and stdout gets
// the readable pretty handler instead, so an operator at the terminal and a
// collector tailing the file each see their own format.
func (c *serveCommander) buildLogger() (*slog.Logger, func(), error) {
	if c.logFile == "" {
		return logger.New(logger.WithDebug(c.debug), logger.WithJSON(true)), func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	log := logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f)),
	)

	return log, func() { _ = f.Close() }, nil
}

// buildPool wires the async index pipeline. Without a stored GitHub token
// there is nothing to fetch with, so the pool is nil and the API serves
// search only.
func (c *serveCommander) buildPool(
	configDir string,
	embedder embeddings.Embedder,
	store vector.Driver,
	publisher eventstream.Publisher,
	log *slog.Logger,
) (*jobs.Pool, error) {
	mgr, err := auth.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading auth store: %w", err)
	}

	user, err := mgr.CurrentUser()
	if err != nil {
		return nil, err
	}

	var token string
	if user != "" {
		token, err = mgr.Token(user)
		if err != nil {
			return nil, err
		}
	}

	if token == "" {
		log.Warn("no github token stored; the index endpoint will be disabled")
		return nil, nil
	}

	client := github.NewClient(github.Config{
		Target: c.githubTarget,
		Token:  token,
	}, log)

	session := indexer.NewSession(indexer.Options{
		Embedder:     embedder,
		Store:        store,
		Publisher:    publisher,
		BatchSize:    c.batchSize,
		MaxFileBytes: c.maxFileBytes,
		Logger:       log,
	})

	return jobs.NewPool(&jobs.Config{
		Fetcher:      client,
		Session:      session,
		MaxFileBytes: c.maxFileBytes,
		Logger:       log,
	})
}
