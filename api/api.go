package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/crates/api/jobs"
	"github.com/papercomputeco/crates/pkg/eventstream"
	"github.com/papercomputeco/crates/pkg/eventstream/nop"
	"github.com/papercomputeco/crates/pkg/search"
	"github.com/papercomputeco/crates/pkg/vector"
)

// Server is the API server for indexing and querying repositories.
type Server struct {
	config    Config
	engine    *search.Engine
	store     vector.Driver
	pool      *jobs.Pool
	publisher eventstream.Publisher
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The engine and store are injected to allow sharing with other components
// (e.g., the MCP server when both run in the same process). The pool may be
// nil, in which case index endpoints report that indexing is not configured.
func NewServer(
	config Config,
	engine *search.Engine,
	store vector.Driver,
	pool *jobs.Pool,
	publisher eventstream.Publisher,
	logger *slog.Logger,
) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if store == nil {
		return nil, errors.New("vector driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		engine:    engine,
		store:     store,
		pool:      pool,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	app.Get("/healthz", s.handleHealthz)
	app.Post("/v1/search", s.handleSearch)
	app.Post("/v1/index", s.handleIndex)
	app.Get("/v1/jobs/:id", s.handleGetJob)
	app.Delete("/v1/scopes/:owner/:name", s.handleClearScope)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
