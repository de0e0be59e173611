package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/crates/api/jobs"
	"github.com/papercomputeco/crates/pkg/eventstream"
	"github.com/papercomputeco/crates/pkg/search"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchRequest is the body of a POST /v1/search request.
type SearchRequest struct {
	Query string `json:"query"`
	// Repo restricts results to a single owner/name scope when set.
	Repo  string `json:"repo,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse contains the ranked results for a search query.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// IndexRequest is the body of a POST /v1/index request.
type IndexRequest struct {
	Repo string `json:"repo"`
	Ref  string `json:"ref,omitempty"`
}

// IndexResponse acknowledges an accepted index job.
type IndexResponse struct {
	JobID  string      `json:"job_id"`
	Status jobs.Status `json:"status"`
}

// ClearResponse confirms a scope deletion.
type ClearResponse struct {
	Repo    string `json:"repo"`
	Cleared bool   `json:"cleared"`
}

// handleHealthz returns a simple health check response.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(map[string]string{"status": "ok"})
}

// handleSearch runs a semantic search over the indexed documents.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query is required"})
	}

	results, err := s.engine.Search(c.Context(), req.Query, req.Repo, req.Limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(SearchResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

// handleIndex enqueues an asynchronous fetch-and-embed job for a repository.
// Clients poll /v1/jobs/:id for progress. Concurrent jobs for the same repo
// are allowed; document IDs are deterministic so the last write wins.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	if s.pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "indexing is not configured: github token and embedder are required",
		})
	}

	var req IndexRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	owner, name, ok := strings.Cut(req.Repo, "/")
	if !ok || owner == "" || name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "repo must be an owner/name slug"})
	}

	job, ok := s.pool.Enqueue(req.Repo, req.Ref)
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "index queue is full"})
	}

	return c.Status(fiber.StatusAccepted).JSON(IndexResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// handleGetJob returns the current state of an index job.
func (s *Server) handleGetJob(c *fiber.Ctx) error {
	if s.pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "indexing is not configured: github token and embedder are required",
		})
	}

	job, ok := s.pool.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "job not found"})
	}

	return c.JSON(job)
}

// handleClearScope deletes every document belonging to a repository scope.
// Clearing a scope that was never indexed succeeds.
func (s *Server) handleClearScope(c *fiber.Ctx) error {
	repo := c.Params("owner") + "/" + c.Params("name")

	if err := s.store.DeleteScope(c.Context(), repo); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := s.publisher.PublishScopeCleared(c.Context(), eventstream.NewScopeClearedEvent(repo)); err != nil {
		s.logger.Warn("failed to publish scope event",
			"repo", repo,
			"error", err,
		)
	}

	return c.JSON(ClearResponse{
		Repo:    repo,
		Cleared: true,
	})
}
