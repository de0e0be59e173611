// Package github is a minimal GitHub REST client covering the operations
// crates needs: identify the token's user, list accessible repositories,
// and fetch a repository's file tree and contents.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTarget is the public GitHub API endpoint. GitHub Enterprise
	// deployments override it via the github.target config key.
	DefaultTarget = "https://api.github.com"

	// DefaultMaxRetries is how many times a request is retried on
	// server errors or rate limiting.
	DefaultMaxRetries = 3

	// perPage is the page size used for list endpoints.
	perPage = 100
)

// Config holds the settings for a GitHub client.
type Config struct {
	// Target is the API base URL. Defaults to DefaultTarget.
	Target string

	// Token is the bearer token for authentication.
	Token string

	// MaxRetries overrides DefaultMaxRetries when > 0.
	MaxRetries int
}

// Client provides GitHub API operations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	logger     *slog.Logger
}

// NewClient creates a new GitHub API client.
func NewClient(c Config, logger *slog.Logger) *Client {
	target := c.Target
	if target == "" {
		target = DefaultTarget
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(target, "/"),
		token:      c.Token,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// GetUser returns the authenticated user. Used to validate a token
// before storing it.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return &user, nil
}

// ListRepos lists all repositories accessible to the authenticated user,
// following pagination to the end.
func (c *Client) ListRepos(ctx context.Context) ([]*Repository, error) {
	var all []*Repository

	for page := 1; ; page++ {
		path := fmt.Sprintf("/user/repos?per_page=%d&page=%d&affiliation=owner,collaborator,organization_member", perPage, page)

		resp, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}

		var repos []*Repository
		err = json.NewDecoder(resp.Body).Decode(&repos)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode repos: %w", err)
		}

		all = append(all, repos...)

		if len(repos) < perPage {
			break
		}
	}

	return all, nil
}

// GetRepository gets repository information, including its default branch.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	resp, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var repository Repository
	if err := json.NewDecoder(resp.Body).Decode(&repository); err != nil {
		return nil, fmt.Errorf("decode repository: %w", err)
	}

	return &repository, nil
}

// ListFiles returns every file (blob) in the repository tree at ref.
// An empty ref means the repository's default branch.
//
// The fast path is a single recursive tree request. When GitHub truncates
// that response (very large repositories), it falls back to walking the
// contents API directory by directory with an explicit queue.
func (c *Client) ListFiles(ctx context.Context, owner, repo, ref string) ([]*TreeEntry, error) {
	if ref == "" {
		repository, err := c.GetRepository(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		ref = repository.DefaultBranch
	}

	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, ref)
	resp, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	if result.Truncated {
		c.logger.Debug("tree response truncated, walking contents instead", "owner", owner, "repo", repo, "ref", ref)
		return c.walkContents(ctx, owner, repo, ref)
	}

	var files []*TreeEntry
	for _, entry := range result.Tree {
		if entry.Type == "blob" {
			files = append(files, entry)
		}
	}

	return files, nil
}

// walkContents lists every file by traversing the contents API with an
// explicit work queue, so arbitrarily deep repositories never grow the
// call stack.
func (c *Client) walkContents(ctx context.Context, owner, repo, ref string) ([]*TreeEntry, error) {
	var files []*TreeEntry

	queue := []string{""}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		path := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, dir, ref)
		resp, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}

		var entries []*contentsEntry
		err = json.NewDecoder(resp.Body).Decode(&entries)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode contents of %q: %w", dir, err)
		}

		for _, entry := range entries {
			switch entry.Type {
			case "dir":
				queue = append(queue, entry.Path)
			case "file":
				files = append(files, &TreeEntry{
					Path: entry.Path,
					Type: "blob",
					Size: entry.Size,
					SHA:  entry.SHA,
				})
			}
		}
	}

	return files, nil
}

// GetFileContent fetches and decodes one file's content at ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, path, ref)
	resp, err := c.doRequest(ctx, http.MethodGet, apiPath)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var content fileContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decode file content: %w", err)
	}

	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected encoding %q for %s", content.Encoding, path)
	}

	// GitHub inserts newlines into the base64 payload.
	raw := strings.ReplaceAll(content.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode base64 content of %s: %w", path, err)
	}

	return decoded, nil
}

// FetchContents builds the path to content mapping for a repository at ref.
// Files larger than maxFileBytes are skipped without being downloaded, and
// files that fail to fetch are skipped individually. Returns the mapping
// and the number of skipped files.
func (c *Client) FetchContents(ctx context.Context, owner, repo, ref string, maxFileBytes int64) (map[string][]byte, int, error) {
	entries, err := c.ListFiles(ctx, owner, repo, ref)
	if err != nil {
		return nil, 0, err
	}

	files := make(map[string][]byte, len(entries))
	skipped := 0

	for _, entry := range entries {
		if maxFileBytes > 0 && entry.Size > maxFileBytes {
			c.logger.Warn("skipping oversized file", "path", entry.Path, "size", entry.Size)
			skipped++
			continue
		}

		data, err := c.GetFileContent(ctx, owner, repo, entry.Path, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, skipped, ctx.Err()
			}
			c.logger.Warn("skipping unfetchable file", "path", entry.Path, "error", err)
			skipped++
			continue
		}

		files[entry.Path] = data
	}

	return files, skipped, nil
}

// doRequest performs an authenticated request with rate-limit handling and
// retry on server errors.
func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	var resp *http.Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}

		// Rate limited: wait for the reset time when it is near, then retry.
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
			if resetHeader := resp.Header.Get("X-RateLimit-Reset"); resetHeader != "" {
				resetTime, _ := strconv.ParseInt(resetHeader, 10, 64)
				if resetTime > 0 {
					waitDuration := time.Until(time.Unix(resetTime, 0))
					if waitDuration > 0 && waitDuration < 5*time.Minute {
						resp.Body.Close()
						c.logger.Debug("github rate limited, waiting", "wait", waitDuration)
						select {
						case <-ctx.Done():
							return nil, ctx.Err()
						case <-time.After(waitDuration):
							continue
						}
					}
				}
			}
		}

		// Success or non-retryable error
		if resp.StatusCode < 500 {
			break
		}

		// Server error: retry with backoff.
		resp.Body.Close()
		c.logger.Debug("github server error, retrying", "status", resp.StatusCode, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("github API error %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
