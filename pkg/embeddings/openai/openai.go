// Package openai implements pkg/embedding's Embedder client for OpenAI-compatible embedding APIs
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/papercomputeco/crates/pkg/embeddings"
	"github.com/papercomputeco/crates/pkg/vector"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultBaseURL is the default OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// APIKeyEnv is the environment variable consulted when no key is
	// configured.
	APIKeyEnv = "OPENAI_API_KEY"

	maxRetries = 5
)

// Embedder wraps an OpenAI-compatible embedding API.
type Embedder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// BaseURL is the API URL (e.g., "https://api.openai.com/v1").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use (e.g., "text-embedding-3-small").
	// Defaults to DefaultEmbeddingModel if empty.
	Model string

	// APIKey authenticates requests. Defaults to the OPENAI_API_KEY
	// environment variable if empty.
	APIKey string
}

// embedRequest is the request body for the embeddings endpoint.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the response from the embeddings endpoint.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewEmbedder creates a new embedder using an OpenAI-compatible embedding API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key: set %s or configure one", APIKeyEnv)
	}

	return &Embedder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Embed converts text into a vector embedding. Rate-limited and server
// errors are retried with exponential backoff, honoring Retry-After when
// the server provides one.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{
		Model: e.model,
		Input: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", vector.ErrEmbedding, err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embeddings", bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("%w: creating request: %v", vector.ErrEmbedding, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, fmt.Errorf("%w: sending request: %v", vector.ErrEmbedding, lastErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if attempt < maxRetries {
				time.Sleep(retryAfter(resp, attempt))
				continue
			}
			return nil, fmt.Errorf("%w: embeddings request failed: %v", vector.ErrEmbedding, lastErr)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("%w: embeddings API returned status %d: %s", vector.ErrEmbedding, resp.StatusCode, string(body))
		}

		var embedResp embedResponse
		err = json.NewDecoder(resp.Body).Decode(&embedResp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", vector.ErrEmbedding, err)
		}

		if len(embedResp.Data) == 0 || len(embedResp.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
		}

		return embedResp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("%w: embeddings request failed: %v", vector.ErrEmbedding, lastErr)
}

// retryAfter picks the delay before the next attempt, honoring the server's
// Retry-After header when it carries a second count.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return retryDelay(attempt)
}

// retryDelay is an exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Embedder implements embeddings.Embedder
var _ embeddings.Embedder = (*Embedder)(nil)
