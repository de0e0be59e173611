// Package api provides the HTTP API server for indexing and querying
// repositories in the vector store.
package api

import "net/http"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// MCP, when set, is mounted at /mcp through the fiber adaptor so
	// agents can reach the search tool over streamable HTTP.
	MCP http.Handler
}
