package mcp

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/search"
	"github.com/papercomputeco/crates/pkg/vector"
	"github.com/papercomputeco/crates/pkg/vector/memory"

	testutils "github.com/papercomputeco/crates/pkg/utils/test"
)

var _ = Describe("Search tool", func() {
	var (
		server   *Server
		embedder *testutils.MockEmbedder
		store    *memory.Driver
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		store = memory.NewDriver(logger.Nop())

		embedder.Embeddings["find the greeting"] = []float32{1, 0, 0}

		err := store.Upsert(ctx, []vector.Document{
			{
				ID:        "doc-hello",
				Repo:      "acme/widgets",
				Path:      "hello.go",
				Content:   "package hello",
				Embedding: []float32{1, 0, 0},
			},
			{
				ID:        "doc-other",
				Repo:      "acme/gadgets",
				Path:      "other.go",
				Content:   "package other",
				Embedding: []float32{0, 1, 0},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		engine := search.NewEngine(embedder, store, logger.Nop())
		server = &Server{config: Config{Engine: engine, Logger: logger.Nop()}}
	})

	Describe("handleSearch", func() {
		It("returns ranked results as structured output", func() {
			result, output, err := server.handleSearch(ctx, nil, SearchInput{
				Query: "find the greeting",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Query).To(Equal("find the greeting"))
			Expect(output.Count).To(Equal(2))
			Expect(output.Results[0].Path).To(Equal("hello.go"))
			Expect(output.Results[0].Repo).To(Equal("acme/widgets"))
		})

		It("serializes the output into a text content block", func() {
			result, output, err := server.handleSearch(ctx, nil, SearchInput{
				Query: "find the greeting",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content).To(HaveLen(1))

			text, ok := result.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())

			var decoded SearchOutput
			Expect(json.Unmarshal([]byte(text.Text), &decoded)).To(Succeed())
			Expect(decoded.Count).To(Equal(output.Count))
			Expect(decoded.Query).To(Equal(output.Query))
		})

		It("scopes results to a repository", func() {
			_, output, err := server.handleSearch(ctx, nil, SearchInput{
				Query: "find the greeting",
				Repo:  "acme/gadgets",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Repo).To(Equal("acme/gadgets"))
		})

		It("respects the limit", func() {
			_, output, err := server.handleSearch(ctx, nil, SearchInput{
				Query: "find the greeting",
				Limit: 1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Results).To(HaveLen(1))
			Expect(output.Results[0].Path).To(Equal("hello.go"))
		})

		It("returns a tool error when embedding fails", func() {
			embedder.FailOn = "broken query"

			result, output, err := server.handleSearch(ctx, nil, SearchInput{
				Query: "broken query",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(output.Count).To(BeZero())

			text, ok := result.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())
			Expect(text.Text).To(ContainSubstring("Search failed"))
		})
	})
})
