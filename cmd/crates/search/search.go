// Package searchcmder provides the search command for semantic search
// over indexed repositories.
package searchcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/api"
	"github.com/papercomputeco/crates/cmd/crates/storepath"
	"github.com/papercomputeco/crates/pkg/cliui"
	"github.com/papercomputeco/crates/pkg/config"
	"github.com/papercomputeco/crates/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/crates/pkg/embeddings/utils"
	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/search"
	"github.com/papercomputeco/crates/pkg/utils"
	vectorutils "github.com/papercomputeco/crates/pkg/vector/utils"
)

const searchLongDesc string = `Search indexed repositories by meaning.

The query is embedded and matched against stored documents by cosine
distance. Results come from the selected repository by default; use --repo
to search a different one or --all to rank across every indexed repository.

By default the query runs against the local vector store. With --remote the
query is sent to a running crates API server instead, so a team can share
one index.

Examples:
  crates search "where is the retry logic"
  crates search "token validation" --repo octocat/hello-world
  crates search "dockerfile base image" --all --top 10
  crates search "worker pool shutdown" --remote --api-target http://crates.internal:8081`

const searchShortDesc string = "Search indexed repositories by meaning"

type searchCommander struct {
	query  string
	topK   int
	repo   string
	all    bool
	remote bool

	apiTarget string

	storeProvider string
	storeTarget   string

	embedProvider string
	embedTarget   string
	embedModel    string
	embedDims     uint

	debug bool
}

// searchFlagKeys are the registry flags this command binds into viper.
var searchFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagSearchTop,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, searchFlagKeys)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.topK = v.GetInt("search.limit")
			cmder.storeProvider = v.GetString("vector_store.provider")
			cmder.storeTarget = v.GetString("vector_store.target")
			cmder.embedProvider = v.GetString("embedding.provider")
			cmder.embedTarget = v.GetString("embedding.target")
			cmder.embedModel = v.GetString("embedding.model")
			cmder.embedDims = v.GetUint("embedding.dimensions")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.repo, "repo", "r", "", "Repository scope (owner/name); defaults to the selection")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Search across every indexed repository")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Query a running crates API server instead of the local store")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddIntFlag(cmd, config.Flags, config.FlagSearchTop, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.storeTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)

	return cmd
}

func (c *searchCommander) run(ctx context.Context, configDir string) error {
	scope, err := c.resolveScope(configDir)
	if err != nil {
		return err
	}

	var results []search.Result
	if c.remote {
		response, err := SearchAPI(ctx, c.apiTarget, c.query, scope, c.topK)
		if err != nil {
			return err
		}
		results = response.Results
	} else {
		results, err = c.searchLocal(ctx, configDir, scope)
		if err != nil {
			return err
		}
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search results for:"),
		cliui.HashStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	if scope == "" {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("(all repositories)"))
	}

	for i, result := range results {
		c.printResult(i+1, result)
	}

	return nil
}

func (c *searchCommander) searchLocal(ctx context.Context, configDir, scope string) ([]search.Result, error) {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	target, err := storepath.StoreTarget(c.storeProvider, c.storeTarget, configDir)
	if err != nil {
		return nil, err
	}

	store, err := vectorutils.NewDriver(ctx, &vectorutils.NewDriverOpts{
		ProviderType: c.storeProvider,
		TargetURL:    target,
		Dimensions:   c.embedDims,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embedProvider,
		TargetURL:    c.embedTarget,
		Model:        c.embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	engine := search.NewEngine(embedder, store, log)
	return engine.Search(ctx, c.query, scope, c.topK)
}

// resolveScope picks the repository scope for the query: an explicit
// --repo wins, --all forces a cross-repository search, and otherwise the
// persisted selection applies when one exists.
func (c *searchCommander) resolveScope(configDir string) (string, error) {
	if c.repo != "" {
		return c.repo, nil
	}
	if c.all {
		return "", nil
	}

	state, err := dotdir.NewManager().LoadSelectionState(configDir)
	if err != nil {
		return "", fmt.Errorf("loading selection: %w", err)
	}
	if state != nil {
		return state.Repo, nil
	}

	return "", nil
}

func (c *searchCommander) printResult(rank int, result search.Result) {
	fmt.Printf("  %s  %s  %s\n",
		cliui.NameStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.KeyStyle.Render(fmt.Sprintf("%.1f%% match", result.Similarity*100)),
		cliui.HashStyle.Render(result.Repo+"/"+result.Path),
	)

	preview := utils.Flatten(utils.Truncate(result.Preview, 77))

	fmt.Printf("  %s\n", cliui.PreviewStyle.Render(preview))
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("distance %.4f", result.Distance)))
}

// SearchAPI sends a query to a running crates API server and returns the
// parsed response.
func SearchAPI(ctx context.Context, apiTarget, query, repo string, limit int) (*api.SearchResponse, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"

	payload, err := json.Marshal(api.SearchRequest{
		Query: query,
		Repo:  repo,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to crates API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var response api.SearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return &response, nil
}
