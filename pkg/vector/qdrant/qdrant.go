// Package qdrant provides a Qdrant vector driver over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/papercomputeco/crates/pkg/vector"
)

// DefaultCollectionName is the default collection for indexed repositories.
const DefaultCollectionName = "github_repos"

// Driver implements vector.Driver using Qdrant's gRPC API.
type Driver struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC address (e.g., "localhost:6334").
	Target string

	// Collection is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	Collection string

	// Dimensions is the embedding vector size, used when the collection
	// has to be created.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists with
// cosine distance.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("qdrant target is required")
	}
	if c.Collection == "" {
		c.Collection = DefaultCollectionName
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	conn, err := grpc.NewClient(c.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %v", vector.ErrConnection, err)
	}

	d := &Driver{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: c.Collection,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx, pb.NewCollectionsClient(conn), c.Dimensions); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		"target", c.Target,
		"collection", c.Collection,
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context, collections pb.CollectionsClient, dimensions uint) error {
	existsResp, err := collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: d.collection,
	})
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if existsResp.GetResult().GetExists() {
		return nil
	}

	_, err = collections.Create(ctx, &pb.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	d.logger.Debug("created qdrant collection",
		"collection", d.collection,
		"dimensions", dimensions,
	)

	return nil
}

// repoFilter matches points tagged with the given repo.
func repoFilter(repo string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: "repo",
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: repo},
					},
				},
			},
		}},
	}
}

// Upsert stores documents as points keyed by their UUID document IDs,
// replacing any existing point per ID.
func (d *Driver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: doc.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: doc.Embedding},
			}},
			Payload: map[string]*pb.Value{
				"repo":    {Kind: &pb.Value_StringValue{StringValue: doc.Repo}},
				"path":    {Kind: &pb.Value_StringValue{StringValue: doc.Path}},
				"content": {Kind: &pb.Value_StringValue{StringValue: doc.Content}},
			},
		}
	}

	wait := true
	_, err := d.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted documents into qdrant",
		"count", len(docs),
	)

	return nil
}

// Query finds the limit nearest documents to the given embedding. A non-empty
// scope becomes a filter on the repo payload tag. Qdrant scores cosine hits
// by similarity, so results are converted back to distances.
func (d *Driver) Query(ctx context.Context, embedding []float32, limit int, scope string) ([]vector.QueryResult, error) {
	if limit <= 0 {
		limit = 10
	}

	var filter *pb.Filter
	if scope != "" {
		filter = repoFilter(scope)
	}

	resp, err := d.points.Search(ctx, &pb.SearchPoints{
		CollectionName: d.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         filter,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		payload := pt.GetPayload()
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:      pt.GetId().GetUuid(),
				Repo:    payload["repo"].GetStringValue(),
				Path:    payload["path"].GetStringValue(),
				Content: payload["content"].GetStringValue(),
			},
			Distance: 1 - pt.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		"results", len(results),
		"scope", scope,
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
	}

	resp, err := d.points.Get(ctx, &pb.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		payload := pt.GetPayload()
		docs = append(docs, vector.Document{
			ID:        pt.GetId().GetUuid(),
			Repo:      payload["repo"].GetStringValue(),
			Path:      payload["path"].GetStringValue(),
			Content:   payload["content"].GetStringValue(),
			Embedding: pt.GetVectors().GetVector().GetData(),
		})
	}

	return docs, nil
}

// DeleteScope removes every point tagged with the given repo. Deleting a
// repo with no points is a success, which matches the idempotency contract.
func (d *Driver) DeleteScope(ctx context.Context, repo string) error {
	wait := true
	_, err := d.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: d.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: repoFilter(repo),
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("cleared scope from qdrant",
		"repo", repo,
	)

	return nil
}

// CountScope reports how many points carry the given repo tag. An empty repo
// counts the whole collection.
func (d *Driver) CountScope(ctx context.Context, repo string) (int, error) {
	var filter *pb.Filter
	if repo != "" {
		filter = repoFilter(repo)
	}

	exact := true
	resp, err := d.points.Count(ctx, &pb.CountPoints{
		CollectionName: d.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}

	return int(resp.GetResult().GetCount()), nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.conn.Close()
}

var _ vector.Driver = (*Driver)(nil)
