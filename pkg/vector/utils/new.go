// Package vectorutils is the vector store utility package
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/crates/pkg/vector"
	"github.com/papercomputeco/crates/pkg/vector/chroma"
	"github.com/papercomputeco/crates/pkg/vector/memory"
	"github.com/papercomputeco/crates/pkg/vector/pgvector"
	"github.com/papercomputeco/crates/pkg/vector/qdrant"
	"github.com/papercomputeco/crates/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	ProviderType string

	// TargetURL is interpreted per provider: a database file path for
	// sqlite, a base URL for chroma, a gRPC address for qdrant, and a
	// connection string for pgvector. The memory provider ignores it.
	TargetURL string

	Dimensions uint
	Logger     *slog.Logger
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "pgvector":
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString: o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "memory":
		return memory.NewDriver(o.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
