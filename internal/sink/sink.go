// Package sink abstracts where normalized records land. The pipeline
// only ever calls WriteFacility once and WriteBatch per accumulated
// batch; each backend is an independent implementation selected at
// construction time.
package sink

import (
	"context"
	"fmt"

	"github.com/gyeh/chargefeed/internal/model"
)

// Writer is the capability boundary between the pipeline and its output
// backend. Implementations must tolerate concurrent calls from different
// file tasks; calls for the same file arrive sequentially. A batch either
// succeeds whole or returns an error; the pipeline does not retry.
type Writer interface {
	// WriteFacility upserts one facility record. Idempotent.
	WriteFacility(ctx context.Context, f *model.Facility) error
	// WriteBatch persists one batch of deduplicated records.
	WriteBatch(ctx context.Context, recs []*model.PricedProcedure) error
	// Close flushes and releases backend resources.
	Close() error
}

// Kind selects an output backend.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindJSON     Kind = "json"
	KindCSV      Kind = "csv"
	KindParquet  Kind = "parquet"
)

// New constructs the backend named by kind. target is the Postgres DSN
// for KindPostgres and the output directory for the file backends.
func New(ctx context.Context, kind Kind, target string) (Writer, error) {
	switch kind {
	case KindPostgres:
		return NewPostgres(ctx, target)
	case KindJSON:
		return NewJSONFile(target)
	case KindCSV:
		return NewCSVFile(target)
	case KindParquet:
		return NewParquet(target)
	default:
		return nil, fmt.Errorf("unknown output backend %q", kind)
	}
}
