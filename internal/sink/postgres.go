package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/chargefeed/internal/db"
	"github.com/gyeh/chargefeed/internal/model"
)

const upsertFacilitySQL = `
INSERT INTO facilities (
    facility_id, facility_name, city, state, address,
    source_url, file_version, last_updated, ingested_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (facility_id) DO UPDATE SET
    facility_name = EXCLUDED.facility_name,
    city          = EXCLUDED.city,
    state         = EXCLUDED.state,
    address       = EXCLUDED.address,
    source_url    = EXCLUDED.source_url,
    file_version  = EXCLUDED.file_version,
    last_updated  = EXCLUDED.last_updated,
    ingested_at   = EXCLUDED.ingested_at`

var procedureColumns = []string{
	"facility_id", "codes", "description", "cash_price",
	"gross_charge", "negotiated_min", "negotiated_max",
	"currency", "ingested_at",
}

// Postgres persists records through a pgx pool using the COPY protocol
// for batches and an idempotent upsert for facilities.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn with the bulk-load pool settings.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; the caller keeps ownership
// of the pool's lifetime.
func NewPostgresWithPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// WriteFacility upserts the facility row.
func (p *Postgres) WriteFacility(ctx context.Context, f *model.Facility) error {
	_, err := p.pool.Exec(ctx, upsertFacilitySQL,
		f.FacilityID, f.FacilityName, f.City, f.State, f.Address,
		f.SourceURL, f.FileVersion, f.LastUpdated, f.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert facility %s: %w", f.FacilityID, err)
	}
	return nil
}

// WriteBatch COPY-loads one batch into the procedures table.
func (p *Postgres) WriteBatch(ctx context.Context, recs []*model.PricedProcedure) error {
	if len(recs) == 0 {
		return nil
	}

	n, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"procedures"},
		procedureColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			rec := recs[i]
			codes, err := json.Marshal(rec.Codes)
			if err != nil {
				return nil, fmt.Errorf("marshal codes: %w", err)
			}
			return []any{
				rec.FacilityID, codes, rec.Description, rec.CashPrice,
				rec.GrossCharge, rec.NegotiatedMin, rec.NegotiatedMax,
				rec.Currency, rec.IngestedAt,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy batch: %w", err)
	}
	if n != int64(len(recs)) {
		return fmt.Errorf("copy batch: wrote %d of %d rows", n, len(recs))
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

var _ Writer = (*Postgres)(nil)
