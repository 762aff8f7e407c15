package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/chargefeed/internal/sql"
)

// ApplyMigrations executes every embedded schema file against the pool
// in filename order. The DDL uses IF NOT EXISTS throughout, so a rerun
// is a no-op.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	files, err := fs.Glob(embedsql.Migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, f := range files {
		ddl, err := fs.ReadFile(embedsql.Migrations, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		log.Info().Str("file", path.Base(f)).Msg("migration applied")
	}

	log.Info().Int("migrations", len(files)).Msg("schema up to date")
	return nil
}
