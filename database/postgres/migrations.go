package postgres

import (
	"context"
	"fmt"

	"github.com/closureme/closureme"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables closureme.Tables) error {
	if err := createTransfersTable(ctx, pool, tables.Transfers); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Transfers, err)
	}
	return nil
}

// DropTables removes the ledger tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables closureme.Tables) error {
	quotedTable := pgx.Identifier{tables.Transfers}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Transfers, err)
	}
	return nil
}

func createTransfersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreated := pgx.Identifier{fmt.Sprintf("idx_%s_created", tableName)}.Sanitize()
	indexJob := pgx.Identifier{fmt.Sprintf("idx_%s_job", tableName)}.Sanitize()
	indexFailed := pgx.Identifier{fmt.Sprintf("idx_%s_failed", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job TEXT NOT NULL,
			direction TEXT NOT NULL,
			object_key TEXT NOT NULL,
			local_path TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (job, created_at DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC)
		WHERE (status = 'failed');
	`,
		quotedTable,
		indexCreated, quotedTable,
		indexJob, quotedTable,
		indexFailed, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create transfers table: %w", err)
	}
	return nil
}
