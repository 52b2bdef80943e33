package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-gym/database"
)

// Bootstrap creates the application schema (if missing) and applies the
// embedded DDL in a single transaction with search_path set to that schema.
// Files are applied in sqlassets.Files order:
//  1. platform/tenants.sql
//  2. gym/membership.sql
//  3. gym/classes.sql
//  4. gym/billing.sql
//
// Every script is idempotent, so Bootstrap is safe to run on each deploy and in tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}
	if schema == "" {
		return fmt.Errorf("bootstrap: schema is required")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	// Exec without arguments uses the simple protocol, which accepts
	// multi-statement scripts including dollar-quoted function bodies.
	for _, file := range sqlassets.Files() {
		if _, err := tx.Exec(ctx, file.SQL); err != nil {
			return fmt.Errorf("apply %s: %w", file.Name, err)
		}
	}

	return tx.Commit(ctx)
}
