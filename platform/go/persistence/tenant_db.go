package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// txBeginner exposes the minimal pgx pool behaviour needed by TenantDB.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TenantDB runs units of work in one transaction with the tenant scope
// published to the session (app.tenant_id / app.branch_id) for the triggers.
type TenantDB struct {
	pool   txBeginner
	schema string
	now    func() time.Time
}

type TenantDBConfig struct {
	Pool   *pgxpool.Pool
	Schema string
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

func NewTenantDB(cfg TenantDBConfig) *TenantDB {
	if cfg.Pool == nil {
		panic("TenantDB requires pool")
	}

	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		panic("TenantDB requires schema")
	}
	return &TenantDB{pool: cfg.Pool, schema: schema, now: cfg.Clock}
}

// Now returns the store clock, truncated to microseconds like timestamptz.
func (db *TenantDB) Now() time.Time {
	if db.now != nil {
		return db.now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

// WithAdmin executes fn without a tenant scope (system access).
func (db *TenantDB) WithAdmin(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.WithScope(ctx, tenant.Scope{}, fn)
}

// WithScope executes fn inside one transaction. search_path and the scope
// settings are transaction-local, so nothing leaks to the next borrower of
// the connection. Any error, including a cancelled ctx, rolls everything back.
func (db *TenantDB) WithScope(ctx context.Context, scope tenant.Scope, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, db.schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	tenantSetting, branchSetting := "", ""
	if id, ok := scope.Tenant(); ok {
		tenantSetting = id.String()
		if bid, ok := scope.Branch(); ok {
			branchSetting = bid.String()
		}
	}
	if _, err := tx.Exec(ctx,
		`SELECT set_config('app.tenant_id', $1, true), set_config('app.branch_id', $2, true)`,
		tenantSetting, branchSetting,
	); err != nil {
		return fmt.Errorf("set tenant scope: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
