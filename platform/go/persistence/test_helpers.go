package persistence

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// One postgres container serves the whole package; every test bootstraps
// its own schema into it so tests stay independent and can run in parallel.
var (
	containerOnce sync.Once
	containerErr  error
	sharedPool    *pgxpool.Pool
	sharedStop    func()
)

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedStop != nil {
		sharedStop()
	}
	os.Exit(code)
}

func startPostgres() (*pgxpool.Pool, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gym"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres: %w", err)
	}

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(context.Background())
		return nil, nil, fmt.Errorf("connection string: %w", err)
	}

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString, MaxConns: 32})
	if err != nil {
		_ = pgContainer.Terminate(context.Background())
		return nil, nil, err
	}

	stop := func() {
		ClosePool(pool)
		_ = pgContainer.Terminate(context.Background())
	}
	return pool, stop, nil
}

// testEnv is a bootstrapped schema plus the stores under test.
type testEnv struct {
	pool          *pgxpool.Pool
	db            *TenantDB
	tenants       *TenantStore
	branches      *BranchStore
	members       *MemberStore
	subscriptions *SubscriptionStore
	attendance    *AttendanceStore
	classes       *ClassStore
	invoices      *InvoiceStore
	pos           *PosStore
	entities      *EntityStore
	reconciler    *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	containerOnce.Do(func() {
		sharedPool, sharedStop, containerErr = startPostgres()
	})
	require.NoError(t, containerErr)

	ctx := context.Background()
	schema := "gym_" + tenant.ShortID(uuid.New(), 12)
	require.NoError(t, Bootstrap(ctx, sharedPool, schema))
	// a second run must be a no-op
	require.NoError(t, Bootstrap(ctx, sharedPool, schema))

	db := NewTenantDB(TenantDBConfig{Pool: sharedPool, Schema: schema})
	return &testEnv{
		pool:          sharedPool,
		db:            db,
		tenants:       NewTenantStore(db),
		branches:      NewBranchStore(db),
		members:       NewMemberStore(db),
		subscriptions: NewSubscriptionStore(db),
		attendance:    NewAttendanceStore(db),
		classes:       NewClassStore(db),
		invoices:      NewInvoiceStore(db),
		pos:           NewPosStore(db),
		entities:      NewEntityStore(db),
		reconciler:    NewReconciler(db),
	}
}

// seedTenant creates a tenant with one branch.
func (e *testEnv) seedTenant(t *testing.T, slug string) (Tenant, Branch) {
	t.Helper()
	ctx := context.Background()

	tn, err := e.tenants.Create(ctx, CreateTenantParams{Slug: slug, Name: strings.ToUpper(slug)})
	require.NoError(t, err)
	br, err := e.branches.Create(ctx, tn.ID, "Main")
	require.NoError(t, err)
	return tn, br
}

func (e *testEnv) seedMember(t *testing.T, ctx context.Context, name string) Member {
	t.Helper()
	m, err := e.members.Create(ctx, CreateMemberParams{FullName: name})
	require.NoError(t, err)
	return m
}

// exec runs raw SQL in the env schema without a scope, bypassing the stores.
func (e *testEnv) exec(ctx context.Context, sql string, args ...any) error {
	return e.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	})
}

// countRows counts a tenant's rows in table, ignoring scope.
func (e *testEnv) countRows(t *testing.T, table string, tenantID uuid.UUID) int64 {
	t.Helper()
	var n int64
	err := e.db.WithAdmin(context.Background(), func(tx pgx.Tx) error {
		return tx.QueryRow(context.Background(),
			`SELECT count(*) FROM `+pgx.Identifier{table}.Sanitize()+` WHERE tenant_id = $1`, tenantID).Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func mustMoney(t *testing.T, amount int64, currency string) money.Money {
	t.Helper()
	m, err := money.New(amount, currency)
	require.NoError(t, err)
	return m
}
