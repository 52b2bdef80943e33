// Package clienv holds the connection flags shared by gymctl subcommands.
// Flag defaults come from the environment (and a .env file when present).
package clienv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/requesttrace"
)

type defaults struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Schema      string `env:"DB_SCHEMA" envDefault:"gym"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
}

// Defaults reads .env (if any) and the environment.
func Defaults() defaults {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: load .env: %v\n", err)
	}
	d, err := env.ParseAs[defaults]()
	if err != nil {
		return defaults{Schema: "gym", LogLevel: "warn"}
	}
	return d
}

// DB are the database flags of a command.
type DB struct {
	DatabaseURL string
	Schema      string
	LogLevel    string
}

// Bind registers --database-url, --schema and --log-level on cmd.
func (d *DB) Bind(cmd *cobra.Command) {
	def := Defaults()
	cmd.Flags().StringVar(&d.DatabaseURL, "database-url", def.DatabaseURL, "PostgreSQL connection string (env DATABASE_URL)")
	cmd.Flags().StringVar(&d.Schema, "schema", def.Schema, "application schema (env DB_SCHEMA)")
	cmd.Flags().StringVar(&d.LogLevel, "log-level", def.LogLevel, "log level")
}

// SystemContext marks ctx as a system actor for audit stamping.
func SystemContext(ctx context.Context) context.Context {
	return requesttrace.IntoContext(ctx, requesttrace.System("gymctl"))
}

// Conn is an open database connection plus the scoped executor on top of it.
type Conn struct {
	Pool     *pgxpool.Pool
	TenantDB *persistence.TenantDB
	Logger   *zap.Logger
}

// Close releases the pool and flushes the logger.
func (c *Conn) Close() {
	persistence.ClosePool(c.Pool)
	_ = c.Logger.Sync()
}

// Open connects using the bound flags.
func (d *DB) Open(ctx context.Context) (*Conn, error) {
	if d.DatabaseURL == "" {
		return nil, errors.New("--database-url (or DATABASE_URL) is required")
	}
	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "gymctl",
		Level:     d.LogLevel,
		Format:    platformlogging.FormatConsole,
		Output:    os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: d.DatabaseURL, ApplicationName: "gymctl", MaxConns: 4})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	return &Conn{
		Pool:     pool,
		TenantDB: persistence.NewTenantDB(persistence.TenantDBConfig{Pool: pool, Schema: d.Schema}),
		Logger:   logger,
	}, nil
}
