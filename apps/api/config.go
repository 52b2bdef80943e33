package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseURL     string        `env:"DATABASE_URL,required"`
	DBSchema        string        `env:"DB_SCHEMA" envDefault:"gym"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMaxConnIdle   time.Duration `env:"DB_MAX_CONN_IDLE" envDefault:"5m"`
	DBStmtTimeout   time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"30s"`
	BootstrapSchema bool          `env:"BOOTSTRAP_SCHEMA" envDefault:"false"`

	// Empty disables the redis branch cache.
	RedisURL       string        `env:"REDIS_URL"`
	BranchCacheTTL time.Duration `env:"BRANCH_CACHE_TTL" envDefault:"1h"`
	ScopeCacheTTL  time.Duration `env:"SCOPE_CACHE_TTL" envDefault:"1m"`

	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTIssuer   string        `env:"JWT_ISSUER"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWTLeeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	MetricsPrefix string   `env:"METRICS_PREFIX" envDefault:"gym"`
	CORSOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// loadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func loadConfig(files ...string) (config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	if len(cfg.JWTSecret) < 32 {
		return config{}, errors.New("JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}
