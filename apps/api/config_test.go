package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gym")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "gym", cfg.DBSchema)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, time.Hour, cfg.BranchCacheTTL)
	require.Empty(t, cfg.RedisURL)
	require.False(t, cfg.BootstrapSchema)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gym")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_SCHEMA=gym_dev\nPORT=8080\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DB_SCHEMA")
		_ = os.Unsetenv("PORT")
	})

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "gym_dev", cfg.DBSchema)
	require.Equal(t, "8080", cfg.Port)
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gym")
	t.Setenv("JWT_SECRET", "short")

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	_ = os.Unsetenv("DATABASE_URL")

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
