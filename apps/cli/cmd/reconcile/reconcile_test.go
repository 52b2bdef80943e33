package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFilterForAllTenants(t *testing.T) {
	f, err := filterFor("  ")
	require.NoError(t, err)
	require.True(t, f.Unrestricted())
}

func TestFilterForOneTenant(t *testing.T) {
	id := uuid.New()
	f, err := filterFor(id.String())
	require.NoError(t, err)

	got, ok := f.Tenant()
	require.True(t, ok)
	require.Equal(t, id, got)
	require.True(t, f.Bypass())
}

func TestFilterForRejectsGarbage(t *testing.T) {
	_, err := filterFor("acme")
	require.ErrorContains(t, err, "invalid --tenant-id")
}

func TestCommandRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := Command()
	cmd.SetArgs([]string{"--database-url", ""})
	err := cmd.Execute()
	require.ErrorContains(t, err, "database-url")
}
