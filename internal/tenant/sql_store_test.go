package tenant_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/tenant"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(tenant.Schema)
	require.NoError(t, err)
	return conn
}

func TestSQLStoreFiltersReservedTenant(t *testing.T) {
	conn := openTestDB(t)
	store := tenant.NewSQLStore(conn, "sqlite3")
	ctx := context.Background()

	_, err := conn.Exec(`INSERT INTO tenants (id, name) VALUES (?, ?), (?, ?)`,
		tenant.ReservedID, "placeholder", "tenant-a", "Contoso")
	require.NoError(t, err)

	tenants, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.Equal(t, "tenant-a", tenants[0].ID)
}

func TestSQLStoreUpdateStatusPreservesLastPollOnFailure(t *testing.T) {
	conn := openTestDB(t)
	store := tenant.NewSQLStore(conn, "sqlite3")
	ctx := context.Background()

	_, err := conn.Exec(`INSERT INTO tenants (id, name) VALUES (?, ?)`, "tenant-a", "Contoso")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateStatus(ctx, "tenant-a", enum.TenantStatusSuccess, "", &now))

	tenants, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.NotNil(t, tenants[0].LastPoll)
	require.WithinDuration(t, now, *tenants[0].LastPoll, time.Second)

	require.NoError(t, store.UpdateStatus(ctx, "tenant-a", enum.TenantStatusError, "boom", nil))

	tenants, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, enum.TenantStatusError, tenants[0].Status)
	require.NotNil(t, tenants[0].LastPoll, "lastPoll must be preserved on a failed run")
}
