package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/store"
	"sla-service/internal/store/storetest"
)

// Integration tests run only when TEST_DB_DSN points at a disposable database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	d, err := New(ctx, dsn)
	require.NoError(t, err)

	_, err = d.Pool.Exec(ctx, `TRUNCATE sla_escalations, sla_statistics, sla_records`)
	require.NoError(t, err)

	t.Cleanup(func() { d.Close() })
	return d
}

func TestDB_Store(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return setupTestDB(t)
	})
}

func TestDB_TryLock(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	release, ok, err := d.TryLock(ctx, "sla-sweeper")
	require.NoError(t, err)
	require.True(t, ok)

	// A second session cannot take the same lock
	_, ok2, err := d.TryLock(ctx, "sla-sweeper")
	require.NoError(t, err)
	assert.False(t, ok2)

	release()

	release2, ok3, err := d.TryLock(ctx, "sla-sweeper")
	require.NoError(t, err)
	assert.True(t, ok3)
	release2()
}
