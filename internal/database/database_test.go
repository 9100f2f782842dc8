package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_foreign_keys=1", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:a.db?cache=shared&_pragma=foreign_keys(1)&_foreign_keys=1", SQLiteDSN("file:a.db?cache=shared"))
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	bunDB, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer bunDB.Close()

	// Let the pool open fresh connections besides the first one.
	bunDB.DB.SetMaxOpenConns(3)
	for i := 0; i < 3; i++ {
		conn, err := bunDB.DB.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var enabled int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled, "connection %d", i)
	}
}
