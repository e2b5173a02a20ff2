package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var tables []string
	err = db.SelectContext(ctx, &tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"conversations", "device_tokens", "messages", "posts", "refresh_tokens", "saved_posts", "users"}, tables)
}

func TestOpenSQLite_ForeignKeysEnforced(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO saved_posts (user_id, post_id, created_at) VALUES ('nobody', 'nothing', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}
