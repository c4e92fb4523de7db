// Package storetest opens throwaway migrated SQLite databases for tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
)

// Open returns an in-memory database private to t with the schema applied.
// It is closed when t finishes.
func Open(t testing.TB) (*sqlx.DB, *repomanager.SQLRepositoryManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	ctx := context.Background()
	db, m, err := repomanager.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}
