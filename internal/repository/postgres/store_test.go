package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/repository/postgres"
	"github.com/Lixing-Zhang/storefront/internal/repository/storetest"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

// testDatabaseURL returns TEST_DATABASE_URL, loading a local .env first.
// Tests are skipped when it is unset.
func testDatabaseURL(t *testing.T) string {
	t.Helper()
	_ = godotenv.Load("../../../.env")
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

// resetSchema drops every table so the next Open migrates and seeds again.
func resetSchema(t *testing.T, url string) {
	t.Helper()
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		DROP TABLE IF EXISTS orders CASCADE;
		DROP TABLE IF EXISTS products CASCADE;
		DROP TABLE IF EXISTS users CASCADE;
		DROP TABLE IF EXISTS schema_migrations CASCADE;
	`)
	require.NoError(t, err)
}

func TestStoreConformance(t *testing.T) {
	url := testDatabaseURL(t)

	storetest.Run(t, func(t *testing.T) repository.Store {
		resetSchema(t, url)
		store, err := postgres.Open(context.Background(), url, logger.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	url := testDatabaseURL(t)
	resetSchema(t, url)

	fresh, err := postgres.RunMigrations(url)
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = postgres.RunMigrations(url)
	require.NoError(t, err)
	require.False(t, fresh)
}
