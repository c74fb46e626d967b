package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "annotate_test.db"),
	}, nil)
	require.NoError(t, err, "failed to open sqlite test database")
	t.Cleanup(func() { db.Close() })

	return db
}

// setupPostgresDB starts a throwaway postgres container. Docker is required, so the
// tests using it only run with ANNOTATE_PG_TESTS=1.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("ANNOTATE_PG_TESTS") != "1" {
		t.Skip("set ANNOTATE_PG_TESTS=1 to run postgres tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("annotate_test"),
		postgres.WithUsername("annotate_test"),
		postgres.WithPassword("annotate_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := NewDB(Config{
		Type:     "postgres",
		Host:     host,
		Port:     port.Int(),
		User:     "annotate_test",
		Password: "annotate_test_password",
		Name:     "annotate_test",
	}, nil)
	require.NoError(t, err, "failed to connect to postgres container")

	require.NoError(t, db.RunMigrations(filepath.Join("..", "..", "migrations")))

	t.Cleanup(func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return db
}
