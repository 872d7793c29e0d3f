package federated

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations/sql", "000001_init.up.sql")),
		postgres.WithDatabase("ukhsc_db"),
		postgres.WithUsername("ukhsc"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return pool, cleanup
}

func TestPostgresLinkRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	schoolID, memberID := uuid.New(), uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO schools (id, name, short_name) VALUES ($1, 'Test High School', 'ths')`, schoolID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO members (id, school_id, display_name) VALUES ($1, $2, 'Student')`, memberID, schoolID)
	require.NoError(t, err)

	testLinkRepository(t, NewPostgresLinkRepository(pool), memberID)
}
