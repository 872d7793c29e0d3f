package school

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
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

func TestPostgresSchoolRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := NewPostgresSchoolRepository(pool)
	ctx := context.Background()

	created, err := repo.CreateSchool(ctx, SchoolParams{Name: "Kaohsiung Senior High", ShortName: "kshs", Domain: "kshs.kh.edu.tw"})
	require.NoError(t, err)

	_, err = repo.CreateSchool(ctx, SchoolParams{Name: "Again", ShortName: "kshs"})
	assert.ErrorIs(t, err, ErrShortNameTaken)

	got, err := repo.GetSchool(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ShortName, got.ShortName)

	_, err = repo.GetSchool(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSchoolNotFound)

	updated, err := repo.UpdateSchool(ctx, created.ID, SchoolParams{Name: "KSHS", ShortName: "kshs", Domain: ""})
	require.NoError(t, err)
	assert.Equal(t, "KSHS", updated.Name)

	_, err = repo.UpdateSchool(ctx, uuid.New(), SchoolParams{Name: "x", ShortName: "x"})
	assert.ErrorIs(t, err, ErrSchoolNotFound)

	schools, err := repo.ListSchools(ctx)
	require.NoError(t, err)
	assert.Len(t, schools, 1)

	_, err = pool.Exec(ctx, `INSERT INTO members (id, school_id, display_name) VALUES ($1, $2, 'Student')`, uuid.New(), created.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.DeleteSchool(ctx, created.ID), ErrSchoolInUse)

	empty, err := repo.CreateSchool(ctx, SchoolParams{Name: "Empty", ShortName: "empty"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteSchool(ctx, empty.ID))
	assert.ErrorIs(t, repo.DeleteSchool(ctx, empty.ID), ErrSchoolNotFound)
}
