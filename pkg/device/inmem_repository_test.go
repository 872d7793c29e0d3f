package device

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemDeviceRepository_AppendActivityUnknownDevice(t *testing.T) {
	repo := NewInMemDeviceRepository()

	_, err := repo.AppendActivity(context.Background(), uuid.New(), "1.1.1.1", true)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestInMemDeviceRepository_ActivitiesAreCopied(t *testing.T) {
	repo := NewInMemDeviceRepository()
	ctx := context.Background()

	device, err := repo.CreateDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	_, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	activities[0].Success = false

	_, again, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	assert.True(t, again[0].Success)
}

func TestInMemDeviceRepository_FindDevicesByUser(t *testing.T) {
	repo := NewInMemDeviceRepository()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	first, err := repo.CreateDevice(ctx, alice, phoneClient)
	require.NoError(t, err)
	_, err = repo.CreateDevice(ctx, alice, phoneClient)
	require.NoError(t, err)
	_, err = repo.CreateDevice(ctx, bob, phoneClient)
	require.NoError(t, err)

	devices, err := repo.FindDevicesByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	require.NoError(t, repo.RevokeDevice(ctx, alice, first.ID))
	require.NoError(t, repo.RevokeDevice(ctx, alice, first.ID), "revoking twice is a no-op")

	devices, err = repo.FindDevicesByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.NotEqual(t, first.ID, devices[0].ID)

	revoked, _, err := repo.GetDeviceWithActivities(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, revoked.Revoked())
}

func TestInMemDeviceRepository_ConcurrentAppends(t *testing.T) {
	repo := NewInMemDeviceRepository()
	ctx := context.Background()

	device, err := repo.CreateDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppendActivity(ctx, device.ID, "1.2.3.4", true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	assert.Len(t, activities, 51)
}

func TestNewDeviceRepository(t *testing.T) {
	repo, err := NewDeviceRepository("inmem", RepositoryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &InMemDeviceRepository{}, repo)

	_, err = NewDeviceRepository("postgres", RepositoryConfig{})
	assert.Error(t, err)

	_, err = NewDeviceRepository("file", RepositoryConfig{})
	assert.Error(t, err)
}
