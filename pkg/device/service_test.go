package device

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository wraps a repository and records calls.
type countingRepository struct {
	DeviceRepository
	appends   int
	getErr    error
	appendErr error
}

func (r *countingRepository) GetDeviceWithActivities(ctx context.Context, id uuid.UUID) (Device, []LoginActivity, error) {
	if r.getErr != nil {
		return Device{}, nil, r.getErr
	}
	return r.DeviceRepository.GetDeviceWithActivities(ctx, id)
}

func (r *countingRepository) AppendActivity(ctx context.Context, id uuid.UUID, ip string, success bool) (LoginActivity, error) {
	r.appends++
	if r.appendErr != nil {
		return LoginActivity{}, r.appendErr
	}
	return r.DeviceRepository.AppendActivity(ctx, id, ip, success)
}

func setupDeviceService(t *testing.T) (*DeviceService, *countingRepository) {
	repo := &countingRepository{DeviceRepository: NewInMemDeviceRepository()}
	return NewDeviceService(repo), repo
}

var phoneClient = ClientInfo{Fingerprint: iPhone, IP: "1.2.3.4"}

func TestDeviceService_RegisterDevice(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()
	userID := uuid.New()

	device, err := service.RegisterDevice(ctx, userID, phoneClient)
	require.NoError(t, err)
	assert.Equal(t, userID, device.UserID)
	assert.Equal(t, "iPhone 14", device.Name)
	assert.Equal(t, DeviceClassMobile, device.Class)
	assert.Equal(t, OSiOS, device.OS)
	assert.False(t, device.CreatedAt.IsZero())

	stored, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, device.ID, stored.ID)
	require.Len(t, activities, 1)
	assert.True(t, activities[0].Success)
	require.NotNil(t, activities[0].IPAddress)
	assert.Equal(t, "1.2.3.4", *activities[0].IPAddress)

	devices, err := service.ListDevices(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDeviceService_RegisterDeviceWithoutIP(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), ClientInfo{Fingerprint: iPhone})
	require.NoError(t, err)

	_, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Nil(t, activities[0].IPAddress)
}

func TestDeviceService_ValidateUnknownDevice(t *testing.T) {
	scored := false
	repo := &countingRepository{DeviceRepository: NewInMemDeviceRepository()}
	service := NewDeviceService(repo, WithScorer(func(Fingerprint, string, Device, []LoginActivity) float64 {
		scored = true
		return 1
	}))

	result, err := service.ValidateDevice(context.Background(), uuid.New(), phoneClient)
	require.NoError(t, err)
	assert.Equal(t, UnknownDevice, result)
	assert.False(t, scored, "scorer must not run for unknown devices")
	assert.Equal(t, 0, repo.appends)
}

func TestDeviceService_ValidateRecordsEveryOutcome(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	result, err := service.ValidateDevice(ctx, device.ID, phoneClient)
	require.NoError(t, err)
	assert.Equal(t, Trusted, result)

	stranger := ClientInfo{
		Fingerprint: Fingerprint{Name: "Unknown Browser", Class: DeviceClassBrowser, OS: OSUnknown},
		IP:          "9.9.9.9",
	}
	result, err = service.ValidateDevice(ctx, device.ID, stranger)
	require.NoError(t, err)
	assert.Equal(t, Untrusted, result)

	assert.Equal(t, 2, repo.appends)

	_, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.True(t, activities[1].Success)
	assert.Equal(t, "1.2.3.4", *activities[1].IPAddress)
	assert.False(t, activities[2].Success)
	assert.Equal(t, "9.9.9.9", *activities[2].IPAddress)
}

func TestDeviceService_RejectedIPCountsAsHistory(t *testing.T) {
	service, _ := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	laptop := ClientInfo{
		Fingerprint: Fingerprint{Name: "Firefox", Class: DeviceClassBrowser, OS: OSUnknown},
		IP:          "9.9.9.9",
	}
	result, err := service.ValidateDevice(ctx, device.ID, laptop)
	require.NoError(t, err)
	assert.Equal(t, Untrusted, result)

	// the rejected attempt's IP is now part of the history
	result, err = service.ValidateDevice(ctx, device.ID, laptop)
	require.NoError(t, err)
	assert.Equal(t, Trusted, result)
}

func TestDeviceService_ValidateRevokedDevice(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()
	userID := uuid.New()

	device, err := service.RegisterDevice(ctx, userID, phoneClient)
	require.NoError(t, err)
	require.NoError(t, service.RevokeDevice(ctx, userID, device.ID))

	result, err := service.ValidateDevice(ctx, device.ID, phoneClient)
	require.NoError(t, err)
	assert.Equal(t, UnknownDevice, result)
	assert.Equal(t, 0, repo.appends)

	devices, err := service.ListDevices(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, devices)

	// audit trail survives revocation
	_, activities, err := repo.GetDeviceWithActivities(ctx, device.ID)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}

func TestDeviceService_RevokeOtherUsersDevice(t *testing.T) {
	service, _ := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	err = service.RevokeDevice(ctx, uuid.New(), device.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	result, err := service.ValidateDevice(ctx, device.ID, phoneClient)
	require.NoError(t, err)
	assert.Equal(t, Trusted, result)
}

func TestDeviceService_StorageErrorsPropagate(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	unavailable := errors.New("connection refused")

	repo.getErr = unavailable
	_, err = service.ValidateDevice(ctx, device.ID, phoneClient)
	assert.ErrorIs(t, err, unavailable)

	repo.getErr = nil
	repo.appendErr = unavailable
	_, err = service.ValidateDevice(ctx, device.ID, phoneClient)
	assert.ErrorIs(t, err, unavailable)
}

func TestDeviceService_DeviceRemovedBeforeAppend(t *testing.T) {
	service, repo := setupDeviceService(t)
	ctx := context.Background()

	device, err := service.RegisterDevice(ctx, uuid.New(), phoneClient)
	require.NoError(t, err)

	repo.appendErr = ErrDeviceNotFound
	result, err := service.ValidateDevice(ctx, device.ID, phoneClient)
	require.NoError(t, err)
	assert.Equal(t, UnknownDevice, result)
}
