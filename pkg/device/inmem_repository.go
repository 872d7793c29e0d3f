package device

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemDeviceRepository implements DeviceRepository using in-memory maps
type InMemDeviceRepository struct {
	mu         sync.RWMutex
	devices    map[uuid.UUID]Device
	activities map[uuid.UUID][]LoginActivity
}

func NewInMemDeviceRepository() *InMemDeviceRepository {
	return &InMemDeviceRepository{
		devices:    make(map[uuid.UUID]Device),
		activities: make(map[uuid.UUID][]LoginActivity),
	}
}

func (r *InMemDeviceRepository) CreateDevice(ctx context.Context, userID uuid.UUID, client ClientInfo) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	device := Device{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      client.Fingerprint.Name,
		Class:     client.Fingerprint.Class,
		OS:        client.Fingerprint.OS,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.devices[device.ID] = device
	r.activities[device.ID] = []LoginActivity{{
		ID:        uuid.New(),
		DeviceID:  device.ID,
		IPAddress: ipPtr(client.IP),
		Success:   true,
		CreatedAt: now,
	}}

	slog.Debug("Device created", "deviceID", device.ID, "userID", userID)
	return device, nil
}

func (r *InMemDeviceRepository) GetDeviceWithActivities(ctx context.Context, deviceID uuid.UUID) (Device, []LoginActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[deviceID]
	if !ok {
		slog.Debug("Device not found", "deviceID", deviceID)
		return Device{}, nil, ErrDeviceNotFound
	}
	activities := make([]LoginActivity, len(r.activities[deviceID]))
	copy(activities, r.activities[deviceID])
	return device, activities, nil
}

func (r *InMemDeviceRepository) AppendActivity(ctx context.Context, deviceID uuid.UUID, ip string, success bool) (LoginActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[deviceID]; !ok {
		slog.Debug("Device not found when appending activity", "deviceID", deviceID)
		return LoginActivity{}, ErrDeviceNotFound
	}
	activity := LoginActivity{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		IPAddress: ipPtr(ip),
		Success:   success,
		CreatedAt: time.Now().UTC(),
	}
	r.activities[deviceID] = append(r.activities[deviceID], activity)
	return activity, nil
}

func (r *InMemDeviceRepository) FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := []Device{}
	for _, d := range r.devices {
		if d.UserID == userID && !d.Revoked() {
			devices = append(devices, d)
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})
	return devices, nil
}

func (r *InMemDeviceRepository) RevokeDevice(ctx context.Context, userID, deviceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok || device.UserID != userID {
		slog.Debug("Device not found when revoking", "deviceID", deviceID, "userID", userID)
		return ErrDeviceNotFound
	}
	if device.Revoked() {
		return nil
	}
	now := time.Now().UTC()
	device.RevokedAt = &now
	device.UpdatedAt = now
	r.devices[deviceID] = device
	return nil
}
