package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DeviceService is the device trust state machine: it registers devices at
// login, validates them on every refresh and revokes them on request.
// It holds no state of its own beyond the repository.
type DeviceService struct {
	deviceRepository DeviceRepository
	scorer           func(Fingerprint, string, Device, []LoginActivity) float64
}

type Option func(*DeviceService)

// WithScorer replaces the trust scorer. Intended for tests.
func WithScorer(scorer func(Fingerprint, string, Device, []LoginActivity) float64) Option {
	return func(s *DeviceService) {
		s.scorer = scorer
	}
}

func NewDeviceService(deviceRepository DeviceRepository, opts ...Option) *DeviceService {
	s := &DeviceService{
		deviceRepository: deviceRepository,
		scorer:           Score,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterDevice records a new device for userID from the client's
// fingerprint, together with a successful first activity.
func (s *DeviceService) RegisterDevice(ctx context.Context, userID uuid.UUID, client ClientInfo) (Device, error) {
	device, err := s.deviceRepository.CreateDevice(ctx, userID, client)
	if err != nil {
		return Device{}, fmt.Errorf("failed to register device: %w", err)
	}
	return device, nil
}

// ValidateDevice decides whether the client presenting a refresh token is
// still the device it was issued to. Unknown and revoked devices yield
// UnknownDevice without touching the activity log; every other outcome is
// recorded as one new activity. Storage errors are returned as-is.
func (s *DeviceService) ValidateDevice(ctx context.Context, deviceID uuid.UUID, client ClientInfo) (TrustResult, error) {
	device, activities, err := s.deviceRepository.GetDeviceWithActivities(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return UnknownDevice, nil
		}
		return "", err
	}
	if device.Revoked() {
		return UnknownDevice, nil
	}

	result := Decide(s.scorer(client.Fingerprint, client.IP, device, activities))

	if _, err := s.deviceRepository.AppendActivity(ctx, deviceID, client.IP, result == Trusted); err != nil {
		// removed between the read and the write
		if errors.Is(err, ErrDeviceNotFound) {
			return UnknownDevice, nil
		}
		return "", err
	}
	return result, nil
}

// ListDevices returns the user's active devices.
func (s *DeviceService) ListDevices(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	devices, err := s.deviceRepository.FindDevicesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// RevokeDevice tombstones one of the user's devices. Refresh tokens bound to
// it are rejected from then on.
func (s *DeviceService) RevokeDevice(ctx context.Context, userID, deviceID uuid.UUID) error {
	if err := s.deviceRepository.RevokeDevice(ctx, userID, deviceID); err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	return nil
}
