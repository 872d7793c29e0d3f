package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type DeviceClass string

const (
	DeviceClassBrowser DeviceClass = "Browser"
	DeviceClassMobile  DeviceClass = "Mobile"
	DeviceClassUnknown DeviceClass = "Unknown"
)

type OSFamily string

const (
	OSAndroid OSFamily = "Android"
	OSiOS     OSFamily = "iOS"
	OSUnknown OSFamily = "Unknown"
)

// UnknownName is the display name used when nothing better can be derived.
// Two devices both named UnknownName are never considered a name match.
const UnknownName = "Unknown"

// Device is one (member, client) pairing created at login.
type Device struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Name      string      `json:"name"`
	Class     DeviceClass `json:"device_class"`
	OS        OSFamily    `json:"os_family"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	RevokedAt *time.Time  `json:"revoked_at,omitempty"`
}

func (d Device) Revoked() bool {
	return d.RevokedAt != nil
}

// Fingerprint returns the stored signals the scorer compares against.
func (d Device) Fingerprint() Fingerprint {
	return Fingerprint{Name: d.Name, Class: d.Class, OS: d.OS}
}

// LoginActivity is an append-only audit record of a registration or a
// validation attempt. IPAddress is nil when no valid client IP was known.
type LoginActivity struct {
	ID        uuid.UUID `json:"id"`
	DeviceID  uuid.UUID `json:"device_id"`
	IPAddress *string   `json:"ip_address,omitempty"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrDeviceNotFound = errors.New("device not found")

// DeviceRepository is a persistence façade with no trust logic of its own.
type DeviceRepository interface {
	// CreateDevice stores a new device together with one successful
	// activity carrying client.IP, atomically.
	CreateDevice(ctx context.Context, userID uuid.UUID, client ClientInfo) (Device, error)
	// GetDeviceWithActivities returns ErrDeviceNotFound for unknown ids.
	// Revoked devices are returned; callers check RevokedAt.
	GetDeviceWithActivities(ctx context.Context, deviceID uuid.UUID) (Device, []LoginActivity, error)
	// AppendActivity returns ErrDeviceNotFound for unknown ids.
	AppendActivity(ctx context.Context, deviceID uuid.UUID, ip string, success bool) (LoginActivity, error)
	// FindDevicesByUser lists the user's non-revoked devices, newest first.
	FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]Device, error)
	// RevokeDevice tombstones a device owned by userID. Revoking an already
	// revoked device is a no-op; a device owned by someone else is
	// ErrDeviceNotFound.
	RevokeDevice(ctx context.Context, userID, deviceID uuid.UUID) error
}

// ipPtr maps "" to nil so absent IPs are stored as NULL.
func ipPtr(ip string) *string {
	if ip == "" {
		return nil
	}
	return &ip
}
