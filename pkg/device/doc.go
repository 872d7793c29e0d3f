// Package device decides whether a refresh token is being used from the
// device it was issued to.
//
// At login the caller's fingerprint (display name, device class, OS family)
// and IP are captured and stored as a Device with one successful
// LoginActivity. On every refresh the live fingerprint and IP are scored
// against the stored device and its activity history:
//
//	client := device.ClientInfoFromRequest(r)
//	result, err := deviceService.ValidateDevice(ctx, payload.DeviceID, client)
//	switch result {
//	case device.Trusted:
//		// issue a new token pair
//	case device.Untrusted:
//		// reject, the device record is kept
//	case device.UnknownDevice:
//		// reject as revoked
//	}
//
// Score weights are fixed: name 0.30 (never for two Unknown names), device
// class 0.10, OS family 0.20 and IP recurrence 0.40. A score of at least
// TrustThreshold (0.3) is trusted. Every validation of an existing device
// appends one activity, successful or not, so rejected IPs still count as
// history for later recurrence checks.
//
// Revocation sets a tombstone (revoked_at); revoked devices validate as
// UnknownDevice but keep their audit trail.
package device
