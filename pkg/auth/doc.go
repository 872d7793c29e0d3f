// Package auth implements the session flows of the membership backend:
// federated login, onboarding of new members, token refresh and logout.
//
// These flows are the callers of the device trust core in pkg/device.
// Login and registration register a new device and bind the issued token
// pair to it. Refresh asks the device service whether the presenting
// client is still that device and branches on all three outcomes:
//
//	switch result {
//	case device.Trusted:       // new pair for the same device
//	case device.Untrusted:     // DEVICE_UNTRUSTED, device record kept
//	case device.UnknownDevice: // DEVICE_REVOKED
//	}
//
// Logout revokes the caller's own device, which makes every refresh token
// issued for it unusable.
//
// With WithAlerter, a login on a new device and an untrusted refresh are
// reported to the member in the background.
package auth
