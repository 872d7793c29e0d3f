// Package errors provides structured error handling with error codes.
//
// Services return *Error values carrying a code, a message and optionally a
// wrapped cause; HTTP handlers map the code to a status with HTTPStatusCode.
//
//	dev, err := repo.GetDevice(ctx, id)
//	if err != nil {
//		return errors.InternalWrap(err, "failed to load device")
//	}
//
//	if errors.IsCode(err, errors.ErrCodeDeviceRevoked) {
//		// the session for this device is gone
//	}
//
// Error code to HTTP status mapping:
//   - INVALID_INPUT, VALIDATION_FAILED → 400
//   - UNAUTHORIZED, TOKEN_*, DEVICE_REVOKED, DEVICE_UNTRUSTED, OAUTH_STATE_INVALID → 401
//   - FORBIDDEN, FEDERATED_IDENTITY_UNLINKED → 403
//   - NOT_FOUND → 404
//   - ALREADY_EXISTS → 409
//   - RATE_LIMIT_EXCEEDED → 429
//   - RESOURCE_UNAVAILABLE → 503
//   - everything else → 500
package errors
