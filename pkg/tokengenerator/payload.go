package tokengenerator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the token payload variants. It travels in the "kind"
// claim.
type Kind string

const (
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
	KindOnboarding Kind = "onboarding"
)

// Payload is one of AccessPayload, RefreshPayload or OnboardingPayload.
type Payload interface {
	Kind() Kind
	subject() string
	extraClaims() map[string]interface{}
}

// AccessPayload authorizes API calls for a member on one device.
type AccessPayload struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
	Role     string
}

// RefreshPayload lets the device it names obtain a new token pair.
type RefreshPayload struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
}

// OnboardingPayload carries a verified external identity that has no
// member yet, until registration completes.
type OnboardingPayload struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

func (AccessPayload) Kind() Kind { return KindAccess }
func (p AccessPayload) subject() string { return p.UserID.String() }
func (p AccessPayload) extraClaims() map[string]interface{} {
	return map[string]interface{}{"device_id": p.DeviceID.String(), "role": p.Role}
}

func (RefreshPayload) Kind() Kind { return KindRefresh }
func (p RefreshPayload) subject() string { return p.UserID.String() }
func (p RefreshPayload) extraClaims() map[string]interface{} {
	return map[string]interface{}{"device_id": p.DeviceID.String()}
}

func (OnboardingPayload) Kind() Kind { return KindOnboarding }
func (p OnboardingPayload) subject() string { return p.Subject }
func (p OnboardingPayload) extraClaims() map[string]interface{} {
	return map[string]interface{}{"provider": p.Provider, "email": p.Email, "name": p.Name}
}

type deviceClaims struct {
	DeviceID string `json:"device_id"`
	Role     string `json:"role"`
}

type onboardingClaims struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// PayloadFromClaims rebuilds a Payload from verified claims, switching on
// the "kind" claim. Unknown kinds and malformed variants are errors.
func PayloadFromClaims(claims map[string]interface{}) (Payload, error) {
	kind, _ := claims["kind"].(string)
	sub, _ := claims["sub"].(string)
	extra, _ := claims["extra_claims"].(map[string]interface{})

	switch Kind(kind) {
	case KindAccess:
		userID, deviceID, dc, err := parseDeviceClaims(sub, extra)
		if err != nil {
			return nil, err
		}
		if dc.Role == "" {
			return nil, fmt.Errorf("access token without role")
		}
		return AccessPayload{UserID: userID, DeviceID: deviceID, Role: dc.Role}, nil

	case KindRefresh:
		userID, deviceID, _, err := parseDeviceClaims(sub, extra)
		if err != nil {
			return nil, err
		}
		return RefreshPayload{UserID: userID, DeviceID: deviceID}, nil

	case KindOnboarding:
		if sub == "" {
			return nil, fmt.Errorf("onboarding token without subject")
		}
		var oc onboardingClaims
		if err := loadFromMap(extra, &oc); err != nil {
			return nil, fmt.Errorf("invalid onboarding claims: %w", err)
		}
		if oc.Provider == "" {
			return nil, fmt.Errorf("onboarding token without provider")
		}
		return OnboardingPayload{Provider: oc.Provider, Subject: sub, Email: oc.Email, Name: oc.Name}, nil

	default:
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
}

func parseDeviceClaims(sub string, extra map[string]interface{}) (uuid.UUID, uuid.UUID, deviceClaims, error) {
	var dc deviceClaims
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, dc, fmt.Errorf("invalid subject: %w", err)
	}
	if err := loadFromMap(extra, &dc); err != nil {
		return uuid.Nil, uuid.Nil, dc, fmt.Errorf("invalid extra claims: %w", err)
	}
	deviceID, err := uuid.Parse(dc.DeviceID)
	if err != nil {
		return uuid.Nil, uuid.Nil, dc, fmt.Errorf("invalid device_id: %w", err)
	}
	return userID, deviceID, dc, nil
}

func loadFromMap[T any](m map[string]interface{}, c *T) error {
	data, err := json.Marshal(m)
	if err == nil {
		err = json.Unmarshal(data, c)
	}
	return err
}
