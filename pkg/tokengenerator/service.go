package tokengenerator

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
)

// Default token expiry durations
const (
	DefaultAccessTokenExpiry     = 15 * time.Minute
	DefaultRefreshTokenExpiry    = 30 * 24 * time.Hour
	DefaultOnboardingTokenExpiry = 30 * time.Minute
)

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenService mints and verifies payload tokens.
type TokenService struct {
	generator *JwtTokenGenerator
	expiries  map[Kind]time.Duration
}

type Option func(*TokenService)

func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(s *TokenService) {
		if expiry > 0 {
			s.expiries[KindAccess] = expiry
		}
	}
}

func WithRefreshTokenExpiry(expiry time.Duration) Option {
	return func(s *TokenService) {
		if expiry > 0 {
			s.expiries[KindRefresh] = expiry
		}
	}
}

func WithOnboardingTokenExpiry(expiry time.Duration) Option {
	return func(s *TokenService) {
		if expiry > 0 {
			s.expiries[KindOnboarding] = expiry
		}
	}
}

func NewTokenService(generator *JwtTokenGenerator, opts ...Option) *TokenService {
	s := &TokenService{
		generator: generator,
		expiries: map[Kind]time.Duration{
			KindAccess:     DefaultAccessTokenExpiry,
			KindRefresh:    DefaultRefreshTokenExpiry,
			KindOnboarding: DefaultOnboardingTokenExpiry,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs p with the expiry configured for its kind.
func (s *TokenService) Issue(p Payload) (string, time.Time, error) {
	return s.generator.GenerateToken(p.Kind(), p.subject(), s.expiries[p.Kind()], p.extraClaims())
}

// Parse verifies tokenStr and returns its payload, which is guaranteed to
// be of the expected kind. Failures are TOKEN_EXPIRED or TOKEN_INVALID.
func (s *TokenService) Parse(tokenStr string, expected Kind) (Payload, error) {
	claims, err := s.generator.ParseToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTokenExpired, "token expired")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTokenInvalid, "token invalid")
	}

	payload, err := PayloadFromClaims(claims)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTokenInvalid, "token invalid")
	}
	if payload.Kind() != expected {
		return nil, apperrors.Newf(apperrors.ErrCodeTokenInvalid, "expected %s token, got %s", expected, payload.Kind())
	}
	return payload, nil
}

// IssuePair mints an access and a refresh token bound to one device.
func (s *TokenService) IssuePair(userID, deviceID uuid.UUID, role string) (TokenPair, error) {
	access, accessExp, err := s.Issue(AccessPayload{UserID: userID, DeviceID: deviceID, Role: role})
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.Issue(RefreshPayload{UserID: userID, DeviceID: deviceID})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
