package config

import (
	"time"

	"github.com/sosodev/duration"
)

// JWTConfig holds token signing settings. Expiries accept ISO-8601
// durations (PT15M, P30D) or Go durations (15m).
type JWTConfig struct {
	Secret                string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer                string `env:"JWT_ISSUER" env-default:"ukhsc-system"`
	Audience              string `env:"JWT_AUDIENCE" env-default:"ukhsc-system"`
	AccessTokenExpiry     string `env:"ACCESS_TOKEN_EXPIRY" env-default:"PT15M"`
	RefreshTokenExpiry    string `env:"REFRESH_TOKEN_EXPIRY" env-default:"P30D"`
	OnboardingTokenExpiry string `env:"ONBOARDING_TOKEN_EXPIRY" env-default:"PT30M"`
}

// ParseAccessTokenExpiry parses the access token expiry duration
func (j JWTConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.AccessTokenExpiry)
}

// ParseRefreshTokenExpiry parses the refresh token expiry duration
func (j JWTConfig) ParseRefreshTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.RefreshTokenExpiry)
}

func (j JWTConfig) ParseOnboardingTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.OnboardingTokenExpiry)
}

// parseDurationISO8601 tries to parse duration as ISO8601 first, then Go duration
func parseDurationISO8601(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}
