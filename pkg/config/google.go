package config

import "time"

// GoogleConfig holds the Google OAuth client used for member sign-in.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL" env-default:"http://localhost:4000/auth/google/callback"`
	StateTTL     string `env:"OAUTH_STATE_TTL" env-default:"PT10M"`
}

func (g GoogleConfig) ParseStateTTL() (time.Duration, error) {
	return parseDurationISO8601(g.StateTTL)
}

// Enabled reports whether client credentials were supplied.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}
