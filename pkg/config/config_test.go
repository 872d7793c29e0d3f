package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationISO8601(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT15M", 15 * time.Minute},
		{"P30D", 30 * 24 * time.Hour},
		{"PT1H30M", 90 * time.Minute},
		{"15m", 15 * time.Minute},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDurationISO8601(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseDurationISO8601("fortnight")
	assert.Error(t, err)
}

func TestReadEnvDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cleanenv.ReadEnv(&cfg))
	require.NoError(t, cfg.Validate())

	access, _ := cfg.JWTConfig.ParseAccessTokenExpiry()
	refresh, _ := cfg.JWTConfig.ParseRefreshTokenExpiry()
	assert.Equal(t, 15*time.Minute, access)
	assert.Equal(t, 30*24*time.Hour, refresh)
	assert.Equal(t, uint16(5432), cfg.DatabaseConfig.Port)
	assert.False(t, cfg.RedisConfig.Enabled())
	assert.Equal(t, "postgres", cfg.Persistence)
	assert.False(t, cfg.SMTPConfig.Enabled())
	assert.True(t, cfg.SMTPConfig.TLS)
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv("UKHSC_PG_HOST", "db.internal")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "72h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SMTP_HOST", "smtp.internal")
	t.Setenv("SMTP_PORT", "2525")

	cfg := Config{}
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	refresh, err := cfg.JWTConfig.ParseRefreshTokenExpiry()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, refresh)
	assert.Contains(t, cfg.DatabaseConfig.ToDatabaseURL(), "@db.internal:5432/")
	assert.True(t, cfg.RedisConfig.Enabled())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.SMTPConfig.Enabled())
	assert.Equal(t, 2525, cfg.SMTPConfig.Port)
}

func TestValidateRejectsBadDurations(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	cfg.JWTConfig.AccessTokenExpiry = "soon"
	assert.Error(t, cfg.Validate())

	cfg.JWTConfig.AccessTokenExpiry = "PT5M"
	cfg.RateLimitConfig.AuthRequests = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimitConfig.AuthRequests = 10
	cfg.Persistence = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg.Persistence = "inmem"
	assert.NoError(t, cfg.Validate())

	cfg.RateLimitConfig.TrustedProxies = "10.0.0.0/8, not-an-ip"
	assert.Error(t, cfg.Validate())
}

func TestParseTrustedProxies(t *testing.T) {
	r := RateLimitConfig{TrustedProxies: " 10.0.0.0/8, 192.0.2.7 ,,::ffff:198.51.100.1, 2001:db8::/32 "}
	prefixes, err := r.ParseTrustedProxies()
	require.NoError(t, err)
	require.Len(t, prefixes, 4)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.7/32", prefixes[1].String())
	assert.Equal(t, "198.51.100.1/32", prefixes[2].String())
	assert.Equal(t, "2001:db8::/32", prefixes[3].String())

	empty, err := RateLimitConfig{}.ParseTrustedProxies()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDatabaseURLEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, Database: "d", User: "u", Password: "p@ss/word", Schema: "public", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@h:5432/d?sslmode=disable&search_path=public,public", d.ToDatabaseURL())
	assert.Equal(t, "pgx5://u:p%40ss%2Fword@h:5432/d?sslmode=disable&search_path=public", d.ToMigrateURL())
}
