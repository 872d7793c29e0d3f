package config

import (
	"fmt"
	"net/url"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `env:"UKHSC_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"UKHSC_PG_PORT" env-default:"5432"`
	Database string `env:"UKHSC_PG_DATABASE" env-default:"ukhsc_db"`
	User     string `env:"UKHSC_PG_USER" env-default:"ukhsc"`
	Password string `env:"UKHSC_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"UKHSC_PG_SCHEMA" env-default:"public"`
	SSLMode  string `env:"UKHSC_PG_SSLMODE" env-default:"disable"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s,public",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}

// ToMigrateURL returns the URL understood by golang-migrate's pgx/v5 driver.
func (d DatabaseConfig) ToMigrateURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}
