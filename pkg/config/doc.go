// Package config defines the environment-driven configuration of the
// membership backend.
//
// Every section is a plain struct tagged for cleanenv; Load reads an
// optional .env file with godotenv and then the environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//		slog.Error("Invalid configuration", "error", err)
//		os.Exit(1)
//	}
//	pool, err := pgxpool.New(ctx, cfg.DatabaseConfig.ToDatabaseURL())
//
// Duration settings are strings so they can be written either as ISO-8601
// (PT15M, P30D) or as Go durations (15m); use the Parse* helpers to read them.
package config
