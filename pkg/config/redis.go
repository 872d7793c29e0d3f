package config

// RedisConfig points at the Redis instance holding OAuth state.
// An empty URL selects the in-memory state store.
type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:""`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}
