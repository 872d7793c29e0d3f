package federated

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RepositoryConfig contains configuration for creating federated stores
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
	// Redis backs the state store when set
	Redis    *redis.Client
	StateTTL time.Duration
}

// NewLinkRepository creates a link repository for the persistence type
// ("postgres" or "inmem").
func NewLinkRepository(persistenceType string, config RepositoryConfig) (LinkRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresLinkRepository(config.DB), nil
	case "inmem", "memory":
		return NewInMemLinkRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}

// NewStateStore returns a Redis state store when a client is configured and
// an in-memory one otherwise.
func NewStateStore(config RepositoryConfig) StateStore {
	if config.Redis != nil {
		return NewRedisStateStore(config.Redis, config.StateTTL)
	}
	return NewInMemStateStore(config.StateTTL)
}
