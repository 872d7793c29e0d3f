package order

import (
	"fmt"
)

// RepositoryConfig contains configuration for creating an order repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
}

// NewOrderRepository creates an order repository for the persistence type
// ("postgres" or "inmem").
func NewOrderRepository(persistenceType string, config RepositoryConfig) (OrderRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresOrderRepository(config.DB), nil
	case "inmem", "memory":
		return NewInMemOrderRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
