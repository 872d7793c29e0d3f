package school

import (
	"fmt"
)

// RepositoryConfig contains configuration for creating a school repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
}

// NewSchoolRepository creates a school repository for the persistence type
// ("postgres" or "inmem").
func NewSchoolRepository(persistenceType string, config RepositoryConfig) (SchoolRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresSchoolRepository(config.DB), nil
	case "inmem", "memory":
		return NewInMemSchoolRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
