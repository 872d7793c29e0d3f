package member

import (
	"fmt"
)

// RepositoryConfig contains configuration for creating a member repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
}

// NewMemberRepository creates a member repository for the persistence type
// ("postgres" or "inmem").
func NewMemberRepository(persistenceType string, config RepositoryConfig) (MemberRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresMemberRepository(config.DB), nil
	case "inmem", "memory":
		return NewInMemMemberRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
