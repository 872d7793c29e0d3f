package federated

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrIdentityNotLinked     = errors.New("federated identity not linked")
	ErrIdentityAlreadyLinked = errors.New("federated identity already linked")
)

// LinkRepository stores which member an external identity belongs to.
type LinkRepository interface {
	// FindUserByIdentity returns ErrIdentityNotLinked when no member owns
	// the identity.
	FindUserByIdentity(ctx context.Context, provider, subject string) (uuid.UUID, error)
	// LinkIdentity returns ErrIdentityAlreadyLinked when the identity
	// belongs to a member already.
	LinkIdentity(ctx context.Context, memberID uuid.UUID, identity ExternalIdentity) (Link, error)
	ListLinks(ctx context.Context, memberID uuid.UUID) ([]Link, error)
}
