package federated

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const ProviderGoogle = "google"

// ExternalIdentity is the normalized, verified user returned by a provider.
type ExternalIdentity struct {
	Provider      string `json:"provider"`
	Subject       string `json:"subject"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
}

// IdentityProvider performs the authorization code flow against one
// external provider.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (ExternalIdentity, error)
}

// Link maps an external identity to a member.
type Link struct {
	Provider string    `json:"provider"`
	Subject  string    `json:"subject"`
	MemberID uuid.UUID `json:"member_id"`
	Email    string    `json:"email"`
	LinkedAt time.Time `json:"linked_at"`
}
