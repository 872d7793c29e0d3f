package federated

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type linkKey struct {
	provider string
	subject  string
}

// InMemLinkRepository implements LinkRepository in memory
type InMemLinkRepository struct {
	mu    sync.RWMutex
	links map[linkKey]Link
}

func NewInMemLinkRepository() *InMemLinkRepository {
	return &InMemLinkRepository{links: make(map[linkKey]Link)}
}

func (r *InMemLinkRepository) FindUserByIdentity(ctx context.Context, provider, subject string) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[linkKey{provider, subject}]
	if !ok {
		slog.Debug("Federated identity not linked", "provider", provider, "subject", subject)
		return uuid.Nil, ErrIdentityNotLinked
	}
	return link.MemberID, nil
}

func (r *InMemLinkRepository) LinkIdentity(ctx context.Context, memberID uuid.UUID, identity ExternalIdentity) (Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{identity.Provider, identity.Subject}
	if _, exists := r.links[key]; exists {
		return Link{}, ErrIdentityAlreadyLinked
	}
	link := Link{
		Provider: identity.Provider,
		Subject:  identity.Subject,
		MemberID: memberID,
		Email:    identity.Email,
		LinkedAt: time.Now().UTC(),
	}
	r.links[key] = link
	return link, nil
}

func (r *InMemLinkRepository) ListLinks(ctx context.Context, memberID uuid.UUID) ([]Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []Link
	for _, l := range r.links {
		if l.MemberID == memberID {
			links = append(links, l)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].LinkedAt.Before(links[j].LinkedAt)
	})
	return links, nil
}
