package member

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemMemberRepository implements MemberRepository in memory. It does not
// check that schools exist.
type InMemMemberRepository struct {
	mu       sync.RWMutex
	members  map[uuid.UUID]Member
	settings map[uuid.UUID]Settings
}

func NewInMemMemberRepository() *InMemMemberRepository {
	return &InMemMemberRepository{
		members:  make(map[uuid.UUID]Member),
		settings: make(map[uuid.UUID]Settings),
	}
}

func (r *InMemMemberRepository) CreateMember(ctx context.Context, params CreateMemberParams) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	m := Member{
		ID:          uuid.New(),
		SchoolID:    params.SchoolID,
		DisplayName: params.DisplayName,
		Email:       params.Email,
		Role:        params.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.members[m.ID] = m
	return m, nil
}

func (r *InMemMemberRepository) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		slog.Debug("Member not found", "id", id)
		return Member{}, ErrMemberNotFound
	}
	return m, nil
}

func (r *InMemMemberRepository) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := []Member{}
	for _, m := range r.members {
		if m.SchoolID == schoolID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

func (r *InMemMemberRepository) GetSettings(ctx context.Context, memberID uuid.UUID) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[memberID]
	if !ok {
		return Settings{}, ErrSettingsNotFound
	}
	return s, nil
}

func (r *InMemMemberRepository) UpsertSettings(ctx context.Context, settings Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[settings.MemberID]; !ok {
		return Settings{}, ErrMemberNotFound
	}
	settings.UpdatedAt = time.Now().UTC()
	r.settings[settings.MemberID] = settings
	return settings, nil
}
