package school

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemSchoolRepository implements SchoolRepository in memory. Deleting a
// school is never blocked by members here.
type InMemSchoolRepository struct {
	mu      sync.RWMutex
	schools map[uuid.UUID]School
}

func NewInMemSchoolRepository() *InMemSchoolRepository {
	return &InMemSchoolRepository{schools: make(map[uuid.UUID]School)}
}

func (r *InMemSchoolRepository) ListSchools(ctx context.Context) ([]School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schools := make([]School, 0, len(r.schools))
	for _, s := range r.schools {
		schools = append(schools, s)
	}
	sort.Slice(schools, func(i, j int) bool {
		return schools[i].ShortName < schools[j].ShortName
	})
	return schools, nil
}

func (r *InMemSchoolRepository) GetSchool(ctx context.Context, id uuid.UUID) (School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schools[id]
	if !ok {
		slog.Debug("School not found", "id", id)
		return School{}, ErrSchoolNotFound
	}
	return s, nil
}

func (r *InMemSchoolRepository) shortNameTaken(shortName string, except uuid.UUID) bool {
	for id, s := range r.schools {
		if id != except && s.ShortName == shortName {
			return true
		}
	}
	return false
}

func (r *InMemSchoolRepository) CreateSchool(ctx context.Context, params SchoolParams) (School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shortNameTaken(params.ShortName, uuid.Nil) {
		return School{}, ErrShortNameTaken
	}
	now := time.Now().UTC()
	s := School{
		ID:        uuid.New(),
		Name:      params.Name,
		ShortName: params.ShortName,
		Domain:    params.Domain,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.schools[s.ID] = s
	return s, nil
}

func (r *InMemSchoolRepository) UpdateSchool(ctx context.Context, id uuid.UUID, params SchoolParams) (School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schools[id]
	if !ok {
		return School{}, ErrSchoolNotFound
	}
	if r.shortNameTaken(params.ShortName, id) {
		return School{}, ErrShortNameTaken
	}
	s.Name, s.ShortName, s.Domain = params.Name, params.ShortName, params.Domain
	s.UpdatedAt = time.Now().UTC()
	r.schools[id] = s
	return s, nil
}

func (r *InMemSchoolRepository) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schools[id]; !ok {
		return ErrSchoolNotFound
	}
	delete(r.schools, id)
	return nil
}
