package federated

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultStateTTL = 10 * time.Minute

// ErrStateNotFound is returned for unknown, expired or already used states.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStore keeps OAuth state values between the redirect to the provider
// and its callback. Each state can be consumed once.
type StateStore interface {
	// Issue stores redirect under a fresh state and returns the state.
	Issue(ctx context.Context, redirect string) (string, error)
	// Consume returns the redirect stored under state and forgets it.
	Consume(ctx context.Context, state string) (string, error)
}

func generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// RedisStateStore keeps states as keys with a TTL and consumes them with
// GETDEL, so two callbacks racing on one state cannot both succeed.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

func (s *RedisStateStore) Issue(ctx context.Context, redirect string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(state), redirect, s.ttl).Err(); err != nil {
		slog.Error("Failed to store oauth state", "err", err)
		return "", fmt.Errorf("failed to store state: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrStateNotFound
	}
	redirect, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err == redis.Nil {
		slog.Debug("OAuth state not found", "state", state)
		return "", ErrStateNotFound
	}
	if err != nil {
		slog.Error("Failed to consume oauth state", "err", err)
		return "", fmt.Errorf("failed to consume state: %w", err)
	}
	return redirect, nil
}

type stateEntry struct {
	redirect  string
	expiresAt time.Time
}

// InMemStateStore is a single-process StateStore.
type InMemStateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
	ttl    time.Duration
	now    func() time.Time
}

func NewInMemStateStore(ttl time.Duration) *InMemStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &InMemStateStore{
		states: make(map[string]stateEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *InMemStateStore) Issue(ctx context.Context, redirect string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.states {
		if now.After(e.expiresAt) {
			delete(s.states, k)
		}
	}
	s.states[state] = stateEntry{redirect: redirect, expiresAt: now.Add(s.ttl)}
	return state, nil
}

func (s *InMemStateStore) Consume(ctx context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.states[state]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.states, state)
	if s.now().After(e.expiresAt) {
		return "", ErrStateNotFound
	}
	return e.redirect, nil
}
