package order

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemOrderRepository implements OrderRepository in memory
type InMemOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]Order
}

func NewInMemOrderRepository() *InMemOrderRepository {
	return &InMemOrderRepository{orders: make(map[uuid.UUID]Order)}
}

func (r *InMemOrderRepository) CreateOrder(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	o.ID = uuid.New()
	o.CreatedAt, o.UpdatedAt = now, now
	r.orders[o.ID] = o
	return o, nil
}

func (r *InMemOrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		slog.Debug("Order not found", "id", id)
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *InMemOrderRepository) list(match func(Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := []Order{}
	for _, o := range r.orders {
		if match(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (r *InMemOrderRepository) ListOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]Order, error) {
	return r.list(func(o Order) bool { return o.MemberID == memberID }), nil
}

func (r *InMemOrderRepository) ListOrdersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Order, error) {
	return r.list(func(o Order) bool { return o.SchoolID == schoolID }), nil
}

func (r *InMemOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != from {
		return Order{}, ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return o, nil
}
