package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusChanged is returned when the order is no longer in the
	// expected status.
	ErrStatusChanged = errors.New("order status changed")
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]Order, error)
	ListOrdersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Order, error)
	// UpdateStatus moves the order from one status to another atomically.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (Order, error)
}
