package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
)

// MemberLookup resolves the member placing an order.
type MemberLookup interface {
	GetMember(ctx context.Context, id uuid.UUID) (member.Member, error)
}

type OrderService struct {
	repo    OrderRepository
	members MemberLookup
}

func NewOrderService(repo OrderRepository, members MemberLookup) *OrderService {
	return &OrderService{repo: repo, members: members}
}

// Create opens a pending order for plan at its catalog price. The order is
// booked to the member's school.
func (s *OrderService) Create(ctx context.Context, memberID uuid.UUID, plan Plan) (Order, error) {
	price, ok := PriceOf(plan)
	if !ok {
		return Order{}, apperrors.InvalidInput("plan", fmt.Sprintf("unknown plan %q", plan))
	}

	m, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return Order{}, err
	}

	o, err := s.repo.CreateOrder(ctx, Order{
		MemberID: m.ID,
		SchoolID: m.SchoolID,
		Plan:     plan,
		Amount:   price,
		Status:   StatusPending,
	})
	if err != nil {
		return Order{}, apperrors.InternalWrap(err, "failed to create order")
	}
	return o, nil
}

func (s *OrderService) ListForMember(ctx context.Context, memberID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListOrdersByMember(ctx, memberID)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to list orders")
	}
	return orders, nil
}

func (s *OrderService) ListForSchool(ctx context.Context, schoolID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListOrdersBySchool(ctx, schoolID)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to list orders")
	}
	return orders, nil
}

// UpdateStatus applies a status change requested by actorID. Members may
// cancel their own pending orders; marking an order paid needs an admin.
// Orders of other members are reported as not found.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to Status, actorID uuid.UUID, isAdmin bool) (Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return Order{}, apperrors.NotFound("order", orderID.String())
		}
		return Order{}, apperrors.InternalWrap(err, "failed to get order")
	}
	if !isAdmin && o.MemberID != actorID {
		return Order{}, apperrors.NotFound("order", orderID.String())
	}
	if !CanTransition(o.Status, to) {
		return Order{}, apperrors.InvalidInput("status", fmt.Sprintf("cannot move from %s to %s", o.Status, to))
	}
	if to == StatusPaid && !isAdmin {
		return Order{}, apperrors.Forbidden("only administrators can mark orders paid")
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, o.Status, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return Order{}, apperrors.NotFound("order", orderID.String())
		case errors.Is(err, ErrStatusChanged):
			return Order{}, apperrors.InvalidInput("status", "order was updated concurrently")
		}
		return Order{}, apperrors.InternalWrap(err, "failed to update order")
	}
	return updated, nil
}
