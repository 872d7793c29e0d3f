package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type Plan string

const (
	PlanAnnual   Plan = "annual"
	PlanSemester Plan = "semester"
)

// Catalog is the price list in TWD.
var Catalog = map[Plan]decimal.Decimal{
	PlanAnnual:   decimal.RequireFromString("500.00"),
	PlanSemester: decimal.RequireFromString("300.00"),
}

// PriceOf returns the catalog price of plan.
func PriceOf(plan Plan) (decimal.Decimal, bool) {
	price, ok := Catalog[plan]
	return price, ok
}

type Order struct {
	ID        uuid.UUID       `json:"id"`
	MemberID  uuid.UUID       `json:"member_id"`
	SchoolID  uuid.UUID       `json:"school_id"`
	Plan      Plan            `json:"plan"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusPaid || to == StatusCancelled)
}
