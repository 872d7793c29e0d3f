package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db DBTX
}

func NewPostgresOrderRepository(db DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// amount is read as text so no precision is lost on the way to decimal
const orderColumns = `id, member_id, school_id, plan, amount::text, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var amount string
	if err := row.Scan(&o.ID, &o.MemberID, &o.SchoolID, &o.Plan, &amount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Order{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	o.Amount = d
	return o, nil
}

func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, o Order) (Order, error) {
	now := time.Now().UTC()
	created, err := scanOrder(r.db.QueryRow(ctx, `
		INSERT INTO orders (id, member_id, school_id, plan, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $7)
		RETURNING `+orderColumns,
		uuid.New(), o.MemberID, o.SchoolID, o.Plan, o.Amount.StringFixed(2), o.Status, now,
	))
	if err != nil {
		slog.Error("Failed to create order", "err", err, "memberID", o.MemberID)
		return Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return created, nil
}

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Order not found", "id", id)
			return Order{}, ErrOrderNotFound
		}
		slog.Error("Failed to get order", "err", err, "id", id)
		return Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *PostgresOrderRepository) list(ctx context.Context, column string, id uuid.UUID) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		slog.Error("Failed to list orders", "err", err, column, id)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresOrderRepository) ListOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]Order, error) {
	return r.list(ctx, "member_id", memberID)
}

func (r *PostgresOrderRepository) ListOrdersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Order, error) {
	return r.list(ctx, "school_id", schoolID)
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns,
		id, from, to, time.Now().UTC(),
	))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		slog.Error("Failed to update order status", "err", err, "id", id)
		return Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	if _, err := r.GetOrder(ctx, id); err != nil {
		return Order{}, err
	}
	return Order{}, ErrStatusChanged
}
