package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation of OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, session_id, requester_id, requester_name, item_name,
	quantity, unit_price, notes, status, created_at, updated_at`

func (r *orderRepository) GetByID(ctx context.Context, sessionID, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 AND id = $2`
	row := r.pool.QueryRow(ctx, query, sessionID, orderID)
	return scanOrder(row)
}

func (r *orderRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, domain.ErrInvalidPayload
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}

	const query = `
	INSERT INTO orders (id, session_id, requester_id, requester_name, item_name,
		quantity, unit_price, notes, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		order.ID,
		order.SessionID,
		order.RequesterID,
		order.RequesterName,
		order.ItemName,
		order.Quantity,
		order.UnitPrice,
		order.Notes,
		string(order.Status),
	).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, sessionID, orderID string, status domain.OrderStatus) error {
	const query = `
	UPDATE orders
	SET status = $3, updated_at = NOW()
	WHERE session_id = $1 AND id = $2
	`
	tag, err := r.pool.Exec(ctx, query, sessionID, orderID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var status string

	if err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.RequesterID,
		&order.RequesterName,
		&order.ItemName,
		&order.Quantity,
		&order.UnitPrice,
		&order.Notes,
		&status,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	return &order, nil
}
