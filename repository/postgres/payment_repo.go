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

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a Postgres-backed implementation of PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) repository.PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, session_id, user_id, amount, status, reference, created_at, updated_at`

func (r *paymentRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	row := r.pool.QueryRow(ctx, query, reference)
	return scanPayment(row)
}

func (r *paymentRepository) Create(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	if record == nil {
		return nil, domain.ErrInvalidPayload
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = domain.PaymentStatusPending
	}

	const query = `
	INSERT INTO payments (id, session_id, user_id, amount, status, reference)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.SessionID,
		record.UserID,
		record.Amount,
		string(record.Status),
		record.Reference,
	).Scan(&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, reference string, status domain.PaymentStatus) error {
	const query = `
	UPDATE payments
	SET status = $2, updated_at = NOW()
	WHERE reference = $1
	`
	tag, err := r.pool.Exec(ctx, query, reference, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	var payment domain.PaymentRecord
	var status string

	if err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.UserID,
		&payment.Amount,
		&status,
		&payment.Reference,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	payment.Status = domain.PaymentStatus(status)
	return &payment, nil
}
