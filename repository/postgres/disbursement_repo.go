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

type disbursementRepository struct {
	pool *pgxpool.Pool
}

// NewDisbursementRepository returns a Postgres-backed implementation of DisbursementRepository.
func NewDisbursementRepository(pool *pgxpool.Pool) repository.DisbursementRepository {
	return &disbursementRepository{pool: pool}
}

const disbursementColumns = `id, session_id, creator_id, collected_total, payment_fees,
	fee, net_amount, destination, reference, status, created_at, updated_at`

func (r *disbursementRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.DisbursementRecord, error) {
	query := `SELECT ` + disbursementColumns + ` FROM disbursements WHERE session_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DisbursementRecord
	for rows.Next() {
		record, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *disbursementRepository) Create(ctx context.Context, record *domain.DisbursementRecord) (*domain.DisbursementRecord, error) {
	if record == nil {
		return nil, domain.ErrInvalidPayload
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = domain.DisbursementStatusPending
	}

	const query = `
	INSERT INTO disbursements (id, session_id, creator_id, collected_total, payment_fees,
		fee, net_amount, destination, reference, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.SessionID,
		record.CreatorID,
		record.CollectedTotal,
		record.PaymentFees,
		record.Fee,
		record.NetAmount,
		record.Destination,
		record.Reference,
		string(record.Status),
	).Scan(&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *disbursementRepository) UpdateStatus(ctx context.Context, id string, status domain.DisbursementStatus, reference string) error {
	const query = `
	UPDATE disbursements
	SET status = $2,
		reference = CASE WHEN $3 = '' THEN reference ELSE $3 END,
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(status), reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDisbursementNotFound
	}
	return nil
}

func scanDisbursement(row rowScanner) (*domain.DisbursementRecord, error) {
	var record domain.DisbursementRecord
	var status string

	if err := row.Scan(
		&record.ID,
		&record.SessionID,
		&record.CreatorID,
		&record.CollectedTotal,
		&record.PaymentFees,
		&record.Fee,
		&record.NetAmount,
		&record.Destination,
		&record.Reference,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDisbursementNotFound
		}
		return nil, err
	}

	record.Status = domain.DisbursementStatus(status)
	return &record, nil
}
