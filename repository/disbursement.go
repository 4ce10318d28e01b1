package repository

import (
	"context"

	"github.com/titipin/backend/domain"
)

// DisbursementRepository is append-only over attempts: a retry creates a new
// record, and only the status of an existing attempt ever changes afterwards.
type DisbursementRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.DisbursementRecord, error)
	Create(ctx context.Context, record *domain.DisbursementRecord) (*domain.DisbursementRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.DisbursementStatus, reference string) error
}
