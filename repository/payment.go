package repository

import (
	"context"

	"github.com/titipin/backend/domain"
)

type PaymentRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.PaymentRecord, error)
	GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error)
	Create(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error)
	// UpdateStatus applies a gateway-reported transition by reference.
	UpdateStatus(ctx context.Context, reference string, status domain.PaymentStatus) error
}
