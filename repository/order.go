package repository

import (
	"context"

	"github.com/titipin/backend/domain"
)

type OrderRepository interface {
	GetByID(ctx context.Context, sessionID, orderID string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	UpdateStatus(ctx context.Context, sessionID, orderID string, status domain.OrderStatus) error
}
