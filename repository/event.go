package repository

import (
	"context"

	"github.com/titipin/backend/domain"
)

// EventRepository is the append-only lifecycle log.
type EventRepository interface {
	Append(ctx context.Context, event *domain.SessionEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.SessionEvent, error)
}

// MessageRepository stores system chat lines shown in the session's chat feed.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.SystemMessage) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.SystemMessage, error)
}
