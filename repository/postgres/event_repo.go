package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed implementation of EventRepository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.SessionEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO session_events (id, session_id, actor_id, name, payload)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	var payload interface{}
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}
	return r.pool.QueryRow(ctx, query,
		event.ID,
		event.SessionID,
		event.ActorID,
		event.Name,
		payload,
	).Scan(&event.CreatedAt)
}

func (r *eventRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.SessionEvent, error) {
	const query = `
	SELECT id, session_id, actor_id, name, payload, created_at
	FROM session_events
	WHERE session_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.SessionEvent
	for rows.Next() {
		var event domain.SessionEvent
		var payload []byte
		if err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.ActorID,
			&event.Name,
			&payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.Payload = payload
		events = append(events, event)
	}
	return events, rows.Err()
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository returns a Postgres-backed implementation of MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) repository.MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.SystemMessage) error {
	if message == nil || message.SessionID == "" {
		return domain.ErrInvalidPayload
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO session_messages (id, session_id, body)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING
	RETURNING created_at
	`
	// ON CONFLICT keeps outbox redelivery idempotent: a message that made it
	// to disk before the original call failed is not duplicated on drain.
	rows, err := r.pool.Query(ctx, query, message.ID, message.SessionID, message.Body)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&message.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *messageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.SystemMessage, error) {
	const query = `
	SELECT id, session_id, body, created_at
	FROM session_messages
	WHERE session_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.SystemMessage
	for rows.Next() {
		var message domain.SystemMessage
		if err := rows.Scan(
			&message.ID,
			&message.SessionID,
			&message.Body,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
