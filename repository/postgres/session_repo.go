package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{pool: pool}
}

const sessionColumns = `id, circle_id, creator_id, creator_name, title, description,
	location_name, latitude, longitude, duration_minutes, max_titip, status,
	revision_mode, created_at, updated_at`

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanSession(row)
}

func (r *sessionRepository) List(ctx context.Context, filter repository.SessionFilter) ([]domain.Session, error) {
	query := `
	SELECT ` + sessionColumns + `
	FROM sessions
	WHERE ($1 = '' OR circle_id = $1)
	  AND ($2 = '' OR creator_id = $2)
	  AND ($3 = '' OR status = $3)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.CircleID, filter.CreatorID, string(filter.Status),
		clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session == nil {
		return nil, domain.ErrInvalidPayload
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = domain.SessionStatusOpen
	}

	const query = `
	INSERT INTO sessions (id, circle_id, creator_id, creator_name, title, description,
		location_name, latitude, longitude, duration_minutes, max_titip, status, revision_mode)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.CircleID,
		session.CreatorID,
		session.CreatorName,
		session.Title,
		session.Description,
		session.LocationName,
		session.Latitude,
		session.Longitude,
		session.DurationMinutes,
		session.MaxTitip,
		string(session.Status),
		session.RevisionMode,
	).Scan(&session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepository) SetRevisionMode(ctx context.Context, id string, enabled bool) error {
	const query = `
	UPDATE sessions
	SET revision_mode = $2, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Close(ctx context.Context, id string) (bool, error) {
	// The status guard in the WHERE clause makes a double-close a no-op at
	// the storage layer, so racing creator devices apply one transition.
	const query = `
	UPDATE sessions
	SET status = $2, updated_at = NOW()
	WHERE id = $1 AND status = $3
	`
	tag, err := r.pool.Exec(ctx, query, id,
		string(domain.SessionStatusClosed), string(domain.SessionStatusOpen))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish "already closed" from "missing".
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrSessionNotFound
	}
	return false, nil
}

func (r *sessionRepository) ListOpenExpired(ctx context.Context, now time.Time, limit int) ([]domain.Session, error) {
	query := `
	SELECT ` + sessionColumns + `
	FROM sessions
	WHERE status = $1
	  AND created_at + make_interval(mins => duration_minutes) <= $2
	ORDER BY created_at ASC
	LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(domain.SessionStatusOpen), now, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var status string

	if err := row.Scan(
		&session.ID,
		&session.CircleID,
		&session.CreatorID,
		&session.CreatorName,
		&session.Title,
		&session.Description,
		&session.LocationName,
		&session.Latitude,
		&session.Longitude,
		&session.DurationMinutes,
		&session.MaxTitip,
		&status,
		&session.RevisionMode,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	session.Status = domain.SessionStatus(status)
	return &session, nil
}
