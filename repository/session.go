package repository

import (
	"context"
	"time"

	"github.com/titipin/backend/domain"
)

type SessionFilter struct {
	CircleID  string
	CreatorID string
	Status    domain.SessionStatus
	Limit     int
	Offset    int
}

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	SetRevisionMode(ctx context.Context, id string, enabled bool) error
	// Close flips an open session to closed. The returned bool reports
	// whether this call performed the transition; closing an already-closed
	// session is a no-op with closed=false, which is how double-taps and
	// racing creator devices stay side-effect free.
	Close(ctx context.Context, id string) (bool, error)
	// ListOpenExpired returns open sessions whose computed expiry has passed,
	// for the server-side sweeper.
	ListOpenExpired(ctx context.Context, now time.Time, limit int) ([]domain.Session, error)
}
