package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
)

// ToggleRevision flips the creator's re-confirmation sub-state. Only the
// creator may toggle it, and only while the session is not closed. Setting
// the mode it already has is a no-op.
func (uc *UseCase) ToggleRevision(ctx context.Context, actorID, sessionID string, enabled bool) (*domain.Session, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCreator(actorID) {
		return nil, domain.ErrNotCreator
	}
	if session.IsClosed() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "session already closed")
	}
	if session.RevisionMode == enabled {
		return session, nil
	}

	if err := uc.sessions.SetRevisionMode(ctx, sessionID, enabled); err != nil {
		return nil, err
	}
	session.RevisionMode = enabled

	eventName := domain.EventRevisionResolved
	body := "revision resolved"
	if enabled {
		eventName = domain.EventRevisionActivated
		body = "revision mode activated"
	}
	uc.recordEvent(ctx, sessionID, actorID, eventName, nil)
	uc.postChat(ctx, sessionID, body)
	uc.notify(ctx, sessionID, "session", eventName)
	return session, nil
}

// Finish closes the session. Closing is monotonic and idempotent: the first
// call applies the transition and its side effects, any repeat (a double-tap,
// a racing creator device, the expiry sweeper) is a silent no-op.
func (uc *UseCase) Finish(ctx context.Context, actorID, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCreator(actorID) {
		return nil, domain.ErrNotCreator
	}
	return uc.close(ctx, actorID, session)
}

// CloseExpired closes an open session whose duration has elapsed, on behalf
// of the server-side sweeper. Sessions still inside their window are left
// alone.
func (uc *UseCase) CloseExpired(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionStatusOpen && uc.now().Before(session.ExpiresAt()) {
		return session, nil
	}
	return uc.close(ctx, "system", session)
}

func (uc *UseCase) close(ctx context.Context, actorID string, session *domain.Session) (*domain.Session, error) {
	closed, err := uc.sessions.Close(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Status = domain.SessionStatusClosed
	if !closed {
		// Already closed elsewhere; exactly one set of side effects applies.
		return session, nil
	}

	uc.logger.Info("session closed",
		zap.String("session_id", session.ID),
		zap.String("actor_id", actorID))
	uc.recordEvent(ctx, session.ID, actorID, domain.EventSessionClosed, nil)
	uc.postChat(ctx, session.ID, "session closed")
	uc.notify(ctx, session.ID, "session", domain.EventSessionClosed)
	return session, nil
}
