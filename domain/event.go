package domain

import (
	"encoding/json"
	"time"
)

// Lifecycle event names recorded in the session event log.
const (
	EventSessionCreated        = "session.created"
	EventSessionClosed         = "session.closed"
	EventRevisionActivated     = "session.revision_activated"
	EventRevisionResolved      = "session.revision_resolved"
	EventOrderRequested        = "order.requested"
	EventOrderStatusChanged    = "order.status_changed"
	EventPaymentRequested      = "payment.requested"
	EventPaymentUpdated        = "payment.updated"
	EventDisbursementRequested = "disbursement.requested"
	EventDisbursementUpdated   = "disbursement.updated"
)

// SessionEvent is one append-only entry in a session's lifecycle log. The
// log is how "exactly one transition applied" stays observable after the
// fact, e.g. for idempotent double-closes.
type SessionEvent struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	ActorID   string          `json:"actor_id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SystemMessage is a chat line posted by the system alongside a lifecycle
// transition. Delivery is fire-and-forget; losing one never rolls back the
// transition that produced it.
type SystemMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
