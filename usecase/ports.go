package usecase

import (
	"context"

	"github.com/titipin/backend/domain"
)

// PaymentTokenRequest asks the external gateway to open a charge for one
// payer's grand total.
type PaymentTokenRequest struct {
	SessionID string
	UserID    string
	Amount    int64
}

// PaymentTokenResult carries the gateway's charge handle back to the client.
type PaymentTokenResult struct {
	Token     string
	Reference string
}

// PayoutRequest asks the external gateway to transfer the net collected
// amount to the creator's bank account.
type PayoutRequest struct {
	SessionID      string
	DisbursementID string
	Destination    string
	Amount         int64
}

// PayoutResult reports the gateway's acknowledgement of a payout request.
type PayoutResult struct {
	Reference string
	Status    domain.DisbursementStatus
}

// PaymentGateway abstracts the external payment collaborator. Implementations
// must classify network and gateway failures as UNAVAILABLE domain errors so
// callers can offer a retry.
type PaymentGateway interface {
	RequestPaymentToken(ctx context.Context, req PaymentTokenRequest) (*PaymentTokenResult, error)
}

// PayoutClient abstracts the external disbursement collaborator.
type PayoutClient interface {
	RequestDisbursement(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}

// ChatSink posts system chat messages accompanying lifecycle transitions.
// Delivery is fire-and-forget: implementations buffer on failure, and callers
// log a returned error without rolling the transition back.
type ChatSink interface {
	PostSystemMessage(ctx context.Context, sessionID, body string) error
}

// SnapshotCache is the optional read-model cache in front of snapshot
// assembly. A nil cache and a cache miss behave identically.
type SnapshotCache interface {
	Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error)
	Set(ctx context.Context, snapshot *domain.SessionSnapshot) error
	Invalidate(ctx context.Context, sessionID string) error
}

// UpdateNotifier fans a "session changed" signal out to subscribed clients
// and drops any stale cached snapshot. Best-effort: failures are logged by
// the implementation and never surface to the triggering operation.
type UpdateNotifier interface {
	SessionUpdated(ctx context.Context, sessionID, kind, event string)
}
