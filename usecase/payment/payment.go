package payment

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
	"github.com/titipin/backend/usecase"
	sessionUC "github.com/titipin/backend/usecase/session"
)

// UseCase opens gateway charges for payers and ingests the webhook-driven
// status transitions the gateway reports back.
type UseCase struct {
	payments repository.PaymentRepository
	events   repository.EventRepository
	sessions *sessionUC.UseCase
	gateway  usecase.PaymentGateway
	notifier usecase.UpdateNotifier
	logger   *zap.Logger
}

func New(
	payments repository.PaymentRepository,
	events repository.EventRepository,
	sessions *sessionUC.UseCase,
	gateway usecase.PaymentGateway,
	notifier usecase.UpdateNotifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		payments: payments,
		events:   events,
		sessions: sessions,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// TokenResult is what the client needs to hand off to the gateway widget.
type TokenResult struct {
	Record *domain.PaymentRecord `json:"record"`
	Token  string                `json:"token"`
}

// RequestToken computes the payer's grand total and opens a charge for it.
// The payable amount is always derived from the current snapshot, never
// trusted from the client.
func (uc *UseCase) RequestToken(ctx context.Context, actorID, sessionID string) (*TokenResult, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized
	}

	snapshot, err := uc.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	canPay, err := domain.CanUserPay(snapshot, actorID)
	if err != nil {
		return nil, err
	}
	if !canPay {
		return nil, domain.NewError(domain.ErrCodeInvalid, "nothing to pay")
	}

	amount, err := domain.UserGrandTotal(snapshot, actorID)
	if err != nil {
		return nil, err
	}

	result, err := uc.gateway.RequestPaymentToken(ctx, usecase.PaymentTokenRequest{
		SessionID: sessionID,
		UserID:    actorID,
		Amount:    amount,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "payment gateway unavailable", err)
	}

	record := &domain.PaymentRecord{
		SessionID: sessionID,
		UserID:    actorID,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		Reference: result.Reference,
	}
	created, err := uc.payments.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, sessionID, actorID, domain.EventPaymentRequested, created.Reference)
	if uc.notifier != nil {
		uc.notifier.SessionUpdated(ctx, sessionID, "payments", domain.EventPaymentRequested)
	}
	return &TokenResult{Record: created, Token: result.Token}, nil
}

// HandleGatewayNotification applies a webhook-reported status transition to
// the payment identified by the gateway reference. Repeating a notification
// is harmless; the record just settles on the same status again.
func (uc *UseCase) HandleGatewayNotification(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.PaymentRecord, error) {
	switch status {
	case domain.PaymentStatusPending, domain.PaymentStatusSuccess,
		domain.PaymentStatusFailed, domain.PaymentStatusExpired:
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown payment status")
	}

	record, err := uc.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if record.Status == status {
		return record, nil
	}

	if err := uc.payments.UpdateStatus(ctx, reference, status); err != nil {
		return nil, err
	}
	record.Status = status

	uc.logger.Info("payment status updated",
		zap.String("session_id", record.SessionID),
		zap.String("reference", reference),
		zap.String("status", string(status)))

	uc.recordEvent(ctx, record.SessionID, record.UserID, domain.EventPaymentUpdated, reference)
	if uc.notifier != nil {
		uc.notifier.SessionUpdated(ctx, record.SessionID, "payments", domain.EventPaymentUpdated)
	}
	return record, nil
}

func (uc *UseCase) recordEvent(ctx context.Context, sessionID, actorID, name, reference string) {
	if uc.events == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"reference": reference})
	event := &domain.SessionEvent{
		SessionID: sessionID,
		ActorID:   actorID,
		Name:      name,
		Payload:   payload,
	}
	if err := uc.events.Append(ctx, event); err != nil {
		uc.logger.Warn("event append failed",
			zap.String("session_id", sessionID),
			zap.String("event", name),
			zap.Error(err))
	}
}
