package disbursement

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
	"github.com/titipin/backend/usecase"
	sessionUC "github.com/titipin/backend/usecase/session"
)

// UseCase validates payout eligibility, snapshots the session's finances into
// an append-only attempt record, and drives the external payout collaborator.
type UseCase struct {
	disbursements repository.DisbursementRepository
	events        repository.EventRepository
	sessions      *sessionUC.UseCase
	payout        usecase.PayoutClient
	chat          usecase.ChatSink
	notifier      usecase.UpdateNotifier
	calc          domain.Calculator
	logger        *zap.Logger
}

func New(
	disbursements repository.DisbursementRepository,
	events repository.EventRepository,
	sessions *sessionUC.UseCase,
	payout usecase.PayoutClient,
	chat usecase.ChatSink,
	notifier usecase.UpdateNotifier,
	calc domain.Calculator,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		disbursements: disbursements,
		events:        events,
		sessions:      sessions,
		payout:        payout,
		chat:          chat,
		notifier:      notifier,
		calc:          calc,
		logger:        logger,
	}
}

// Request asks the payout collaborator to transfer the session's net
// collected amount to the creator. A repeat call while an attempt is pending,
// processing or already successful is an idempotent no-op returning that
// attempt; a failed attempt is retried by calling Request again, which
// appends a fresh record rather than mutating the failed one.
func (uc *UseCase) Request(ctx context.Context, actorID, sessionID, destination string) (*domain.DisbursementRecord, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized
	}

	snapshot, err := uc.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := snapshot.Session

	if !session.IsCreator(actorID) {
		return nil, domain.ErrNotCreator
	}
	if !session.IsClosed() {
		return nil, domain.ErrSessionStillOpen
	}

	// Double-request is a no-op returning the attempt already underway.
	if latest := snapshot.LatestDisbursement(); latest != nil {
		if latest.InFlight() || latest.Status == domain.DisbursementStatusSuccess {
			return latest, nil
		}
	}

	collected, err := domain.TotalCollectedGoodsPrice(snapshot)
	if err != nil {
		return nil, err
	}
	fees, err := domain.TotalPaymentFees(snapshot)
	if err != nil {
		return nil, err
	}
	net, err := uc.calc.NetDisbursementAmount(snapshot)
	if err != nil {
		return nil, err
	}
	if net <= 0 {
		return nil, domain.ErrNothingToDisburse
	}

	record := &domain.DisbursementRecord{
		SessionID:      sessionID,
		CreatorID:      actorID,
		CollectedTotal: collected,
		PaymentFees:    fees,
		Fee:            uc.calc.DisbursementFee(),
		NetAmount:      net,
		Destination:    destination,
		Status:         domain.DisbursementStatusPending,
	}
	created, err := uc.disbursements.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	result, err := uc.payout.RequestDisbursement(ctx, usecase.PayoutRequest{
		SessionID:      sessionID,
		DisbursementID: created.ID,
		Destination:    destination,
		Amount:         net,
	})
	if err != nil {
		// Mark the attempt failed so a retry appends a new one; the original
		// stays in the log untouched.
		if updateErr := uc.disbursements.UpdateStatus(ctx, created.ID, domain.DisbursementStatusFailed, ""); updateErr != nil {
			uc.logger.Error("failed to mark disbursement attempt failed",
				zap.String("disbursement_id", created.ID), zap.Error(updateErr))
		}
		uc.invalidate(ctx, sessionID)
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "payout gateway unavailable", err)
	}

	status := result.Status
	if status == "" {
		status = domain.DisbursementStatusProcessing
	}
	if err := uc.disbursements.UpdateStatus(ctx, created.ID, status, result.Reference); err != nil {
		return nil, err
	}
	created.Status = status
	created.Reference = result.Reference

	uc.recordEvent(ctx, sessionID, actorID, domain.EventDisbursementRequested, created.ID)
	if uc.chat != nil {
		if err := uc.chat.PostSystemMessage(ctx, sessionID, "disbursement requested"); err != nil {
			uc.logger.Warn("system message delivery failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	uc.invalidate(ctx, sessionID)
	return created, nil
}

// HandlePayoutNotification applies a gateway-reported transition to one
// attempt. Terminal states cannot regress.
func (uc *UseCase) HandlePayoutNotification(ctx context.Context, sessionID, disbursementID string, status domain.DisbursementStatus) error {
	switch status {
	case domain.DisbursementStatusProcessing, domain.DisbursementStatusSuccess, domain.DisbursementStatusFailed:
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown disbursement status")
	}

	if err := uc.disbursements.UpdateStatus(ctx, disbursementID, status, ""); err != nil {
		return err
	}

	uc.recordEvent(ctx, sessionID, "system", domain.EventDisbursementUpdated, disbursementID)
	uc.invalidate(ctx, sessionID)
	return nil
}

func (uc *UseCase) invalidate(ctx context.Context, sessionID string) {
	if uc.notifier != nil {
		uc.notifier.SessionUpdated(ctx, sessionID, "disbursement", domain.EventDisbursementUpdated)
	}
}

func (uc *UseCase) recordEvent(ctx context.Context, sessionID, actorID, name, disbursementID string) {
	if uc.events == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"disbursement_id": disbursementID})
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
