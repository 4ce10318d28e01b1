package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/titipin/backend/domain"
)

// OrderInput carries one requested item.
type OrderInput struct {
	SessionID     string
	RequesterName string
	ItemName      string
	Quantity      int
	UnitPrice     int64
	Notes         string
}

// RequestItem places a pending order on behalf of a participant. The creator
// cannot order in their own session, expired sessions refuse new orders, and
// a requester who is not already in the session counts against maxTitip.
func (uc *UseCase) RequestItem(ctx context.Context, actorID string, input OrderInput) (*domain.Order, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized
	}

	snapshot, err := uc.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	session := snapshot.Session

	if session.IsCreator(actorID) {
		return nil, domain.ErrCreatorCannotOrder
	}
	if session.IsExpired(uc.now()) {
		return nil, domain.ErrSessionEnded
	}
	if input.ItemName == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "item name must not be blank")
	}
	if input.Quantity < 1 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "quantity must be at least one")
	}
	if input.UnitPrice < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unit price must not be negative")
	}

	requesters := snapshot.Requesters()
	if _, participating := requesters[actorID]; !participating && len(requesters) >= session.MaxTitip {
		return nil, domain.ErrQuotaFull
	}

	order := &domain.Order{
		SessionID:     input.SessionID,
		RequesterID:   actorID,
		RequesterName: input.RequesterName,
		ItemName:      input.ItemName,
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice,
		Notes:         input.Notes,
		Status:        domain.OrderStatusPending,
	}
	created, err := uc.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]string{"order_id": created.ID, "item": created.ItemName})
	uc.recordEvent(ctx, input.SessionID, actorID, domain.EventOrderRequested, payload)
	uc.notify(ctx, input.SessionID, "orders", domain.EventOrderRequested)
	return created, nil
}

// RespondToItem applies a creator decision to one order: accept, reject,
// bought, or revision. Flagging revision additionally posts a system chat
// line naming the item so the requester can reconfirm.
func (uc *UseCase) RespondToItem(ctx context.Context, actorID, sessionID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) || status == domain.OrderStatusPending {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unsupported order status")
	}

	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCreator(actorID) {
		return nil, domain.ErrNotCreator
	}

	order, err := uc.orders.GetByID(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	if err := uc.orders.UpdateStatus(ctx, sessionID, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	payload, _ := json.Marshal(map[string]string{"order_id": orderID, "status": string(status)})
	uc.recordEvent(ctx, sessionID, actorID, domain.EventOrderStatusChanged, payload)
	if status == domain.OrderStatusRevision {
		uc.postChat(ctx, sessionID, fmt.Sprintf("%q needs reconfirmation", order.ItemName))
	}
	uc.notify(ctx, sessionID, "orders", domain.EventOrderStatusChanged)
	return order, nil
}
