package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/api/transport"
	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/internal/infrastructure/gateway"
	"github.com/titipin/backend/pkg/httpcontext"
	disbursementUC "github.com/titipin/backend/usecase/disbursement"
)

type DisbursementHandler struct {
	baseHandler
	uc        *disbursementUC.UseCase
	serverKey string
}

func NewDisbursementHandler(uc *disbursementUC.UseCase, serverKey string, adapter *httpcontext.Adapter, logger *zap.Logger) *DisbursementHandler {
	return &DisbursementHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		serverKey:   serverKey,
	}
}

// @Summary Request (or retry) the session payout
// @Tags disbursements
// @Router /api/v1/sessions/{id}/disbursements [post]
func (h *DisbursementHandler) Request(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	var req transport.DisbursementRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Destination == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing payout destination", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := h.uc.Request(stdCtx, userID, sessionID, req.Destination)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, record)
}

// @Summary Gateway payout webhook callback
// @Tags disbursements
// @Router /api/v1/disbursements/notify [post]
func (h *DisbursementHandler) Notify(ctx *fasthttp.RequestCtx) {
	var req transport.PayoutNotification
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Reference == "" || req.SessionID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	if !gateway.VerifyNotificationSignature(req.Reference, req.Status, h.serverKey, req.Signature) {
		h.logger.Warn("payout webhook signature mismatch", zap.String("reference", req.Reference))
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "bad signature", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.HandlePayoutNotification(stdCtx, req.SessionID, req.Reference, domain.DisbursementStatus(req.Status)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
