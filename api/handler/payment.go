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
	paymentUC "github.com/titipin/backend/usecase/payment"
)

type PaymentHandler struct {
	baseHandler
	uc        *paymentUC.UseCase
	serverKey string
}

func NewPaymentHandler(uc *paymentUC.UseCase, serverKey string, adapter *httpcontext.Adapter, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		serverKey:   serverKey,
	}
}

// @Summary Open a gateway charge for the caller's bill
// @Tags payments
// @Router /api/v1/sessions/{id}/payments [post]
func (h *PaymentHandler) RequestToken(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.RequestToken(stdCtx, userID, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Gateway webhook callback
// @Tags payments
// @Router /api/v1/payments/notify [post]
func (h *PaymentHandler) Notify(ctx *fasthttp.RequestCtx) {
	var req transport.PaymentNotification
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Reference == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	if !gateway.VerifyNotificationSignature(req.Reference, req.Status, h.serverKey, req.Signature) {
		h.logger.Warn("webhook signature mismatch", zap.String("reference", req.Reference))
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "bad signature", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := h.uc.HandleGatewayNotification(stdCtx, req.Reference, domain.PaymentStatus(req.Status))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, record)
}
