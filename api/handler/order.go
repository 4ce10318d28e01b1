package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/api/transport"
	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/pkg/httpcontext"
	sessionUC "github.com/titipin/backend/usecase/session"
)

type OrderHandler struct {
	baseHandler
	uc *sessionUC.UseCase
}

func NewOrderHandler(uc *sessionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Request an item
// @Tags orders
// @Router /api/v1/sessions/{id}/orders [post]
func (h *OrderHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	var req transport.OrderCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.uc.RequestItem(stdCtx, userID, sessionUC.OrderInput{
		SessionID:     sessionID,
		RequesterName: req.RequesterName,
		ItemName:      req.ItemName,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, order)
}

// @Summary Respond to an item (accept, reject, bought, revision)
// @Tags orders
// @Router /api/v1/sessions/{id}/orders/{orderID} [patch]
func (h *OrderHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	orderID, ok := h.pathParam(ctx, "orderID")
	if !ok {
		return
	}

	var req transport.OrderStatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.uc.RespondToItem(stdCtx, userID, sessionID, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, order)
}
