package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/api/transport"
	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/pkg/httpcontext"
	"github.com/titipin/backend/repository"
	sessionUC "github.com/titipin/backend/usecase/session"
)

type SessionHandler struct {
	baseHandler
	uc *sessionUC.UseCase
}

func NewSessionHandler(uc *sessionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Open a session
// @Tags sessions
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.SessionCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, userID, sessionUC.CreateInput{
		CircleID:        req.CircleID,
		CreatorName:     req.CreatorName,
		Title:           req.Title,
		Description:     req.Description,
		LocationName:    req.LocationName,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		DurationMinutes: req.DurationMinutes,
		MaxTitip:        req.MaxTitip,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary List sessions
// @Tags sessions
// @Router /api/v1/sessions [get]
func (h *SessionHandler) List(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	filter := repository.SessionFilter{
		CircleID:  string(ctx.QueryArgs().Peek("circle_id")),
		CreatorID: string(ctx.QueryArgs().Peek("creator_id")),
		Status:    domain.SessionStatus(ctx.QueryArgs().Peek("status")),
		Limit:     parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:    parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sessions, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	meta := transport.ListMeta{Limit: filter.Limit, Offset: filter.Offset, Count: len(sessions)}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(sessions, meta))
}

// @Summary Load a session snapshot with the viewer's settlement summary
// @Tags sessions
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(ctx *fasthttp.RequestCtx) {
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

	snapshot, err := h.uc.Load(stdCtx, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	summary, err := h.uc.Summarize(snapshot, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"session":       snapshot.Session,
		"orders":        snapshot.Orders,
		"payments":      snapshot.Payments,
		"disbursements": snapshot.Disbursements,
		"summary":       summary,
	})
}

// @Summary Toggle revision mode
// @Tags sessions
// @Router /api/v1/sessions/{id}/revision [post]
func (h *SessionHandler) ToggleRevision(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	var req transport.RevisionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.ToggleRevision(stdCtx, userID, sessionID, req.Enabled)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Close a session
// @Tags sessions
// @Router /api/v1/sessions/{id}/finish [post]
func (h *SessionHandler) Finish(ctx *fasthttp.RequestCtx) {
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

	session, err := h.uc.Finish(stdCtx, userID, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Lifecycle event log
// @Tags sessions
// @Router /api/v1/sessions/{id}/events [get]
func (h *SessionHandler) Events(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.Events(stdCtx, sessionID, parseInt(string(ctx.QueryArgs().Peek("limit")), 50))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}
