package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/pkg/httpcontext"
	redisRepo "github.com/titipin/backend/repository/redis"
)

// StreamHandler exposes per-session update fan-out over server-sent events,
// standing in for the realtime listeners a managed mobile backend provides.
type StreamHandler struct {
	baseHandler
	stream      *redisRepo.Stream
	maxDuration time.Duration
}

func NewStreamHandler(stream *redisRepo.Stream, adapter *httpcontext.Adapter, logger *zap.Logger, maxDuration time.Duration) *StreamHandler {
	if maxDuration <= 0 {
		maxDuration = 5 * time.Minute
	}
	return &StreamHandler{
		baseHandler: newBaseHandler(adapter, logger),
		stream:      stream,
		maxDuration: maxDuration,
	}
}

// @Summary Subscribe to session updates (SSE)
// @Tags sessions
// @Router /api/v1/sessions/{id}/stream [get]
func (h *StreamHandler) Subscribe(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}
	sessionID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	ctx.Response.Header.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")

	maxDuration := h.maxDuration
	stream := h.stream
	logger := h.logger

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		// The subscription is torn down when the writer returns, whether the
		// client went away or the max duration elapsed. Clients reconnect.
		streamCtx, cancel := context.WithTimeout(context.Background(), maxDuration)
		defer cancel()

		updates, err := stream.Subscribe(streamCtx, sessionID)
		if err != nil {
			logger.Warn("stream subscribe failed", zap.String("session_id", sessionID), zap.Error(err))
			return
		}

		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-streamCtx.Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case update, open := <-updates:
				if !open {
					return
				}
				payload, err := json.Marshal(update)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Kind, payload); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}
