package services

import (
	"context"

	"go.uber.org/zap"

	redisRepo "github.com/titipin/backend/repository/redis"
	"github.com/titipin/backend/usecase"
)

// Notifier drops the stale cached snapshot and fans a change signal out to
// subscribers after every write. Best-effort on both counts: a failed
// invalidation only delays convergence until the cache TTL, and a failed
// publish only delays clients until their next reload.
type Notifier struct {
	cache  usecase.SnapshotCache
	stream *redisRepo.Stream
	logger *zap.Logger
}

func NewNotifier(cache usecase.SnapshotCache, stream *redisRepo.Stream, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		cache:  cache,
		stream: stream,
		logger: logger,
	}
}

func (n *Notifier) SessionUpdated(ctx context.Context, sessionID, kind, event string) {
	if n.cache != nil {
		if err := n.cache.Invalidate(ctx, sessionID); err != nil {
			n.logger.Warn("snapshot invalidation failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
	if n.stream != nil {
		err := n.stream.Publish(ctx, redisRepo.Update{
			SessionID: sessionID,
			Kind:      redisRepo.UpdateKind(kind),
			Event:     event,
		})
		if err != nil {
			n.logger.Warn("update publish failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
}

var _ usecase.UpdateNotifier = (*Notifier)(nil)
