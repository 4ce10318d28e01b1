package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/titipin/backend/repository"
	sessionUC "github.com/titipin/backend/usecase/session"
)

// SweeperConfig controls the expiry sweep cadence.
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// ExpirySweeper is the server-side stand-in for the creator's countdown
// timer: it periodically closes open sessions whose duration has elapsed.
// Closing is idempotent, so racing with a creator's manual finish is safe.
type ExpirySweeper struct {
	sessions repository.SessionRepository
	uc       *sessionUC.UseCase
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SweeperConfig
}

func NewExpirySweeper(
	sessions repository.SessionRepository,
	uc *sessionUC.UseCase,
	logger *zap.Logger,
	cfg SweeperConfig,
) *ExpirySweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sw := &ExpirySweeper{
		sessions: sessions,
		uc:       uc,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sw.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sw.Sweep(ctx); err != nil {
			sw.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})

	return sw
}

// Start launches the cron scheduler.
func (sw *ExpirySweeper) Start() {
	if sw == nil || sw.cron == nil {
		return
	}
	sw.cron.Start()
	sw.logger.Info("expiry sweeper started")
}

// Stop gracefully stops the scheduler.
func (sw *ExpirySweeper) Stop(ctx context.Context) {
	if sw == nil || sw.cron == nil {
		return
	}
	stopCtx := sw.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sw.logger.Info("expiry sweeper stopped")
}

// Sweep closes every open session past its computed expiry.
func (sw *ExpirySweeper) Sweep(ctx context.Context) error {
	expired, err := sw.sessions.ListOpenExpired(ctx, time.Now(), sw.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, session := range expired {
		if _, err := sw.uc.CloseExpired(ctx, session.ID); err != nil {
			sw.logger.Warn("failed to close expired session",
				zap.String("session_id", session.ID),
				zap.Error(err))
			continue
		}
		sw.logger.Info("expired session closed", zap.String("session_id", session.ID))
	}
	return nil
}
