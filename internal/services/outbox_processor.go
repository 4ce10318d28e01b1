package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/internal/infrastructure/outbox"
	"github.com/titipin/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxProcessor redelivers buffered side effects once the primary stores
// are reachable again.
type OutboxProcessor struct {
	store    *outbox.Store
	monitor  ConnectionHealth
	messages repository.MessageRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	messages repository.MessageRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboxProcessor{
		store:    store,
		monitor:  monitor,
		messages: messages,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
		if err := op.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
			op.logger.Warn("outbox cleanup failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Enqueue parks an item for later delivery.
func (op *OutboxProcessor) Enqueue(item outbox.Item) error {
	if op == nil || op.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}
	return op.store.Enqueue(item)
}

// Size returns the number of pending items.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// Drain processes pending items synchronously.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}
	if op.monitor != nil && !op.monitor.IsOnline() {
		op.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := op.store.GetBatch(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := op.processItem(ctx, item); err != nil {
			op.logger.Error("failed to process outbox item",
				zap.String("item_id", item.ID),
				zap.String("kind", item.Kind),
				zap.Error(err))

			item.Retries++
			if item.Retries >= op.cfg.MaxRetries {
				op.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = op.store.Remove(item)
				continue
			}

			if err := op.store.Remove(item); err != nil {
				op.logger.Warn("failed to remove outbox item", zap.Error(err))
			}
			if err := op.store.Requeue(item); err != nil {
				op.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := op.store.Remove(item); err != nil {
			op.logger.Warn("failed to purge processed outbox item", zap.Error(err))
		}
	}
	return nil
}

func (op *OutboxProcessor) processItem(ctx context.Context, item outbox.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Kind {
	case outbox.KindMessage:
		var message domain.SystemMessage
		if err := json.Unmarshal(item.Data, &message); err != nil {
			return err
		}
		return op.messages.Create(ctx, &message)
	default:
		return fmt.Errorf("unsupported outbox kind %s", item.Kind)
	}
}
