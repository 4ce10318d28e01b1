package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/titipin/backend/internal/infrastructure/outbox"
)

// Monitor probes the primary stores on an interval. The outbox processor
// consults it before draining, so buffered chat messages are only replayed
// once Postgres is actually back.
type Monitor struct {
	pg     *pgxpool.Pool
	redis  *redislib.Client
	outbox *outbox.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis *redislib.Client, outbox *outbox.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	outboxOK, outboxSize := m.checkOutbox()
	next := Status{
		PostgreSQL: m.ping(3*time.Second, m.pingPostgres),
		Redis:      m.ping(2*time.Second, m.pingRedis),
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if prev.Healthy() != next.Healthy() && !prev.LastCheck.IsZero() {
		if next.Healthy() {
			m.logger.Info("dependencies recovered", zap.Int("outbox_size", outboxSize))
		} else {
			m.logger.Warn("dependencies degraded",
				zap.Bool("postgresql", next.PostgreSQL),
				zap.Bool("redis", next.Redis))
		}
	}
}

func (m *Monitor) ping(timeout time.Duration, probe func(context.Context) error) bool {
	if probe == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return probe(ctx) == nil
}

func (m *Monitor) pingPostgres(ctx context.Context) error {
	if m.pg == nil {
		return context.Canceled
	}
	return m.pg.Ping(ctx)
}

func (m *Monitor) pingRedis(ctx context.Context) error {
	if m.redis == nil {
		return context.Canceled
	}
	return m.redis.Ping(ctx).Err()
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
