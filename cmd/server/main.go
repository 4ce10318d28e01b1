package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/titipin/backend/api/handler"
	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/internal/config"
	"github.com/titipin/backend/internal/infrastructure/gateway"
	"github.com/titipin/backend/internal/infrastructure/monitor"
	"github.com/titipin/backend/internal/infrastructure/outbox"
	pgInfra "github.com/titipin/backend/internal/infrastructure/postgres"
	redisInfra "github.com/titipin/backend/internal/infrastructure/redis"
	"github.com/titipin/backend/internal/middleware"
	"github.com/titipin/backend/internal/router"
	"github.com/titipin/backend/internal/services"
	"github.com/titipin/backend/internal/services/lifecycle"
	"github.com/titipin/backend/pkg/httpcontext"
	"github.com/titipin/backend/pkg/logger"
	"github.com/titipin/backend/repository/postgres"
	redisRepo "github.com/titipin/backend/repository/redis"
	disbursementUC "github.com/titipin/backend/usecase/disbursement"
	paymentUC "github.com/titipin/backend/usecase/payment"
	sessionUC "github.com/titipin/backend/usecase/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sessionRepo := postgres.NewSessionRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	disbursementRepo := postgres.NewDisbursementRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)

	stream := redisRepo.NewStream(redisClient)
	snapshotCache := redisRepo.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		messageRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	chatSink := services.NewChatSink(messageRepo, stream, outboxProcessor, zapLogger)
	notifier := services.NewNotifier(snapshotCache, stream, zapLogger)
	calculator := domain.NewCalculator(cfg.Settlement.DisbursementFee)
	gatewayClient := gateway.NewClient(cfg.Gateway, zapLogger)

	sessionUseCase := sessionUC.New(sessionUC.Deps{
		Sessions:      sessionRepo,
		Orders:        orderRepo,
		Payments:      paymentRepo,
		Disbursements: disbursementRepo,
		Events:        eventRepo,
		Cache:         snapshotCache,
		Chat:          chatSink,
		Notifier:      notifier,
		Calculator:    calculator,
		Logger:        zapLogger,
	})
	paymentUseCase := paymentUC.New(paymentRepo, eventRepo, sessionUseCase, gatewayClient, notifier, zapLogger)
	disbursementUseCase := disbursementUC.New(
		disbursementRepo,
		eventRepo,
		sessionUseCase,
		gatewayClient,
		chatSink,
		notifier,
		calculator,
		zapLogger,
	)

	sweeper := services.NewExpirySweeper(sessionRepo, sessionUseCase, zapLogger, services.SweeperConfig{
		Interval:  cfg.Expiry.SweepInterval,
		BatchSize: cfg.Expiry.BatchSize,
	})
	sweeper.Start()
	manager.Register("expiry_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Session:      apiHandler.NewSessionHandler(sessionUseCase, ctxAdapter, zapLogger),
		Order:        apiHandler.NewOrderHandler(sessionUseCase, ctxAdapter, zapLogger),
		Payment:      apiHandler.NewPaymentHandler(paymentUseCase, cfg.Gateway.ServerKey, ctxAdapter, zapLogger),
		Disbursement: apiHandler.NewDisbursementHandler(disbursementUseCase, cfg.Gateway.ServerKey, ctxAdapter, zapLogger),
		Stream:       apiHandler.NewStreamHandler(stream, ctxAdapter, zapLogger, 5*time.Minute),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
