package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/meshaid/backend/api/handler"
	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/internal/config"
	"github.com/meshaid/backend/internal/infrastructure/buffer"
	"github.com/meshaid/backend/internal/infrastructure/monitor"
	pgInfra "github.com/meshaid/backend/internal/infrastructure/postgres"
	redisInfra "github.com/meshaid/backend/internal/infrastructure/redis"
	"github.com/meshaid/backend/internal/middleware"
	"github.com/meshaid/backend/internal/router"
	"github.com/meshaid/backend/internal/services"
	"github.com/meshaid/backend/internal/services/lifecycle"
	"github.com/meshaid/backend/pkg/httpcontext"
	"github.com/meshaid/backend/pkg/logger"
	"github.com/meshaid/backend/repository/postgres"
	redisRepo "github.com/meshaid/backend/repository/redis"
	authUC "github.com/meshaid/backend/usecase/auth"
	escrowUC "github.com/meshaid/backend/usecase/escrow"
	identityUC "github.com/meshaid/backend/usecase/identity"
	incentiveUC "github.com/meshaid/backend/usecase/incentive"
	taskflowUC "github.com/meshaid/backend/usecase/taskflow"
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

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "projections")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	identityRepo := postgres.NewIdentityRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	poolRepo := postgres.NewPoolRepository(pool)
	nodeRepo := postgres.NewNodeRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Relief.SessionTTL)

	state := core.New(
		core.WithLogger(zapLogger),
		core.WithAdmins(cfg.Relief.AdminAddresses...),
		core.WithReporters(cfg.Relief.ReporterAddresses...),
		core.WithGateways(cfg.Relief.GatewayAddresses...),
	)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		identityRepo,
		taskRepo,
		poolRepo,
		nodeRepo,
		transferRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	authUseCase := authUC.New(state, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	identityUseCase := identityUC.New(state, identityRepo, bufferBridge, zapLogger)
	taskflowUseCase := taskflowUC.New(state, taskRepo, identityRepo, bufferBridge, zapLogger)
	escrowUseCase := escrowUC.New(state, poolRepo, transferRepo, bufferBridge, zapLogger)
	incentiveUseCase := incentiveUC.New(state, nodeRepo, bufferBridge, zapLogger)

	sweeper := services.NewExpirySweeper(taskflowUseCase, cfg.Relief.ExpirySchedule, zapLogger)
	sweeper.Start()
	manager.Register("expiry_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Relief.SessionTTL),
		Identity: apiHandler.NewIdentityHandler(identityUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskflowUseCase, ctxAdapter, zapLogger),
		Escrow:   apiHandler.NewEscrowHandler(escrowUseCase, ctxAdapter, zapLogger),
		Mesh:     apiHandler.NewMeshHandler(incentiveUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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
