package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/spec-kit/pengaduan-service/internal/api/http"
	"github.com/spec-kit/pengaduan-service/internal/api/http/handlers"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/config"
	"github.com/spec-kit/pengaduan-service/internal/events"
	"github.com/spec-kit/pengaduan-service/internal/observability"
	"github.com/spec-kit/pengaduan-service/internal/persistence"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	"github.com/spec-kit/pengaduan-service/internal/service"
	"github.com/spec-kit/pengaduan-service/internal/storage"
	"github.com/spec-kit/pengaduan-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	photoStore, err := storage.NewDiskStore(cfg.Upload)
	if err != nil {
		logger.Fatal("upload directory unavailable", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(postgres.PoolHandle())
	complaintRepo := repository.NewComplaintRepository(postgres.PoolHandle())

	dispatcher := events.NewInMemoryDispatcher(logger)

	identityService := service.NewIdentityService(cfg.Auth, userRepo)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		Photos:        photoStore,
		Cache:         redis.Client,
		Dispatcher:    dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(identityService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := apihttp.NewApp(cfg.App, cfg.Upload)

	apihttp.RegisterMiddlewares(app, cfg.App, logger, metrics)
	apihttp.RegisterRoutes(app, apihttp.RouterDependencies{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgres, redis),
		Users:      handlers.NewUsersHandler(identityService),
		Complaints: handlers.NewComplaintsHandler(complaintService),
		Reports:    handlers.NewReportsHandler(complaintService),
		Auth:       authMiddleware,
		UploadDir:  cfg.Upload.Dir,
	})

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped cleanly")
}
