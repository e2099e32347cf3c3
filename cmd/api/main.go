package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/pet-adoption/internal/api/http"
	"github.com/spec-kit/pet-adoption/internal/api/http/handlers"
	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/config"
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/observability"
	"github.com/spec-kit/pet-adoption/internal/persistence"
	"github.com/spec-kit/pet-adoption/internal/repository"
	"github.com/spec-kit/pet-adoption/internal/repository/memory"
	"github.com/spec-kit/pet-adoption/internal/service"
	"github.com/spec-kit/pet-adoption/internal/storage"
	"github.com/spec-kit/pet-adoption/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	var relay *events.RedisRelay
	if redis.Enabled() {
		relay = events.NewRedisRelay(redis.Client, cfg.Redis.EventsChannel, logger)
	}
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notificationService, relay)

	images, uploadsPrefix, uploadsDir := buildImageStore(ctx, cfg, logger)

	authService, err := service.NewAuthService(*cfg, store)
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	if cfg.Admin.Enabled() {
		created, err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		if created {
			logger.Info("admin account created", zap.String("email", cfg.Admin.Email))
		}
	}

	petService := service.NewPetService(service.PetDependencies{
		Store:         store,
		Images:        images,
		Dispatcher:    dispatcher,
		Logger:        logger,
		MaxImageBytes: int64(cfg.Upload.MaxBytes),
	})
	adoptionService := service.NewAdoptionService(store, dispatcher)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(httptransport.AppOptions{
		Name: cfg.App.Name,
		// room for the multipart envelope and text fields around the image
		BodyLimit:        cfg.Upload.MaxBytes + 1<<20,
		RequestTimeout:   cfg.App.RequestTimeout(),
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
		Logger:           logger,
		Metrics:          metrics,
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Pets:           handlers.NewPetsHandler(petService),
		Adoptions:      handlers.NewAdoptionsHandler(adoptionService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		UploadsPrefix:  uploadsPrefix,
		UploadsDir:     uploadsDir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildImageStore returns the configured store plus the directory to serve
// statically, which is empty for remote drivers.
func buildImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ImageStore, string, string) {
	if cfg.Storage.Driver == config.StorageDriverS3 {
		client, err := storage.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init s3 client", zap.Error(err))
		}
		logger.Info("storing images in s3", zap.String("bucket", cfg.Storage.S3Bucket))
		return storage.NewS3ImageStore(client, cfg.Storage), "", ""
	}

	local, err := storage.NewLocalImageStore(cfg.Storage.LocalDir, cfg.Storage.PublicPrefix)
	if err != nil {
		logger.Fatal("failed to init image directory", zap.Error(err))
	}
	return local, local.Prefix(), local.Dir()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
