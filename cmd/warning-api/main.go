package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/HungtdFPI/TaskforceAF/api/swagger"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
	"github.com/HungtdFPI/TaskforceAF/internal/service"
	"github.com/HungtdFPI/TaskforceAF/pkg/cache"
	"github.com/HungtdFPI/TaskforceAF/pkg/config"
	"github.com/HungtdFPI/TaskforceAF/pkg/database"
	"github.com/HungtdFPI/TaskforceAF/pkg/jobs"
	"github.com/HungtdFPI/TaskforceAF/pkg/logger"
)

// @title Academic Warning API
// @version 1.0.0
// @description Academic-warning report lifecycle, versioning and notifications
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	backends, err := openBackends(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("store setup failed", "error", err)
	}
	defer backends.Close()

	store := repository.NewFailoverStore(ctx, backends.primary, backends.fallback,
		repository.WithFailoverLogger(logr),
		repository.WithCallTimeout(cfg.Store.Timeout),
		repository.WithProbeSchedule(jobs.Schedule{Interval: cfg.Store.ProbeInterval, Jitter: cfg.Store.ProbeJitter}),
		repository.WithFailoverRecorder(metrics),
	)
	store.Start(ctx)
	defer store.Stop()
	metrics.TrackBackend(store.Name)

	deps := buildServices(cfg, logr, store, backends.cacheClient, metrics)
	router := newRouter(cfg, logr, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", store.Name())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	case <-ctx.Done():
		logr.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Error("graceful shutdown failed", zap.Error(err))
			_ = srv.Close()
		}
	}
}

type storeBackends struct {
	primary     repository.Store
	fallback    repository.Store
	cacheClient *redis.Client
	closers     []func() error
}

// Close releases every opened connection.
func (b *storeBackends) Close() {
	for _, closeFn := range b.closers {
		_ = closeFn()
	}
}

// openBackends connects the configured primary and fallback stores. Unreachable backends are not
// fatal; the failover store decides which one serves.
func openBackends(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*storeBackends, error) {
	b := &storeBackends{}

	needRedis := cfg.Store.Fallback == config.StoreRedis || cfg.Stats.CacheEnabled
	if needRedis {
		client, err := cache.NewRedis(ctx, cfg.Redis, cfg.Store.Timeout)
		if err != nil {
			logr.Warn("redis unreachable at startup", zap.Error(err))
		}
		b.cacheClient = client
		b.closers = append(b.closers, client.Close)
	}

	switch cfg.Store.Primary {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, cfg.Store.Timeout)
		if db == nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err != nil {
			logr.Warn("postgres unreachable at startup", zap.Error(err))
		}
		b.closers = append(b.closers, db.Close)
		pg := repository.NewPostgresStore(db)
		if cfg.Database.AutoMigrate && err == nil {
			if err := pg.EnsureSchema(ctx); err != nil {
				logr.Warn("schema migration failed", zap.Error(err))
			}
		}
		b.primary = pg
	case config.StoreMemory:
		b.primary = repository.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown STORE_PRIMARY %q", cfg.Store.Primary)
	}

	switch cfg.Store.Fallback {
	case config.StoreRedis:
		b.fallback = repository.NewRedisStore(b.cacheClient, cfg.Redis.KeyPrefix)
	case config.StoreMemory:
		b.fallback = repository.NewMemoryStore()
	case "", "none":
	default:
		return nil, fmt.Errorf("unknown STORE_FALLBACK %q", cfg.Store.Fallback)
	}
	return b, nil
}

type services struct {
	metrics       *service.MetricsService
	store         repository.Store
	tokens        *service.TokenService
	reports       *service.ReportService
	lifecycle     *service.LifecycleService
	versioning    *service.VersioningService
	notes         *service.NoteService
	notifications *service.NotificationService
	stats         *service.StatsService
	exports       *service.ExportService
}

func buildServices(cfg *config.Config, logr *zap.Logger, store repository.Store, cacheClient *redis.Client, metrics *service.MetricsService) *services {
	var cacheRepo service.CacheRepository
	if cacheClient != nil {
		cacheRepo = repository.NewCacheRepository(cacheClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, cfg.Redis.KeyPrefix, logr, cfg.Stats.CacheEnabled)
	stats := service.NewStatsService(store, cacheSvc, cfg.Stats.CacheTTL, logr)

	notifications := service.NewNotificationService(store, service.NotificationConfig{
		Cap:           cfg.Notifications.Cap,
		DefaultCampus: models.CampusCode(cfg.Notifications.DefaultCampus),
		PollInterval:  cfg.Notifications.PollInterval,
	}, logr, service.WithNotificationMetrics(metrics))

	validate := validator.New()
	reports := service.NewReportService(store, validate, logr,
		service.ReportServiceConfig{GuardFinalized: cfg.Reports.GuardFinalized},
		service.WithReportNotifier(notifications),
		service.WithReportStatsInvalidator(stats))

	return &services{
		metrics: metrics,
		store:   store,
		tokens: service.NewTokenService(service.TokenConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.TTL,
		}),
		reports: reports,
		lifecycle: service.NewLifecycleService(store, reports, logr,
			service.WithLifecycleValidator(validate),
			service.WithLifecycleNotifier(notifications),
			service.WithLifecycleStatsInvalidator(stats),
			service.WithLifecycleMetrics(metrics)),
		versioning: service.NewVersioningService(reports, store, notifications,
			service.VersioningConfig{PreviewLength: cfg.Notifications.PreviewLength}, logr,
			service.WithVersioningValidator(validate)),
		notes:         service.NewNoteService(reports, store, logr, service.WithNoteValidator(validate)),
		notifications: notifications,
		stats:         stats,
		exports:       service.NewExportService(reports, cfg.Reports.ExportEnabled, logr, nil, nil),
	}
}
