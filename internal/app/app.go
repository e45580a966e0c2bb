package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rewind/internal/compose"
	"github.com/MrSnakeDoc/rewind/internal/config"
	"github.com/MrSnakeDoc/rewind/internal/discovery"
	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/httpserver"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rewind/internal/lock"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
	"github.com/MrSnakeDoc/rewind/internal/redis"
	"github.com/MrSnakeDoc/rewind/internal/rollback"
	"github.com/MrSnakeDoc/rewind/internal/scheduler"
	"github.com/MrSnakeDoc/rewind/internal/state"
	redisstore "github.com/MrSnakeDoc/rewind/internal/store/redis"
	"github.com/MrSnakeDoc/rewind/internal/version"
)

// App is the serve-mode composition root: admin HTTP server, instance
// refresher and rollback worker over one shared orchestrator.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	docker      *discovery.Docker
	refresher   *scheduler.InstanceRefresher
	worker      *scheduler.RollbackWorker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// A configured journal backend is a hard dependency in serve mode:
	// fail fast if Redis is unavailable. No configured backend just
	// disables run history.
	var redisClient *goredis.Client
	var journal *redisstore.Journal
	if cfg.JournalEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		journal = redisstore.NewJournal(redisClient, cfg.JournalHistory)
		loggerClient.Info("Redis journal initialized successfully")
	} else {
		loggerClient.Info("REWIND_REDIS_ADDR not set, run journal disabled")
	}

	conv := domain.Convention{Prefix: cfg.ServicePrefix}
	docker, err := discovery.Connect(conv, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to create docker client: %v", err)
		os.Exit(1)
	}

	manifests := manifest.NewStore(cfg.DeployDir, cfg.ManifestSuffix)

	orchOpts := rollback.Options{
		Manifests: manifests,
		Instances: docker,
		Applier:   compose.NewRunner(cfg.ComposeBin, cfg.ApplyTimeout, loggerClient),
		Locker:    lock.New(cfg.DeployDir),
		Service:   cfg.ServiceName,
		Logger:    loggerClient,
	}
	if journal != nil {
		orchOpts.Journal = journal
	}
	orchestrator := rollback.New(orchOpts)

	cache := state.NewMemory()

	// Refresh trigger is buffered so one manual refresh can queue while
	// a periodic one runs. The rollback trigger is unbuffered on
	// purpose: the API answers busy instead of stacking cutovers.
	refreshTrigger := make(chan struct{}, 1)
	rollbackTrigger := make(chan scheduler.RollbackRequest)

	refresher := scheduler.NewInstanceRefresher(
		docker,
		manifests,
		cache,
		cfg.ServiceName,
		cfg.RootDomain,
		loggerClient,
		cfg.RefreshInterval,
		refreshTrigger,
	)

	worker := scheduler.NewRollbackWorker(
		orchestrator,
		cache,
		refreshTrigger,
		loggerClient,
		rollbackTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RootDomain:      cfg.RootDomain,
		State:           cache,
		RedisClient:     redisClient,
		PingRuntime:     docker.Ping,
		RefreshTrigger:  refreshTrigger,
		RollbackTrigger: rollbackTrigger,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
	}
	if journal != nil {
		d.Journal = journal
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		docker:      docker,
		refresher:   refresher,
		worker:      worker,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Rewind v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Rewind %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start instance refresher (initial synchronous refresh, then periodic)
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start instance refresher: %w", err)
	}
	a.logger.Info("instance refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	// Start rollback worker
	if err := a.worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start rollback worker: %w", err)
	}
	a.logger.Info("rollback worker started",
		logger.String("service", a.cfg.ServiceName),
		logger.String("deploy_dir", a.cfg.DeployDir))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop the worker first so no new run starts during shutdown; a run
	// already in progress finishes.
	a.worker.Stop()
	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.docker.Close(); err != nil {
		a.logger.Warnf("failed to close docker client: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Rewind stopped cleanly")
	return nil
}
