package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/quietloop/orchestrator/internal/audit"
	"github.com/quietloop/orchestrator/internal/config"
	"github.com/quietloop/orchestrator/internal/httpserver"
	"github.com/quietloop/orchestrator/internal/jobs"
	"github.com/quietloop/orchestrator/internal/platform"
	"github.com/quietloop/orchestrator/internal/telemetry"
	"github.com/quietloop/orchestrator/pkg/apikey"
	"github.com/quietloop/orchestrator/pkg/backoff"
	"github.com/quietloop/orchestrator/pkg/connector"
	"github.com/quietloop/orchestrator/pkg/crypto"
	"github.com/quietloop/orchestrator/pkg/dispatcher"
	"github.com/quietloop/orchestrator/pkg/indexerhealth"
	"github.com/quietloop/orchestrator/pkg/notify"
	"github.com/quietloop/orchestrator/pkg/priority"
	"github.com/quietloop/orchestrator/pkg/queue"
	"github.com/quietloop/orchestrator/pkg/registry"
	"github.com/quietloop/orchestrator/pkg/throttle"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the appropriate mode (api, worker, or tick).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting orchestrator",
		"mode", cfg.Mode,
		"listen", cfg.ListenAddr(),
	)

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "orchestrator", "dev")
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("shutting down tracer", "error", err)
		}
	}()

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry()

	deps, err := wireDependencies(cfg, pool, rdb, logger)
	if err != nil {
		return fmt.Errorf("wiring dependencies: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, pool, rdb, metricsReg, deps)
	case "worker":
		return runWorker(ctx, cfg, logger, deps)
	case "tick":
		deps.jobsRunner.EnqueueOnce(ctx)
		deps.jobsRunner.DispatchOnce(ctx)
		return nil
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// dependencies bundles every domain service app.go wires, shared between the
// api and worker modes.
type dependencies struct {
	connectorStore   *connector.Store
	connectorService *connector.Service
	registryService  *registry.Service
	queueService     *queue.Service
	dispatcherSvc    *dispatcher.Service
	indexerPoller    *indexerhealth.Poller
	notifyService    *notify.Service
	notifyChannels   *notify.ChannelStore
	notifyHistory    *notify.HistoryStore
	notifyBatcher    *notify.BatchFlusher
	channelManager   *notify.ChannelManager
	apikeyService    *apikey.Service
	jobsRunner       *jobs.Runner
	secretBox        *crypto.Box

	indexerHealthPollInterval time.Duration
	staleThreshold            time.Duration
	enqueueInterval           time.Duration
	reenqueueInterval         time.Duration
	orphanInterval            time.Duration
	notifyFlushInterval       time.Duration
}

func wireDependencies(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger) (*dependencies, error) {
	secretBox, err := crypto.NewBox(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("creating secret box: %w", err)
	}

	connectorStore := connector.NewStore(pool)
	connectorService := connector.NewService(connectorStore, secretBox)

	registryStore := registry.NewStore(pool)
	cooldownPolicy := backoff.Policy{
		BaseDelay:   mustParseDuration(cfg.CooldownBaseDelay, time.Hour),
		Multiplier:  cfg.CooldownMultiplier,
		MaxDelay:    mustParseDuration(cfg.CooldownMaxDelay, 24*time.Hour),
		MaxAttempts: cfg.MaxAttempts,
		Jitter:      cfg.CooldownJitter,
	}
	backlogPolicy := backoff.BacklogPolicy{
		Enabled:        cfg.BacklogEnabled,
		TierDelaysDays: cfg.BacklogTierDelaysDays,
		MaxTier:        cfg.BacklogMaxTier,
		Jitter:         cfg.CooldownJitter,
	}
	registryService := registry.NewService(registryStore, cooldownPolicy, backlogPolicy, rand.New(rand.NewSource(time.Now().UnixNano())))

	queueStore := queue.NewStore(pool)
	weights := priority.Weights{
		ContentAge:      cfg.WeightContentAge,
		MissingDuration: cfg.WeightMissingDuration,
		UserPriority:    cfg.WeightUserPriority,
		FailurePenalty:  cfg.WeightFailurePenalty,
		GapBonus:        cfg.WeightGapBonus,
		SpecialsPenalty: cfg.WeightSpecialsPenalty,
		FileLostBonus:   cfg.WeightFileLostBonus,
	}
	constants := priority.Constants{
		Base:                   cfg.BaseScore,
		MaxContentAgeDays:      cfg.MaxContentAgeDays,
		MaxMissingDurationDays: cfg.MaxMissingDurationDays,
		FileLostDecayDays:      cfg.FileLostDecayDays,
	}
	queueService := queue.NewService(queueStore, connectorStore, registryStore, queue.NewBasicContentLookup(), weights, constants)

	indexerHealthStore := indexerhealth.NewStore(pool)
	connectorRateLimit := throttle.NewConnectorThrottle(pool)

	connectorTimeout := mustParseDuration(cfg.ConnectorTimeout, 15*time.Second)
	staleThreshold := mustParseDuration(cfg.IndexerHealthStaleAfter, 10*time.Minute)
	dispatcherSvc := dispatcher.NewService(connectorStore, connectorRateLimit, indexerHealthStore, staleThreshold, secretBox, connectorTimeout, logger)

	instances := parseIndexerManagerInstances(cfg.IndexerManagerInstances)
	indexerPoller := indexerhealth.NewPoller(indexerHealthStore, instances, connectorTimeout, logger)

	notifyChannels := notify.NewChannelStore(pool)
	notifyHistory := notify.NewHistoryStore(pool)
	notifyService := notify.NewService(notifyChannels, notifyHistory, secretBox)
	notifyBatcher := notify.NewBatchFlusher(notifyChannels, notifyHistory, notifyService, logger)
	channelManager := notify.NewChannelManager(notifyChannels, secretBox)

	apikeyService := apikey.NewService(pool, logger)

	orphanMaxAge := time.Duration(cfg.OrphanMaxAgeMinutes) * time.Minute
	jobsRunner := jobs.NewRunner(connectorStore, registryService, queueService, dispatcherSvc, notifyService, logger, orphanMaxAge)

	return &dependencies{
		connectorStore:   connectorStore,
		connectorService: connectorService,
		registryService:  registryService,
		queueService:     queueService,
		dispatcherSvc:    dispatcherSvc,
		indexerPoller:    indexerPoller,
		notifyService:    notifyService,
		notifyChannels:   notifyChannels,
		notifyHistory:    notifyHistory,
		notifyBatcher:    notifyBatcher,
		channelManager:   channelManager,
		apikeyService:    apikeyService,
		jobsRunner:       jobsRunner,
		secretBox:        secretBox,

		indexerHealthPollInterval: mustParseDuration(cfg.IndexerHealthPollInterval, 5*time.Minute),
		staleThreshold:            staleThreshold,
		enqueueInterval:           mustParseDuration(cfg.EnqueueInterval, time.Minute),
		reenqueueInterval:         mustParseDuration(cfg.ReenqueueCooldownInterval, time.Minute),
		orphanInterval:            mustParseDuration(cfg.OrphanCleanupInterval, 5*time.Minute),
		notifyFlushInterval:       mustParseDuration(cfg.NotifyBatchFlushInterval, 30*time.Second),
	}, nil
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, deps *dependencies) error {
	auditWriter := audit.NewWriter(pool, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	srv := httpserver.NewServer(cfg, logger, pool, rdb, metricsReg)

	connectorHandler := connector.NewHandler(logger, auditWriter, deps.connectorService)
	srv.APIRouter.Mount("/connectors", connectorHandler.Routes())

	channelHandler := notify.NewChannelHandler(logger, auditWriter, deps.channelManager)
	srv.APIRouter.Mount("/channels", channelHandler.Routes())

	apikeyHandler := apikey.NewHandler(logger, auditWriter, pool)
	srv.APIRouter.Mount("/api-keys", apikeyHandler.Routes())

	auditHandler := audit.NewHandler(pool, logger)
	srv.APIRouter.Mount("/audit-log", auditHandler.Routes())

	tickHandler := jobs.NewHandler(logger, deps.jobsRunner)
	srv.APIRouter.Mount("/tick", tickHandler.Routes())

	// Scoped, independently rate-limited API keys for external callers who
	// should not hold the shared admin key (spec.md 4.F's inbound variant).
	// They get a read-only connector list and their own manual-tick trigger.
	apiKeyLimiter := throttle.NewAPIKeyLimiter(rdb)
	srv.Router.Route("/api/v1/external", func(r chi.Router) {
		r.Use(apikey.ScopedAuth(deps.apikeyService, apiKeyLimiter))
		r.Get("/connectors", connectorHandler.HandleListPublic)
		r.Mount("/tick", tickHandler.Routes())
	})

	// Periodic background jobs run alongside the API server so a single
	// "api" process is enough for small deployments; larger deployments run
	// a dedicated "worker" process instead and should not also run "api".
	go runBackgroundJobs(ctx, deps)

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *dependencies) error {
	logger.Info("worker started")
	runBackgroundJobs(ctx, deps)
	return nil
}

// runBackgroundJobs blocks running every periodic loop until ctx is done.
func runBackgroundJobs(ctx context.Context, deps *dependencies) {
	go deps.jobsRunner.RunEnqueueLoop(ctx, deps.enqueueInterval)
	go deps.jobsRunner.RunDispatchLoop(ctx, 15*time.Second)
	go deps.jobsRunner.RunReenqueueCooldownLoop(ctx, deps.reenqueueInterval)
	go deps.jobsRunner.RunOrphanCleanupLoop(ctx, deps.orphanInterval)
	go deps.indexerPoller.Run(ctx, deps.indexerHealthPollInterval)
	go deps.notifyBatcher.Run(ctx, deps.notifyFlushInterval)
	<-ctx.Done()
}

func mustParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// parseIndexerManagerInstances decodes "id|baseURL|apiKey" entries from config.
func parseIndexerManagerInstances(entries []string) []indexerhealth.Instance {
	instances := make([]indexerhealth.Instance, 0, len(entries))
	for _, e := range entries {
		parts := strings.SplitN(e, "|", 3)
		if len(parts) != 3 {
			continue
		}
		instances = append(instances, indexerhealth.Instance{ID: parts[0], BaseURL: parts[1], APIKey: parts[2]})
	}
	return instances
}
