package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/config"
	"github.com/ekaya-inc/ekaya-content/pkg/database"
	"github.com/ekaya-inc/ekaya-content/pkg/handlers"
	"github.com/ekaya-inc/ekaya-content/pkg/jobstatus"
	"github.com/ekaya-inc/ekaya-content/pkg/llm"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
	"github.com/ekaya-inc/ekaya-content/pkg/middleware"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/prompts"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
	"github.com/ekaya-inc/ekaya-content/pkg/retry"
	"github.com/ekaya-inc/ekaya-content/pkg/scheduler"
	"github.com/ekaya-inc/ekaya-content/pkg/seo"
	"github.com/ekaya-inc/ekaya-content/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	runOnce := flag.String("run", "", "run one job (generate-daily, analyze-nightly, rewrite-nightly) and exit")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("timezone", cfg.Scheduler.Timezone))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *runOnce, logger); err != nil {
		logger.Fatal("Exiting", zap.String("error", logging.SanitizeError(err)))
	}
}

func run(ctx context.Context, cfg *config.Config, runOnce string, logger *zap.Logger) error {
	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		_ = sqlDB.Close()
		return err
	}
	_ = sqlDB.Close()

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var store jobstatus.Store
	if redisClient != nil {
		store = jobstatus.NewRedisStore(redisClient, jobstatus.DefaultTTL)
	}

	jobs, err := buildJobs(cfg, db, logger)
	if err != nil {
		return err
	}
	runner := scheduler.NewRunner(jobs, store, logger)

	if runOnce != "" {
		job, err := scheduler.ParseJob(runOnce)
		if err != nil {
			return err
		}
		run, err := runner.Run(ctx, job)
		if err != nil {
			return err
		}
		logger.Info("One-off run complete", zap.Any("run", run))
		return nil
	}

	if redisClient == nil {
		return errors.New("redis.host is required to run the scheduler")
	}

	return serve(ctx, cfg, db, redisClient, store, runner, logger)
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	dbCfg := &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = 5
	retryCfg.InitialDelay = time.Second
	retryCfg.MaxDelay = 10 * time.Second
	retryCfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error", logging.SanitizeError(err)))
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		return database.NewConnection(ctx, dbCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func buildJobs(cfg *config.Config, db *database.DB, logger *zap.Logger) (scheduler.Jobs, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return scheduler.Jobs{}, err
	}

	llmClient, err := llm.NewClientFromConfig(&cfg.LLM, logger)
	if err != nil {
		return scheduler.Jobs{}, err
	}

	articleRepo := repositories.NewArticleRepository(db)
	offerRepo := repositories.NewOfferRepository(db)
	siteRepo := repositories.NewSiteRepository(db)

	templates := prompts.NewTemplateStore(cfg.Content.TemplatesDir)
	siteConfigs := services.NewSiteConfigCache(services.NewFileSiteConfigLoader(cfg.Content.SitesDir), logger)
	analyzer := seo.NewAnalyzer()

	generator := services.NewContentGenerator(llmClient, templates, siteConfigs, offerRepo, services.ContentGeneratorConfig{
		DefaultTemplate: cfg.Content.DefaultTemplate,
		Temperature:     cfg.LLM.Temperature,
		Location:        loc,
	}, nil, logger)

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.Scheduler.GenerateWorkers}, logger)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	generate := services.NewGenerateService(
		services.NewSiteRegistry(siteRepo, logger),
		services.NewOfferPicker(offerRepo, rnd, logger),
		services.NewDedupGuard(articleRepo, nil, logger),
		generator,
		articleRepo,
		pool,
		cfg.Content.DedupWindow(),
		logger,
	)

	analyze := services.NewAnalyzeService(articleRepo, analyzer, loc, cfg.Content.HistoryCap, nil, logger)

	rewrite := services.NewRewriteService(
		articleRepo,
		generator,
		analyzer,
		services.NewWeaknessDetector(services.ThresholdsFromConfig(&cfg.Rewrite)),
		services.RewriteSettings{
			SiteName:     cfg.Rewrite.SiteName,
			Persona:      cfg.Rewrite.Persona,
			Pain:         cfg.Rewrite.Pain,
			TemplateName: cfg.Rewrite.Template,
			Window:       time.Duration(cfg.Rewrite.WindowDays) * 24 * time.Hour,
			ScanLimit:    cfg.Rewrite.ScanLimit,
			HistoryCap:   cfg.Content.HistoryCap,
		},
		nil,
		logger,
	)

	return scheduler.Jobs{Generate: generate, Analyze: analyze, Rewrite: rewrite}, nil
}

func serve(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	store jobstatus.Store,
	runner *scheduler.Runner,
	logger *zap.Logger,
) error {
	redisOpt := scheduler.RedisConnOpt(&cfg.Redis)

	srv, mux := scheduler.NewServer(redisOpt, cfg, runner, logger)
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}
	defer srv.Shutdown()

	sched, err := scheduler.NewScheduler(redisOpt, cfg, logger)
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Shutdown()

	httpMux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, map[string]handlers.DependencyCheck{
		"postgres": db.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}, logger).RegisterRoutes(httpMux)
	handlers.NewJobsHandler(store, logger).RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(httpMux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-content",
			zap.String("addr", httpServer.Addr),
			zap.String("version", cfg.Version),
			zap.Strings("jobs", jobNames()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	return nil
}

func jobNames() []string {
	names := make([]string, len(models.AllJobs))
	for i, job := range models.AllJobs {
		names[i] = string(job)
	}
	return names
}
