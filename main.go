package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/config"
	"github.com/clausewise/clausewise-engine/pkg/database"
	"github.com/clausewise/clausewise-engine/pkg/events"
	"github.com/clausewise/clausewise-engine/pkg/handlers"
	"github.com/clausewise/clausewise-engine/pkg/llm"
	"github.com/clausewise/clausewise-engine/pkg/logging"
	"github.com/clausewise/clausewise-engine/pkg/middleware"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
	"github.com/clausewise/clausewise-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Database: %s", logging.SanitizeConnectionString(cfg.Database.ConnectionString()))
	log.Printf("  Redis: %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	log.Printf("  Review default mode: %s", cfg.Review.DefaultMode)
	log.Printf("  Extraction provider: %s", cfg.Extraction.Provider)

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and apply pending migrations
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	sqlDB.Close()

	// Event bridge: Redis Streams when configured, in-memory otherwise
	var bridge events.Bridge
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		consumerName, _ := os.Hostname()
		if consumerName == "" {
			consumerName = "clausewise-engine"
		}
		redisBridge, err := events.NewRedisBridge(ctx, redisClient, consumerName, logger)
		if err != nil {
			logger.Fatal("Failed to create Redis event bridge", zap.Error(err))
		}
		bridge = redisBridge
	} else {
		logger.Info("Redis not configured, using in-memory event bridge")
		bridge = events.NewChannelBridge(0, logger)
	}

	// Repositories
	contractRepo := repositories.NewContractRepository(db)
	ruleRepo := repositories.NewReviewRuleRepository(db)
	runRepo := repositories.NewExtractionRunRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	defaultMode := models.ReviewMode(cfg.Review.DefaultMode)

	// Seed the rule catalog on first boot
	if err := services.SeedRules(ctx, cfg.Review.SeedFile, ruleRepo, logger); err != nil {
		logger.Fatal("Failed to seed review rules", zap.Error(err))
	}

	// Services
	selector := services.NewRuleSelector()
	trail := services.NewAuditTrail(auditRepo, logger)
	lifecycle := services.NewExtractionLifecycle(&services.ExtractionLifecycleDeps{
		RunRepo:      runRepo,
		ContractRepo: contractRepo,
		RuleRepo:     ruleRepo,
		Selector:     selector,
		Trail:        trail,
		DefaultMode:  defaultMode,
		Logger:       logger,
	})

	extractor, err := llm.NewExtractor(&cfg.Extraction, logger)
	if err != nil {
		logger.Fatal("Failed to create clause extractor", zap.Error(err))
	}

	worker := services.NewExtractionWorker(&services.ExtractionWorkerDeps{
		Lifecycle:    lifecycle,
		ContractRepo: contractRepo,
		RuleRepo:     ruleRepo,
		Selector:     selector,
		Extractor:    extractor,
		Documents:    services.NewHTTPDocumentStore(cfg.Extraction.DocumentBaseURL, nil),
		Logger:       logger,
	})

	consumer := services.NewTriggerConsumer(bridge, lifecycle, worker, defaultMode, cfg.Extraction.Workers, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("Trigger consumer exited", zap.Error(err))
		}
	}()

	ruleService := services.NewRuleService(ruleRepo, logger)
	contractService := services.NewContractService(contractRepo, bridge, bridge, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg.Version).RegisterRoutes(mux)
	handlers.NewRulesHandler(ruleService, logger).RegisterRoutes(mux)
	handlers.NewContractsHandler(contractService, logger).RegisterRoutes(mux)
	handlers.NewRunsHandler(lifecycle, trail, consumer, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("Starting clausewise-engine",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
