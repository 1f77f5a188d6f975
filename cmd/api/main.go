package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	fraudapp "fraud-risk-engine/internal/application/fraud"
	"fraud-risk-engine/internal/domain/fraud"
	"fraud-risk-engine/internal/infrastructure/bank"
	"fraud-risk-engine/internal/infrastructure/cache/redis"
	"fraud-risk-engine/internal/infrastructure/database/postgres"
	"fraud-risk-engine/internal/infrastructure/http/router"
	"fraud-risk-engine/internal/infrastructure/messaging/kafka"
	"fraud-risk-engine/internal/infrastructure/ml"
	"fraud-risk-engine/internal/infrastructure/rules"
	"fraud-risk-engine/internal/interfaces/http/handler"
	"fraud-risk-engine/internal/pkg/config"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting fraud risk engine",
		slog.String("version", version),
		slog.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
	)

	// Database connection; falls back to an in-memory store in standalone mode
	var repo fraud.AssessmentRepository
	dbClient, err := postgres.NewClient(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Warn("database connection failed, using in-memory store", slog.String("error", err.Error()))
		dbClient = nil
		repo = newMemoryAssessmentRepository()
	} else {
		logger.Info("connected to PostgreSQL", slog.String("host", cfg.Database.Host))
		repo = postgres.NewAssessmentRepository(dbClient)
	}

	// Redis connection; pre-flight signals are disabled without it
	var signals fraud.RequestSignals
	redisClient, err := redis.NewClient(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn("redis connection failed, pre-flight signals disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		logger.Info("connected to Redis", slog.String("host", cfg.Redis.Host))
		signals = redis.NewRequestSignals(redisClient, cfg.Fraud.PreflightWindow)
	}

	// Event publisher; falls back to log-only publishing without brokers
	var publisher fraud.EventPublisher
	var kafkaPublisher *kafka.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = kafka.NewPublisher(cfg.Kafka.Brokers)
		publisher = kafkaPublisher
	} else {
		logger.Warn("no Kafka brokers configured, events will only be logged")
		publisher = &logPublisher{logger: logger}
	}

	// Bank validator is optional
	var validator fraud.BankValidator
	if cfg.Bank.Endpoint != "" {
		validator = bank.NewValidator(cfg.Bank.Endpoint, cfg.Bank.Timeout)
	}

	// Scorer selection happens once at startup; the fallback is always wired
	fallback := ml.NewFallbackScorer()
	var scorer fraud.Scorer
	if cfg.ML.Enabled {
		scorer = ml.NewModelScorer(cfg.ML.Endpoint, cfg.ML.ModelVersion, cfg.ML.Timeout)
		logger.Info("model scorer enabled",
			slog.String("endpoint", cfg.ML.Endpoint),
			slog.String("model_version", cfg.ML.ModelVersion),
		)
	}

	ruleEngine := rules.NewEngine(cfg.Fraud.IPBlacklist)

	engine := fraudapp.NewDetectionEngine(fraudapp.Params{
		Extractor:  ml.NewFeatureExtractor(),
		Rules:      ruleEngine,
		Calculator: fraud.NewRiskScoreCalculator(),
		Scorer:     scorer,
		Fallback:   fallback,
		Repository: repo,
		Publisher:  publisher,
		Validator:  validator,
		Signals:    signals,
		Logger:     logger,
		Options: fraudapp.Options{
			AssessmentsTopic: cfg.Kafka.AssessmentsTopic,
			HighRiskTopic:    cfg.Kafka.HighRiskTopic,
			FeedbackTopic:    cfg.Kafka.FeedbackTopic,
			ScorerTimeout:    cfg.Fraud.ScorerTimeout,
			BatchConcurrency: cfg.Fraud.BatchConcurrency,
			DefaultRateLimit: cfg.Fraud.PreflightDefaultLimit,
			RateLimits:       cfg.Fraud.PreflightRateLimits,
		},
	})

	// Initialize handlers
	ruleInfos := make([]handler.RuleInfo, 0)
	for _, rule := range ruleEngine.Rules() {
		ruleInfos = append(ruleInfos, handler.RuleInfo{
			ID:       rule.ID,
			Weight:   rule.Weight,
			Blocking: rule.Blocking,
		})
	}
	assessmentHandler := handler.NewAssessmentHandler(engine, repo, ruleInfos)

	healthHandler := handler.NewHealthHandler(version)
	if dbClient != nil {
		healthHandler.Register("database", dbClient)
	}
	if redisClient != nil {
		healthHandler.Register("redis", redisClient)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	r := router.NewRouter(assessmentHandler, healthHandler, metricsPath)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	// Drain in-flight background analyses before closing connections
	engine.Close()

	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	if dbClient != nil {
		dbClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// logPublisher is the standalone-mode event publisher: events are logged
// instead of sent to a broker.
type logPublisher struct {
	logger *slog.Logger
}

func (p *logPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	p.logger.Info("event published (log only)",
		slog.String("topic", topic),
		slog.String("key", key),
	)
	return nil
}

// memoryAssessmentRepository implements fraud.AssessmentRepository for
// standalone mode (when the database is not available).
type memoryAssessmentRepository struct {
	mu            sync.RWMutex
	byTransaction map[uuid.UUID]*fraud.FraudAssessment
}

func newMemoryAssessmentRepository() *memoryAssessmentRepository {
	return &memoryAssessmentRepository{
		byTransaction: make(map[uuid.UUID]*fraud.FraudAssessment),
	}
}

func (r *memoryAssessmentRepository) Save(_ context.Context, assessment *fraud.FraudAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTransaction[assessment.TransactionID] = assessment
	return nil
}

func (r *memoryAssessmentRepository) FindByTransactionID(_ context.Context, transactionID uuid.UUID) (*fraud.FraudAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byTransaction[transactionID]; ok {
		return a, nil
	}
	return nil, fraud.ErrAssessmentNotFound
}
