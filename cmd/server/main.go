package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/handler"
	"github.com/rotools/trader/internal/kafka"
	"github.com/rotools/trader/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Optional Redis response cache
	redisClient := setupRedis(cfg, logger)

	// Optional Kafka audit producer
	kafkaProducer := setupKafka(cfg, logger)

	// Upstream clients
	robloxClient := client.NewRobloxClient(cfg.Roblox, logger)
	rolimonsClient := client.NewRolimonsClient(cfg.Rolimons, logger)

	// Services
	sessions := service.NewSessionManager(robloxClient, cfg.Session, logger)
	pricing := service.NewPricingService(rolimonsClient, cfg.Cache.ItemTTL, logger)
	thumbs := service.NewThumbnailService(robloxClient, cfg.Cache.ThumbnailSize, logger)

	var auditor service.AuditPublisher
	if kafkaProducer != nil {
		auditor = kafkaProducer
	}
	trades := service.NewTradeService(robloxClient, pricing, thumbs, cfg.Cache.TradeTTL, auditor, cfg.Kafka.Topic, logger)

	router := handler.NewRouter(handler.RouterDeps{
		Config:       cfg,
		Sessions:     sessions,
		Pricing:      pricing,
		Thumbs:       thumbs,
		Trades:       trades,
		Redis:        redisClient,
		AuditEnabled: kafkaProducer != nil,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting trader server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	sessions.Close()

	if kafkaProducer != nil {
		kafkaProducer.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited properly")
}

// setupRedis initializes the optional Redis client. A missing or unreachable
// Redis is not fatal; the shared response cache is simply disabled.
func setupRedis(cfg *config.Config, logger *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = cfg.Redis.URL
	}

	redisOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		redisOptions = &redis.Options{
			Addr: redisURL,
			DB:   0,
		}
	}

	redisClient := redis.NewClient(redisOptions)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis, response cache disabled", zap.Error(err))
		redisClient.Close()
		return nil
	}

	logger.Info("Connected to Redis", zap.String("addr", redisOptions.Addr))
	return redisClient
}

// setupKafka initializes the optional audit event producer.
func setupKafka(cfg *config.Config, logger *zap.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		return nil
	}

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		kafkaBrokers = cfg.Kafka.Brokers
	}
	brokers := strings.Split(kafkaBrokers, ",")

	producer := kafka.NewProducer(brokers, cfg.Kafka.ClientID, logger)

	logger.Info("Initialized Kafka producer", zap.Strings("brokers", brokers))
	return producer
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	zapConfig := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
