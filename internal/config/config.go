package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig
	Roblox    RobloxConfig
	Rolimons  RolimonsConfig
	Session   SessionConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Logging   LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RobloxConfig holds the Roblox platform API endpoints
type RobloxConfig struct {
	AuthURL       string
	TradesURL     string
	ThumbnailsURL string
	UsersURL      string
	Timeout       time.Duration
}

// RolimonsConfig holds the Rolimons pricing API endpoint
type RolimonsConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig holds session manager configuration
type SessionConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	RefreshInterval time.Duration
	ValidateTimeout time.Duration
}

// CacheConfig holds the TTLs and bounds of the in-process caches
type CacheConfig struct {
	ItemTTL       time.Duration
	TradeTTL      time.Duration
	ThumbnailSize int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
}

// RedisConfig holds the optional shared response cache configuration
type RedisConfig struct {
	URL     string
	Enabled bool
}

// KafkaConfig holds the optional audit event producer configuration
type KafkaConfig struct {
	Brokers  string
	ClientID string
	Topic    string
	Enabled  bool
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Roblox platform defaults
	v.SetDefault("roblox.authURL", "https://auth.roblox.com")
	v.SetDefault("roblox.tradesURL", "https://trades.roblox.com")
	v.SetDefault("roblox.thumbnailsURL", "https://thumbnails.roblox.com")
	v.SetDefault("roblox.usersURL", "https://users.roblox.com")
	v.SetDefault("roblox.timeout", "10s")

	// Rolimons defaults
	v.SetDefault("rolimons.url", "https://api.rolimons.com")
	v.SetDefault("rolimons.timeout", "10s")

	// Session defaults
	v.SetDefault("session.jwtSecret", "change-me-in-production")
	v.SetDefault("session.tokenTTL", "600h")
	v.SetDefault("session.refreshInterval", "30m")
	v.SetDefault("session.validateTimeout", "15s")

	// Cache defaults
	v.SetDefault("cache.itemTTL", "5m")
	v.SetDefault("cache.tradeTTL", "5m")
	v.SetDefault("cache.thumbnailSize", 2048)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.burstSize", 30)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis:6379")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "kafka:9092")
	v.SetDefault("kafka.clientID", "rotools-trader")
	v.SetDefault("kafka.topic", "trade-events")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
