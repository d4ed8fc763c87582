package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	DBMaxConns      int
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
	LogLevel        string

	PriceMode   string
	VerifyBuyer bool

	AzureConnectionString string
	AzureContainer        string
	MaxUploadSize         int64

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxWorkers      int
}

const (
	defaultRunAddress         = ":8080"
	defaultDBMaxConns         = 10
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultShutdownTimeout    = 10 * time.Second
	defaultLogLevel           = "info"
	defaultPriceMode          = "catalog"
	defaultAzureContainer     = "product-images"
	defaultMaxUploadSize      = 5 << 20
	defaultIdempotencyTTL     = 24 * time.Hour
	defaultKafkaTopic         = "storefront.orders"
	defaultOutboxPollInterval = 2 * time.Second
	defaultOutboxBatchSize    = 50
	defaultOutboxWorkers      = 2
)

// Load reads an optional .env file and parses configuration from flags and
// environment variables. Variables already present in the environment win
// over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		DBMaxConns:            getInt(lookup, "DB_MAX_CONNS", defaultDBMaxConns),
		JWTSecret:             getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:              getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		Debug:                 getBool(lookup, "DEBUG", false),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
		PriceMode:             getString(lookup, "PRICE_MODE", defaultPriceMode),
		VerifyBuyer:           getBool(lookup, "VERIFY_BUYER", true),
		AzureConnectionString: getString(lookup, "AZURE_STORAGE_CONNECTION_STRING", ""),
		AzureContainer:        getString(lookup, "AZURE_STORAGE_CONTAINER", defaultAzureContainer),
		MaxUploadSize:         int64(getInt(lookup, "MAX_UPLOAD_SIZE", defaultMaxUploadSize)),
		RedisAddr:             getString(lookup, "REDIS_ADDR", ""),
		IdempotencyTTL:        getDuration(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		KafkaBrokers:          splitList(getString(lookup, "KAFKA_BROKERS", "")),
		KafkaTopic:            getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		OutboxPollInterval:    getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		OutboxBatchSize:       getInt(lookup, "OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
		OutboxWorkers:         getInt(lookup, "OUTBOX_WORKERS", defaultOutboxWorkers),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.OutboxPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		tokenTTLStr        = cfg.TokenTTL.String()
		kafkaBrokersStr    = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of issued auth tokens")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Expose error details in responses")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.PriceMode, "price-mode", cfg.PriceMode, "Order item pricing: catalog or trusted")
	fs.BoolVar(&cfg.VerifyBuyer, "verify-buyer", cfg.VerifyBuyer, "Reject orders for unknown users before opening a transaction")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for idempotency keys")
	fs.StringVar(&kafkaBrokersStr, "kafka-brokers", kafkaBrokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for order events")
	fs.StringVar(&pollIntervalStr, "outbox-interval", pollIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.OutboxBatchSize, "outbox-batch", cfg.OutboxBatchSize, "Maximum outbox events per poll")
	fs.IntVar(&cfg.OutboxWorkers, "outbox-workers", cfg.OutboxWorkers, "Number of concurrent outbox workers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.OutboxPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid outbox interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	cfg.KafkaBrokers = splitList(kafkaBrokersStr)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.PriceMode = strings.ToLower(strings.TrimSpace(cfg.PriceMode))
	if cfg.PriceMode != "catalog" && cfg.PriceMode != "trusted" {
		return nil, fmt.Errorf("invalid price mode %q: want catalog or trusted", cfg.PriceMode)
	}

	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = defaultDBMaxConns
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}

	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	if cfg.OutboxWorkers <= 0 {
		cfg.OutboxWorkers = defaultOutboxWorkers
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
