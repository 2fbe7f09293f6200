// Package config loads service settings from .env, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"moto-dispatch/internal/logx"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config stores service settings.
type Config struct {
	Port     int
	LogLevel string
	// TrustProxy makes X-Forwarded-For / X-Real-IP authoritative for the client address.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
	DB         DB
	Storage    Storage
	Auth       Auth
	Pricing    Pricing
	Delivery   Delivery
	Kafka      Kafka
	Redis      Redis
	RateLimit  RateLimit
	Pprof      PprofConfig
	Health     Health
}

// DB stores Postgres connection settings.
type DB struct {
	Host        string
	Port        string
	User        string
	Pass        string
	Name        string
	AutoMigrate bool
}

// DSN returns a postgres:// URL with escaped credentials.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Storage selects the record store backend.
type Storage struct {
	Driver string
}

// UsesPostgres reports whether the postgres driver is selected.
func (s Storage) UsesPostgres() bool { return s.Driver == StorageDriverPostgres }

// Auth stores token and password settings.
type Auth struct {
	JWTSecret              string
	JWTIssuer              string
	JWTTTL                 time.Duration
	ResetTokenTTL          time.Duration
	BcryptCost             int
	BootstrapAdminPhone    string
	BootstrapAdminPassword string
}

// Pricing stores the flat rate applied when no zone matches.
type Pricing struct {
	DefaultPrice decimal.Decimal
}

// Delivery stores delivery service settings.
type Delivery struct {
	OperationTimeout time.Duration
}

// Kafka stores broker settings; empty Brokers disables Kafka.
type Kafka struct {
	Brokers            []string
	Topic              string
	GroupID            string
	PublishMaxAttempts int
	PublishBaseDelay   time.Duration
	PublishMaxDelay    time.Duration
}

// Enabled reports whether brokers are configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Redis stores cache settings; empty Addr selects the in-process cache.
type Redis struct {
	Addr          string
	Password      string
	DB            int
	StatsCacheTTL time.Duration
}

// RateLimit stores per-IP limiter settings. Auth* apply to /auth routes.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
	AuthRate   float64
	AuthBurst  int
}

// PprofConfig stores the debug server settings.
type PprofConfig struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Health stores health reporting settings.
type Health struct {
	GRPCPort      int
	CheckInterval time.Duration
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	fs := pflag.CommandLine
	if fs.Lookup("port") == nil {
		fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	}
	if fs.Lookup("storage") == nil {
		fs.StringVar(&cfg.Storage.Driver, "storage", cfg.Storage.Driver, "record store: postgres|memory")
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	var e envReader
	cfg := &Config{
		Port:       e.integer("PORT", defaultPort),
		LogLevel:   e.str("LOG_LEVEL", defaultLogLevel),
		TrustProxy: e.boolean("TRUST_PROXY_HEADERS", false),
		DB: DB{
			Host:        e.str("POSTGRES_HOST", defaultDB.Host),
			Port:        e.str("POSTGRES_PORT", defaultDB.Port),
			User:        e.str("POSTGRES_USER", defaultDB.User),
			Pass:        e.str("POSTGRES_PASSWORD", defaultDB.Pass),
			Name:        e.str("POSTGRES_DB", defaultDB.Name),
			AutoMigrate: e.boolean("DB_AUTO_MIGRATE", defaultDB.AutoMigrate),
		},
		Storage: Storage{
			Driver: strings.ToLower(e.str("STORAGE_DRIVER", defaultStorage.Driver)),
		},
		Auth: Auth{
			JWTSecret:              e.str("JWT_SECRET", defaultAuth.JWTSecret),
			JWTIssuer:              e.str("JWT_ISSUER", defaultAuth.JWTIssuer),
			JWTTTL:                 e.duration("JWT_TTL", defaultAuth.JWTTTL),
			ResetTokenTTL:          e.duration("RESET_TOKEN_TTL", defaultAuth.ResetTokenTTL),
			BcryptCost:             e.integer("BCRYPT_COST", defaultAuth.BcryptCost),
			BootstrapAdminPhone:    e.str("BOOTSTRAP_ADMIN_PHONE", ""),
			BootstrapAdminPassword: e.str("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
		Pricing: Pricing{
			DefaultPrice: e.dec("PRICING_DEFAULT_PRICE", defaultPricing.DefaultPrice),
		},
		Delivery: Delivery{
			OperationTimeout: e.duration("DELIVERY_OPERATION_TIMEOUT", defaultDelivery.OperationTimeout),
		},
		Kafka: Kafka{
			Brokers:            e.list("KAFKA_BROKERS"),
			Topic:              e.str("KAFKA_DELIVERY_TOPIC", defaultKafka.Topic),
			GroupID:            e.str("KAFKA_GROUP_ID", defaultKafka.GroupID),
			PublishMaxAttempts: e.integer("KAFKA_PUBLISH_MAX_ATTEMPTS", defaultKafka.PublishMaxAttempts),
			PublishBaseDelay:   e.duration("KAFKA_PUBLISH_BASE_DELAY", defaultKafka.PublishBaseDelay),
			PublishMaxDelay:    e.duration("KAFKA_PUBLISH_MAX_DELAY", defaultKafka.PublishMaxDelay),
		},
		Redis: Redis{
			Addr:          e.str("REDIS_ADDR", ""),
			Password:      e.str("REDIS_PASSWORD", ""),
			DB:            e.integer("REDIS_DB", 0),
			StatsCacheTTL: e.duration("STATS_CACHE_TTL", defaultRedis.StatsCacheTTL),
		},
		RateLimit: RateLimit{
			Enabled:    e.boolean("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
			Rate:       e.float("RATE_LIMIT_RPS", defaultRateLimit.Rate),
			Burst:      e.integer("RATE_LIMIT_BURST", defaultRateLimit.Burst),
			TTL:        e.duration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
			MaxBuckets: e.integer("RATE_LIMIT_MAX_KEYS", defaultRateLimit.MaxBuckets),
			AuthRate:   e.float("AUTH_RATE_LIMIT_RPS", defaultRateLimit.AuthRate),
			AuthBurst:  e.integer("AUTH_RATE_LIMIT_BURST", defaultRateLimit.AuthBurst),
		},
		Pprof: PprofConfig{
			Enabled: e.boolean("PPROF_ENABLED", false),
			Addr:    e.str("PPROF_ADDR", defaultPprofAddr),
			User:    e.str("PPROF_USER", ""),
			Pass:    e.str("PPROF_PASSWORD", ""),
		},
		Health: Health{
			GRPCPort:      e.integer("GRPC_HEALTH_PORT", defaultHealth.GRPCPort),
			CheckInterval: e.duration("HEALTH_CHECK_INTERVAL", defaultHealth.CheckInterval),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if p, err := strconv.Atoi(c.DB.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("invalid POSTGRES_PORT: %q", c.DB.Port))
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_DRIVER: %q (want postgres or memory)", c.Storage.Driver))
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Storage.UsesPostgres() && c.Auth.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set when STORAGE_DRIVER=postgres"))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST out of range [4,31]: %d", c.Auth.BcryptCost))
	}
	if (c.Auth.BootstrapAdminPhone == "") != (c.Auth.BootstrapAdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PHONE and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	if c.Pricing.DefaultPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("PRICING_DEFAULT_PRICE must not be negative: %s", c.Pricing.DefaultPrice))
	}
	if c.Delivery.OperationTimeout <= 0 {
		errs = append(errs, errors.New("DELIVERY_OPERATION_TIMEOUT must be positive"))
	}
	if c.Kafka.PublishMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("KAFKA_PUBLISH_MAX_ATTEMPTS must be >= 1: %d", c.Kafka.PublishMaxAttempts))
	}
	if c.Kafka.PublishBaseDelay > c.Kafka.PublishMaxDelay {
		errs = append(errs, errors.New("KAFKA_PUBLISH_BASE_DELAY exceeds KAFKA_PUBLISH_MAX_DELAY"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0 || c.RateLimit.AuthRate <= 0 || c.RateLimit.AuthBurst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive when enabled"))
	}
	if c.Health.GRPCPort < 0 || c.Health.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid GRPC_HEALTH_PORT: %d", c.Health.GRPCPort))
	}
	if c.Health.CheckInterval <= 0 {
		errs = append(errs, errors.New("HEALTH_CHECK_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// envReader collects parse errors so that Load reports every bad variable at once.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return f
}

func (e *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}

func (e *envReader) dec(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}

func (e *envReader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
