package config

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultPort      = 8080
	defaultLogLevel  = "info"
	defaultPprofAddr = "127.0.0.1:6060"
)

var defaultDB = DB{
	Host:        "127.0.0.1",
	Port:        "5432",
	User:        "myuser",
	Pass:        "mypassword",
	Name:        "moto_dispatch",
	AutoMigrate: true,
}

var defaultStorage = Storage{Driver: StorageDriverPostgres}

// DevJWTSecret signs tokens when JWT_SECRET is unset. Validate refuses it
// together with the postgres store.
const DevJWTSecret = "dev-secret-change-me"

var defaultAuth = Auth{
	JWTSecret:     DevJWTSecret,
	JWTIssuer:     "moto-dispatch",
	JWTTTL:        24 * time.Hour,
	ResetTokenTTL: 30 * time.Minute,
	BcryptCost:    10,
}

var defaultPricing = Pricing{DefaultPrice: decimal.NewFromInt(1500)}

var defaultDelivery = Delivery{
	OperationTimeout: 3 * time.Second,
}

var defaultKafka = Kafka{
	Topic:              "delivery-events",
	GroupID:            "dispatch-worker",
	PublishMaxAttempts: 4,
	PublishBaseDelay:   150 * time.Millisecond,
	PublishMaxDelay:    time.Second,
}

var defaultRedis = Redis{StatsCacheTTL: 30 * time.Second}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
	AuthRate:   1,
	AuthBurst:  5,
}

var defaultHealth = Health{
	GRPCPort:      9091,
	CheckInterval: 10 * time.Second,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultDelivery returns the default delivery settings.
func DefaultDelivery() Delivery {
	return defaultDelivery
}

// DefaultKafka returns the default Kafka settings.
func DefaultKafka() Kafka {
	return defaultKafka
}

// DefaultRateLimit returns the default limiter settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}

// Defaults returns a fully populated Config without reading the environment.
func Defaults() *Config {
	return &Config{
		Port:      defaultPort,
		LogLevel:  defaultLogLevel,
		DB:        defaultDB,
		Storage:   defaultStorage,
		Auth:      defaultAuth,
		Pricing:   defaultPricing,
		Delivery:  defaultDelivery,
		Kafka:     defaultKafka,
		Redis:     defaultRedis,
		RateLimit: defaultRateLimit,
		Pprof:     PprofConfig{Addr: defaultPprofAddr},
		Health:    defaultHealth,
	}
}
