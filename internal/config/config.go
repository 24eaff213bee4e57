package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Catalog  CatalogConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
}

type StorageConfig struct {
	// Backend is one of memory, redis, mongo or postgres.
	Backend      string
	WriteTimeout time.Duration
	// BreakerFailures consecutive failures open the storage circuit breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// SessionIdleTTL is how long an unused cart stays in memory.
	SessionIdleTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type CatalogConfig struct {
	DBPath string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level       string
	Development bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:           getEnv("HTTP_PORT", "8080"),
			RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		Storage: StorageConfig{
			Backend:         getEnv("CART_STORAGE", "memory"),
			WriteTimeout:    getEnvDuration("CART_STORAGE_WRITE_TIMEOUT", 2*time.Second),
			BreakerFailures: uint32(getEnvInt("CART_STORAGE_BREAKER_FAILURES", 5)),
			BreakerTimeout:  getEnvDuration("CART_STORAGE_BREAKER_TIMEOUT", 30*time.Second),
			SessionIdleTTL:  getEnvDuration("CART_SESSION_IDLE_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_CART_TTL", 0),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB_NAME", "cartdb"),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "shopeasy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Catalog: CatalogConfig{
			DBPath: getEnv("CATALOG_DB_PATH", "catalog.db"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_CHECKOUT_TOPIC", "checkout-completed"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("APP_ENV", "production") == "development",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings such as "500ms" or "15m".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
