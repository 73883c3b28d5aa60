package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates all runtime configuration. Optional subsystems (Redis,
// Kafka) stay disabled when their address is empty so local development and
// tests run without them.
type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Enabled reports whether Kafka is configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type GatewayConfig struct {
	BaseURL string
	APIKey  string
	// DueDateOffset is added to the charge creation date to produce the due
	// date communicated to the gateway.
	DueDateOffset time.Duration
	Timeout       time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	// WebhookTokenHash is the bcrypt hash of the access token the gateway
	// sends with each webhook delivery.
	WebhookTokenHash string
}

// FromEnv builds the Config from environment variables so main stays lean.
// Missing required values are returned as an error rather than calling
// log.Fatal here, keeping the function usable from tests.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("INSCRITO_ADDR", ":8080"),
			ShutdownTimeout: getDuration("INSCRITO_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "audit.events"),
		},
		Gateway: GatewayConfig{
			BaseURL:       os.Getenv("GATEWAY_BASE_URL"),
			APIKey:        os.Getenv("GATEWAY_API_KEY"),
			DueDateOffset: getDuration("GATEWAY_DUE_DATE_OFFSET", 72*time.Hour),
			Timeout:       getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:        getEnv("JWT_ISSUER", "inscrito"),
			WebhookTokenHash: os.Getenv("GATEWAY_WEBHOOK_TOKEN_HASH"),
		},
	}

	if cfg.Postgres.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	if cfg.Gateway.BaseURL == "" || cfg.Gateway.APIKey == "" {
		return Config{}, fmt.Errorf("GATEWAY_BASE_URL and GATEWAY_API_KEY are required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
