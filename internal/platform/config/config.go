package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for the record ledger.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process level configuration for the ledger server and the
// dev decryption oracle.
type Server struct {
	Addr         string
	OracleAddr   string
	LogLevel     string
	StoreBackend string
	DatabaseURL  string

	Redis        RedisConfig
	Kafka        KafkaConfig
	Ledger       LedgerConfig
	Crypto       CryptoConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Orchestrator OrchestratorConfig
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event stream. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// LedgerConfig names the deployment whose encryption context binds every handle.
type LedgerConfig struct {
	ChainID       uint64
	LedgerAddress string
	// ScalarBits is the declared width of the encrypted scalar.
	ScalarBits int
	// ClassificationThreshold: disclosed values at or above it classify as true.
	ClassificationThreshold uint64
}

// CryptoConfig holds key material. Seeds are base64 ed25519 seeds; public keys are base64.
type CryptoConfig struct {
	NetworkSecret       string
	GatewaySeed         string
	GatewayPublicKey    string
	OracleSeed          string
	TrustedOracleKeys   []string
	DisclosureThreshold int
}

// AuthConfig configures action authorization tokens.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	TokenTTL      time.Duration
}

// RateLimitConfig throttles ledger mutations per caller. A zero limit disables that route's limit.
type RateLimitConfig struct {
	Disabled        bool
	SubmitLimit     int
	DisclosureLimit int
	Window          time.Duration
}

// OrchestratorConfig configures the client side workflows.
type OrchestratorConfig struct {
	GatewayURL   string
	OracleURLs   []string
	LedgerURL    string
	ProofTimeout    time.Duration
	WorkflowTimeout time.Duration
	MaxAttempts     int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	intVar := func(key string, def int) int {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	uintVar := func(key string, def uint64) uint64 {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return v
	}

	cfg := Server{
		Addr:         envOr("LEDGER_ADDR", ":8080"),
		OracleAddr:   envOr("ORACLE_ADDR", ":8081"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		StoreBackend: strings.ToLower(envOr("LEDGER_STORE", StoreMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durVar("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durVar("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durVar("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         envOr("KAFKA_AUDIT_TOPIC", "cipherledger.audit"),
			ConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "cipherledger-audit-materializer"),
		},
		Ledger: LedgerConfig{
			ChainID:                 uintVar("LEDGER_CHAIN_ID", 31337),
			LedgerAddress:           envOr("LEDGER_ADDRESS", "cipherledger-dev"),
			ScalarBits:              intVar("LEDGER_SCALAR_BITS", 32),
			ClassificationThreshold: uintVar("CLASSIFICATION_THRESHOLD", 70),
		},
		Crypto: CryptoConfig{
			// Dev defaults - must be overridden in production.
			NetworkSecret:       envOr("NETWORK_SECRET", "dev-network-secret-change-in-production"),
			GatewaySeed:         os.Getenv("GATEWAY_SEED"),
			GatewayPublicKey:    os.Getenv("GATEWAY_PUBLIC_KEY"),
			OracleSeed:          os.Getenv("ORACLE_SEED"),
			TrustedOracleKeys:   splitList(os.Getenv("TRUSTED_ORACLE_KEYS")),
			DisclosureThreshold: intVar("DISCLOSURE_THRESHOLD", 1),
		},
		Auth: AuthConfig{
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        envOr("JWT_ISSUER", "cipherledger"),
			TokenTTL:      durVar("JWT_TOKEN_TTL", 2*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Disabled:        os.Getenv("DISABLE_RATE_LIMITING") == "true",
			SubmitLimit:     intVar("RATE_LIMIT_SUBMIT", 60),
			DisclosureLimit: intVar("RATE_LIMIT_DISCLOSURE", 30),
			Window:          durVar("RATE_LIMIT_WINDOW", time.Minute),
		},
		Orchestrator: OrchestratorConfig{
			GatewayURL:      os.Getenv("GATEWAY_URL"),
			OracleURLs:      splitList(envOr("ORACLE_URLS", "http://localhost:8081")),
			LedgerURL:       envOr("LEDGER_URL", "http://localhost:8080"),
			ProofTimeout:    durVar("PROOF_TIMEOUT", 30*time.Second),
			WorkflowTimeout: durVar("WORKFLOW_TIMEOUT", 5*time.Minute),
			MaxAttempts:     intVar("ORCHESTRATOR_MAX_ATTEMPTS", 3),
		},
	}

	switch cfg.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if cfg.Redis.URL == "" {
			errs = append(errs, "REDIS_URL is required for the redis store")
		}
	default:
		errs = append(errs, fmt.Sprintf("LEDGER_STORE: unknown backend %q", cfg.StoreBackend))
	}
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.Crypto.DisclosureThreshold < 1 {
		errs = append(errs, "DISCLOSURE_THRESHOLD must be at least 1")
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
