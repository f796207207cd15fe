package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.aocore.tech/internal/common/secrets"
	"go.aocore.tech/internal/platform/auth"
	"go.aocore.tech/internal/platform/webhook"
	"go.aocore.tech/internal/queue"
)

// Config holds all configuration for aocore
type Config struct {
	HTTP HTTPConfig `toml:"http"`

	MongoDB MongoDBConfig `toml:"mongodb"`

	// Redis is optional; without it the sweeper runs as a single leader
	Redis RedisConfig `toml:"redis"`

	// Queue carries execution lifecycle events (embedded, nats, sqs, none)
	Queue queue.Config `toml:"queue"`

	Secrets secrets.Config `toml:"secrets"`

	Auth auth.Config `toml:"auth"`

	Dispatch DispatchConfig `toml:"dispatch"`

	Sweeper SweeperConfig `toml:"sweeper"`

	Leader LeaderConfig `toml:"leader"`

	// Data directory for embedded services
	DataDir string `toml:"data_dir"`

	// Development mode
	DevMode bool `toml:"dev_mode"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig holds the optional Redis connection
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL; empty disables Redis
	URL string `toml:"url"`
}

// DispatchConfig tunes outbound workflow calls
type DispatchConfig struct {
	Timeout          time.Duration `toml:"timeout"`
	MaxResponseBytes int64         `toml:"max_response_bytes"`

	// SigningSecret is the master key per-endpoint signing keys derive from;
	// empty disables request signing unless an endpoint names its own secret
	SigningSecret string `toml:"signing_secret"`

	CircuitBreaker bool `toml:"circuit_breaker"`

	// Per-user limit on POST /api/workflows/execute; zero disables it
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
	RateLimitBurst     int `toml:"rate_limit_burst"`
}

// SweeperConfig holds stuck-pending sweeper configuration
type SweeperConfig struct {
	Enabled  bool          `toml:"enabled"`
	Interval time.Duration `toml:"interval"`

	// Grace is how long a record may stay pending past its own deadline
	Grace time.Duration `toml:"grace"`

	// StaleAfter applies to records written without a deadline. It defaults
	// to the longest possible call timeout plus Grace and cannot be shorter
	// than that call timeout.
	StaleAfter time.Duration `toml:"stale_after"`
	BatchSize  int           `toml:"batch_size"`
}

// LeaderConfig holds leader election configuration
type LeaderConfig struct {
	// InstanceID uniquely identifies this instance (defaults to HOSTNAME)
	InstanceID string `toml:"instance_id"`

	// TTL is how long the lock is valid before expiring
	TTL time.Duration `toml:"ttl"`

	// RefreshInterval is how often to refresh the lock while primary
	RefreshInterval time.Duration `toml:"refresh_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017/?replicaSet=rs0&directConnection=true",
			Database: "aocore",
		},
		Queue:   *queue.DefaultConfig(),
		Secrets: *secrets.DefaultConfig(),
		Auth: auth.Config{
			Leeway: 30 * time.Second,
		},
		Dispatch: DispatchConfig{
			Timeout:            30 * time.Second,
			MaxResponseBytes:   1 << 20,
			CircuitBreaker:     true,
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
		},
		Sweeper: SweeperConfig{
			Enabled:   true,
			Interval:  60 * time.Second,
			Grace:     2 * time.Minute,
			BatchSize: 100,
		},
		Leader: LeaderConfig{
			TTL:             30 * time.Second,
			RefreshInterval: 10 * time.Second,
		},
		DataDir: "./data",
	}
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := Defaults()
	applyEnv(cfg)
	return cfg, cfg.Validate()
}

// applyEnv overrides cfg with every variable that is set.
func applyEnv(cfg *Config) {
	cfg.HTTP.Port = getEnvInt("HTTP_PORT", cfg.HTTP.Port)
	cfg.HTTP.CORSOrigins = getEnvSlice("CORS_ORIGINS", cfg.HTTP.CORSOrigins)

	cfg.MongoDB.URI = getEnv("MONGODB_URI", cfg.MongoDB.URI)
	cfg.MongoDB.Database = getEnv("MONGODB_DATABASE", cfg.MongoDB.Database)

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)

	cfg.Queue.Type = getEnv("QUEUE_TYPE", cfg.Queue.Type)
	cfg.Queue.DataDir = getEnv("NATS_DATA_DIR", cfg.Queue.DataDir)
	cfg.Queue.NATS.URL = getEnv("NATS_URL", cfg.Queue.NATS.URL)
	cfg.Queue.NATS.Port = getEnvInt("NATS_PORT", cfg.Queue.NATS.Port)
	cfg.Queue.SQS.QueueURL = getEnv("SQS_QUEUE_URL", cfg.Queue.SQS.QueueURL)
	cfg.Queue.SQS.Region = getEnv("AWS_REGION", cfg.Queue.SQS.Region)
	cfg.Queue.SQS.Endpoint = getEnv("SQS_ENDPOINT", cfg.Queue.SQS.Endpoint)

	// The secrets package owns its variables; any of them replaces the file section.
	if _, ok := os.LookupEnv("AOCORE_SECRETS_PROVIDER"); ok {
		cfg.Secrets = *secrets.LoadConfigFromEnv()
	}

	cfg.Auth.Disabled = getEnvBool("AUTH_DISABLED", cfg.Auth.Disabled)
	cfg.Auth.HMACSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.HMACSecret)
	cfg.Auth.PublicKeyPath = getEnv("AUTH_JWT_PUBLIC_KEY_PATH", cfg.Auth.PublicKeyPath)
	cfg.Auth.PublicKeyPEM = getEnv("AUTH_JWT_PUBLIC_KEY", cfg.Auth.PublicKeyPEM)
	cfg.Auth.Issuer = getEnv("AUTH_JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.Audience = getEnv("AUTH_JWT_AUDIENCE", cfg.Auth.Audience)
	cfg.Auth.Leeway = getEnvDuration("AUTH_JWT_LEEWAY", cfg.Auth.Leeway)

	cfg.Dispatch.Timeout = getEnvDuration("DISPATCH_TIMEOUT", cfg.Dispatch.Timeout)
	cfg.Dispatch.MaxResponseBytes = int64(getEnvInt("DISPATCH_MAX_RESPONSE_BYTES", int(cfg.Dispatch.MaxResponseBytes)))
	cfg.Dispatch.SigningSecret = getEnv("DISPATCH_SIGNING_SECRET", cfg.Dispatch.SigningSecret)
	cfg.Dispatch.CircuitBreaker = getEnvBool("DISPATCH_CIRCUIT_BREAKER", cfg.Dispatch.CircuitBreaker)
	cfg.Dispatch.RateLimitPerMinute = getEnvInt("EXECUTE_RATE_LIMIT", cfg.Dispatch.RateLimitPerMinute)
	cfg.Dispatch.RateLimitBurst = getEnvInt("EXECUTE_RATE_BURST", cfg.Dispatch.RateLimitBurst)

	cfg.Sweeper.Enabled = getEnvBool("SWEEPER_ENABLED", cfg.Sweeper.Enabled)
	cfg.Sweeper.Interval = getEnvDuration("SWEEPER_INTERVAL", cfg.Sweeper.Interval)
	cfg.Sweeper.Grace = getEnvDuration("SWEEPER_GRACE", cfg.Sweeper.Grace)
	cfg.Sweeper.StaleAfter = getEnvDuration("SWEEPER_STALE_AFTER", cfg.Sweeper.StaleAfter)
	cfg.Sweeper.BatchSize = getEnvInt("SWEEPER_BATCH_SIZE", cfg.Sweeper.BatchSize)

	cfg.Leader.InstanceID = getEnv("HOSTNAME", cfg.Leader.InstanceID)
	cfg.Leader.TTL = getEnvDuration("LEADER_TTL", cfg.Leader.TTL)
	cfg.Leader.RefreshInterval = getEnvDuration("LEADER_REFRESH_INTERVAL", cfg.Leader.RefreshInterval)

	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.DevMode = getEnvBool("AOCORE_DEV", cfg.DevMode)
}

// MaxCallTimeout is the longest a single outbound call may run: the dispatch
// timeout or the largest per-endpoint override, whichever is longer.
func (c *Config) MaxCallTimeout() time.Duration {
	return max(c.Dispatch.Timeout, webhook.MaxTimeoutSeconds*time.Second)
}

// SweeperStaleAfter resolves the stale threshold for records without a
// deadline, deriving it from MaxCallTimeout when unset.
func (c *Config) SweeperStaleAfter() time.Duration {
	if c.Sweeper.StaleAfter > 0 {
		return c.Sweeper.StaleAfter
	}
	return c.MaxCallTimeout() + c.Sweeper.Grace
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
		errs = append(errs, errors.New("mongodb.uri and mongodb.database are required"))
	}

	qt, ok := queue.ParseType(c.Queue.Type)
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("unknown queue.type %q", c.Queue.Type))
	case qt == queue.QueueTypeSQS && c.Queue.SQS.QueueURL == "":
		errs = append(errs, errors.New("queue.sqs.queue_url is required when queue.type is sqs"))
	}

	if !c.Auth.Disabled && c.Auth.HMACSecret == "" && c.Auth.PublicKeyPEM == "" && c.Auth.PublicKeyPath == "" {
		errs = append(errs, errors.New("auth needs a JWT secret or public key (or AUTH_DISABLED=true)"))
	}

	if c.Dispatch.Timeout <= 0 {
		errs = append(errs, errors.New("dispatch.timeout must be positive"))
	}
	if c.Dispatch.MaxResponseBytes <= 0 {
		errs = append(errs, errors.New("dispatch.max_response_bytes must be positive"))
	}
	if c.Sweeper.Enabled && (c.Sweeper.Interval <= 0 || c.Sweeper.BatchSize <= 0) {
		errs = append(errs, errors.New("sweeper.interval and sweeper.batch_size must be positive"))
	}
	if c.Sweeper.Grace < 0 {
		errs = append(errs, errors.New("sweeper.grace cannot be negative"))
	}
	if c.Sweeper.StaleAfter < 0 {
		errs = append(errs, errors.New("sweeper.stale_after cannot be negative"))
	} else if c.Sweeper.StaleAfter > 0 && c.Sweeper.StaleAfter <= c.MaxCallTimeout() {
		errs = append(errs, fmt.Errorf("sweeper.stale_after %s must exceed the longest call timeout %s",
			c.Sweeper.StaleAfter, c.MaxCallTimeout()))
	}
	if c.Leader.RefreshInterval >= c.Leader.TTL {
		errs = append(errs, errors.New("leader.refresh_interval must be shorter than leader.ttl"))
	}

	return errors.Join(errs...)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
