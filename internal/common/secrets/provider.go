// Package secrets resolves endpoint signing secrets from a pluggable backend.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrProviderError  = errors.New("provider error")
)

// Provider defines the interface for secret storage backends.
// Secrets are managed out of band; this service only reads them.
type Provider interface {
	// Get retrieves a secret by key
	Get(ctx context.Context, key string) (string, error)

	// Name returns the provider name for logging
	Name() string
}

// ProviderType represents the type of secret provider
type ProviderType string

const (
	ProviderTypeAWSSM ProviderType = "aws-sm"
	ProviderTypeVault ProviderType = "vault"
	ProviderTypeGCPSM ProviderType = "gcp-sm"
	ProviderTypeEnv   ProviderType = "env"
)

// Config holds configuration for the secrets provider
type Config struct {
	Provider ProviderType `toml:"provider"`

	// CacheTTL keeps resolved secrets in memory; zero disables caching.
	CacheTTL time.Duration `toml:"cache_ttl"`

	// Env provider settings
	EnvPrefix string `toml:"env_prefix"`

	// AWS Secrets Manager settings
	AWSRegion    string `toml:"aws_region"`
	AWSPrefix    string `toml:"aws_prefix"`
	AWSEndpoint  string `toml:"aws_endpoint"` // For LocalStack
	AWSAccessKey string `toml:"aws_access_key"`
	AWSSecretKey string `toml:"aws_secret_key"`

	// HashiCorp Vault settings
	VaultAddr      string `toml:"vault_addr"`
	VaultToken     string `toml:"vault_token"`
	VaultMount     string `toml:"vault_mount"`
	VaultPath      string `toml:"vault_path"`
	VaultNamespace string `toml:"vault_namespace"`

	// GCP Secret Manager settings
	GCPProject string `toml:"gcp_project"`
	GCPPrefix  string `toml:"gcp_prefix"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:   ProviderTypeEnv,
		CacheTTL:   5 * time.Minute,
		EnvPrefix:  "AOCORE_SECRET_",
		AWSPrefix:  "/aocore/",
		VaultMount: "secret",
		VaultPath:  "aocore",
		GCPPrefix:  "aocore-",
	}
}

// LoadConfigFromEnv loads configuration from environment variables
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if p := os.Getenv("AOCORE_SECRETS_PROVIDER"); p != "" {
		cfg.Provider = ProviderType(strings.ToLower(p))
	}
	if ttl := os.Getenv("AOCORE_SECRETS_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.CacheTTL = d
		}
	}
	if p := os.Getenv("AOCORE_SECRETS_ENV_PREFIX"); p != "" {
		cfg.EnvPrefix = p
	}

	// AWS
	cfg.AWSRegion = firstEnv("AOCORE_SECRETS_AWS_REGION", "AWS_REGION")
	if p := os.Getenv("AOCORE_SECRETS_AWS_PREFIX"); p != "" {
		cfg.AWSPrefix = p
	}
	cfg.AWSEndpoint = os.Getenv("AOCORE_SECRETS_AWS_ENDPOINT")

	// Vault
	cfg.VaultAddr = firstEnv("AOCORE_SECRETS_VAULT_ADDR", "VAULT_ADDR")
	cfg.VaultToken = firstEnv("AOCORE_SECRETS_VAULT_TOKEN", "VAULT_TOKEN")
	if m := os.Getenv("AOCORE_SECRETS_VAULT_MOUNT"); m != "" {
		cfg.VaultMount = m
	}
	if p := os.Getenv("AOCORE_SECRETS_VAULT_PATH"); p != "" {
		cfg.VaultPath = p
	}
	cfg.VaultNamespace = os.Getenv("AOCORE_SECRETS_VAULT_NAMESPACE")

	// GCP
	cfg.GCPProject = firstEnv("AOCORE_SECRETS_GCP_PROJECT", "GOOGLE_CLOUD_PROJECT")
	if p := os.Getenv("AOCORE_SECRETS_GCP_PREFIX"); p != "" {
		cfg.GCPPrefix = p
	}

	return cfg
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// NewProvider creates a new secret provider based on configuration,
// wrapped in a cache when CacheTTL is positive.
func NewProvider(ctx context.Context, cfg *Config) (Provider, error) {
	if cfg == nil {
		cfg = LoadConfigFromEnv()
	}

	var (
		provider Provider
		err      error
	)
	switch cfg.Provider {
	case ProviderTypeAWSSM:
		provider, err = NewAWSSecretsManagerProvider(ctx, cfg)
	case ProviderTypeVault:
		provider, err = NewVaultProvider(cfg)
	case ProviderTypeGCPSM:
		provider, err = NewGCPSecretManagerProvider(ctx, cfg)
	case ProviderTypeEnv, "":
		provider = NewEnvProvider(cfg.EnvPrefix)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL > 0 {
		return NewCachingProvider(provider, cfg.CacheTTL), nil
	}
	return provider, nil
}

// EnvProvider reads secrets from environment variables
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates a new environment variable provider
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

var envKeyReplacer = strings.NewReplacer("-", "_", "/", "_", ".", "_")

// Get reads prefix + KEY, with "-", "/" and "." mapped to "_".
func (p *EnvProvider) Get(ctx context.Context, key string) (string, error) {
	value := os.Getenv(p.prefix + strings.ToUpper(envKeyReplacer.Replace(key)))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// Name returns the provider name
func (p *EnvProvider) Name() string {
	return "env"
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// CachingProvider memoizes successful lookups for a fixed TTL.
// Misses and errors are never cached.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cachedSecret
}

// NewCachingProvider wraps inner with a TTL cache.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedSecret),
	}
}

func (p *CachingProvider) Get(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	entry, ok := p.entries[key]
	p.mu.Unlock()
	if ok && p.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, err := p.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.entries[key] = cachedSecret{value: value, expiresAt: p.now().Add(p.ttl)}
	p.mu.Unlock()
	return value, nil
}

func (p *CachingProvider) Name() string {
	return p.inner.Name() + "+cache"
}
