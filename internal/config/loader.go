package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigPaths lists the paths to search for config files
var ConfigPaths = []string{
	"aocore.toml",
	"config.toml",
	"./config/aocore.toml",
	"/etc/aocore/config.toml",
}

// LoadFromFile loads configuration from a TOML file on top of the defaults.
// Durations are written as strings ("30s", "2m").
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in config file: %v", undecoded)
	}
	return nil
}

// LoadWithFile loads the config file (if any), then overrides with env vars
func LoadWithFile() (*Config, error) {
	configPath := FindConfigFile()

	cfg := Defaults()
	if configPath != "" {
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns AOCORE_CONFIG, or the first standard path that
// exists, or "" when there is no config file.
func FindConfigFile() string {
	if path := os.Getenv("AOCORE_CONFIG"); path != "" {
		return path
	}
	for _, path := range ConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WriteExampleConfig writes an example configuration file
func WriteExampleConfig(path string) error {
	example := `# aocore configuration
# Environment variables override these settings

data_dir = "./data"
dev_mode = false

[http]
port = 8080
cors_origins = ["http://localhost:3000"]

[mongodb]
uri = "mongodb://localhost:27017/?replicaSet=rs0&directConnection=true"
database = "aocore"

[redis]
url = ""  # e.g. redis://localhost:6379/0; empty runs a single sweeper leader

[queue]
type = "embedded"  # embedded, nats, sqs, or none
data_dir = "./data/nats"

[queue.nats]
url = "nats://localhost:4222"
port = 4222
stream_name = "AOCORE_EXECUTIONS"
subjects = ["aocore.execution.>"]
max_age = "168h"

[queue.sqs]
queue_url = ""
region = "us-east-1"
endpoint = ""

[secrets]
provider = "env"  # env, aws-sm, vault, gcp-sm
cache_ttl = "5m"
env_prefix = "AOCORE_SECRET_"

# AWS Secrets Manager
aws_region = ""
aws_prefix = "/aocore/"
aws_endpoint = ""

# HashiCorp Vault
vault_addr = ""
vault_mount = "secret"
vault_path = "aocore"
vault_namespace = ""

# GCP Secret Manager
gcp_project = ""
gcp_prefix = "aocore-"

[auth]
disabled = false
hmac_secret = ""
public_key_path = ""
issuer = ""
audience = ""
leeway = "30s"

[dispatch]
timeout = "30s"
max_response_bytes = 1048576
signing_secret = ""
circuit_breaker = true
rate_limit_per_minute = 60
rate_limit_burst = 10

[sweeper]
enabled = true
interval = "60s"
grace = "2m"
# stale_after = "17m"  # records without a deadline; defaults to the longest call timeout + grace
batch_size = 100

[leader]
instance_id = ""
ttl = "30s"
refresh_interval = "10s"
`

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return os.WriteFile(path, []byte(example), 0644)
}
