package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.aocore.tech/internal/common/secrets"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("DISPATCH_TIMEOUT", "45s")
	t.Setenv("EXECUTE_RATE_LIMIT", "0")
	t.Setenv("QUEUE_TYPE", "none")
	t.Setenv("SWEEPER_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 45*time.Second, cfg.Dispatch.Timeout)
	assert.Zero(t, cfg.Dispatch.RateLimitPerMinute)
	assert.Equal(t, "none", cfg.Queue.Type)
	assert.Equal(t, 60*time.Second, cfg.Sweeper.Interval, "unparseable values keep the default")
	assert.Equal(t, 17*time.Minute, cfg.SweeperStaleAfter(), "longest endpoint override plus grace")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.HMACSecret = "secret"
	require.NoError(t, cfg.Validate())

	cfg = Defaults()
	cfg.Queue.Type = "kafka"
	cfg.Queue.SQS.QueueURL = ""
	cfg.Dispatch.Timeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth needs a JWT secret")
	assert.Contains(t, err.Error(), `unknown queue.type "kafka"`)
	assert.Contains(t, err.Error(), "dispatch.timeout")

	cfg = Defaults()
	cfg.Auth.Disabled = true
	cfg.Queue.Type = "sqs"
	assert.ErrorContains(t, cfg.Validate(), "queue_url")
}

func TestValidate_StaleAfterMustExceedLongestCall(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Disabled = true

	cfg.Sweeper.StaleAfter = 5 * time.Minute
	assert.ErrorContains(t, cfg.Validate(), "must exceed the longest call timeout 15m0s")

	cfg.Sweeper.StaleAfter = 15 * time.Minute
	assert.Error(t, cfg.Validate())

	cfg.Sweeper.StaleAfter = 16 * time.Minute
	assert.NoError(t, cfg.Validate())

	cfg.Sweeper.StaleAfter = 0
	cfg.Dispatch.Timeout = 20 * time.Minute
	assert.Equal(t, 20*time.Minute, cfg.MaxCallTimeout())
	assert.Equal(t, 22*time.Minute, cfg.SweeperStaleAfter())
}

func TestExampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aocore.toml")
	require.NoError(t, WriteExampleConfig(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "aocore", cfg.MongoDB.Database)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, 168*time.Hour, cfg.Queue.NATS.MaxAge)
	assert.Equal(t, secrets.ProviderTypeEnv, cfg.Secrets.Provider)
	assert.Equal(t, 5*time.Minute, cfg.Secrets.CacheTTL)
	assert.Zero(t, cfg.Sweeper.StaleAfter)
	assert.Equal(t, 2*time.Minute, cfg.Sweeper.Grace)
}

func TestLoadWithFile_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aocore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mongodb]
database = "from-file"

[auth]
hmac_secret = "file-secret"

[sweeper]
stale_after = "20m"
`), 0o600))

	t.Setenv("AOCORE_CONFIG", path)
	t.Setenv("MONGODB_DATABASE", "from-env")

	cfg, err := LoadWithFile()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MongoDB.Database)
	assert.Equal(t, "file-secret", cfg.Auth.HMACSecret)
	assert.Equal(t, 20*time.Minute, cfg.SweeperStaleAfter())
}

func TestLoadWithFile_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aocore.toml")
	require.NoError(t, os.WriteFile(path, []byte("[http]\nprot = 8080\n"), 0o600))
	t.Setenv("AOCORE_CONFIG", path)

	_, err := LoadWithFile()
	assert.ErrorContains(t, err, "unknown keys")
}
