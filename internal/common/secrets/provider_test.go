package secrets

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
	value string
	err   error
}

func (p *countingProvider) Get(ctx context.Context, key string) (string, error) {
	p.calls++
	return p.value, p.err
}

func (p *countingProvider) Name() string { return "counting" }

func TestEnvProvider_Get(t *testing.T) {
	t.Setenv("AOCORE_SECRET_HOOKS_ACME_SMS", "s3cret")

	p := NewEnvProvider("AOCORE_SECRET_")

	got, err := p.Get(context.Background(), "hooks/acme-sms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("expected s3cret, got %q", got)
	}

	if _, err := p.Get(context.Background(), "missing"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestCachingProvider_CachesHitsUntilExpiry(t *testing.T) {
	inner := &countingProvider{value: "v1"}
	p := NewCachingProvider(inner, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if v, err := p.Get(context.Background(), "k"); err != nil || v != "v1" {
			t.Fatalf("unexpected result %q, %v", v, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", inner.calls)
	}

	now = now.Add(2 * time.Minute)
	inner.value = "v2"
	if v, _ := p.Get(context.Background(), "k"); v != "v2" {
		t.Errorf("expected refreshed value v2, got %q", v)
	}
}

func TestCachingProvider_DoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: ErrSecretNotFound}
	p := NewCachingProvider(inner, time.Minute)

	p.Get(context.Background(), "k")
	p.Get(context.Background(), "k")

	if inner.calls != 2 {
		t.Errorf("expected misses to reach the backend each time, got %d calls", inner.calls)
	}
}

func TestNewProvider_UnknownType(t *testing.T) {
	_, err := NewProvider(context.Background(), &Config{Provider: "encrypted"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewProvider_EnvWithCache(t *testing.T) {
	cfg := DefaultConfig()
	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "env+cache" {
		t.Errorf("expected env+cache, got %q", p.Name())
	}
}
