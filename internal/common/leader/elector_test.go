package leader

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("aocore-sweeper-leader")

	if cfg.LockName != "aocore-sweeper-leader" {
		t.Errorf("Expected LockName 'aocore-sweeper-leader', got '%s'", cfg.LockName)
	}
	if cfg.InstanceID == "" {
		t.Error("Expected InstanceID to be set")
	}
	if cfg.TTL != 30*time.Second {
		t.Errorf("Expected TTL 30s, got %v", cfg.TTL)
	}
	if cfg.RefreshInterval >= cfg.TTL {
		t.Errorf("RefreshInterval %v should be shorter than TTL %v", cfg.RefreshInterval, cfg.TTL)
	}
}

func TestStaticElectorIsAlwaysPrimary(t *testing.T) {
	var e Elector = NewStaticElector("single")

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start returned %v", err)
	}
	if !e.IsPrimary() {
		t.Error("Static elector should be primary")
	}
	e.Stop()
	if !e.IsPrimary() {
		t.Error("Static elector should stay primary after Stop")
	}
	if e.InstanceID() != "single" {
		t.Errorf("Expected InstanceID 'single', got '%s'", e.InstanceID())
	}
}

func TestRedisElectorNotPrimaryBeforeStart(t *testing.T) {
	e := NewRedisLeaderElector(nil, &Config{InstanceID: "a", LockName: "lock", TTL: time.Second, RefreshInterval: time.Second})

	if e.IsPrimary() {
		t.Error("New elector should not be primary")
	}
	if e.InstanceID() != "a" {
		t.Errorf("Expected InstanceID 'a', got '%s'", e.InstanceID())
	}
}

func TestRedisElectorCallbacks(t *testing.T) {
	e := NewRedisLeaderElector(nil, nil)

	became, lost := false, false
	e.OnBecomeLeader(func() { became = true })
	e.OnLoseLeadership(func() { lost = true })

	e.onBecomeLeader()
	e.onLoseLeadership()

	if !became || !lost {
		t.Errorf("callbacks not invoked: became=%v lost=%v", became, lost)
	}
	if e.config.LockName != "aocore-leader" {
		t.Errorf("Expected default LockName, got '%s'", e.config.LockName)
	}
}
