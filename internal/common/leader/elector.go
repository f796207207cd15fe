// Package leader provides leader election for singleton background jobs.
package leader

import (
	"context"
	"os"
	"time"
)

// Elector reports whether this instance should run singleton work.
type Elector interface {
	Start(ctx context.Context) error
	Stop()
	IsPrimary() bool
	InstanceID() string
}

// Config holds configuration for leader election
type Config struct {
	// InstanceID uniquely identifies this instance (defaults to hostname)
	InstanceID string

	// LockName is the key of the lock (e.g. "aocore-sweeper-leader")
	LockName string

	// TTL is how long the lock is valid before expiring (default: 30s)
	TTL time.Duration

	// RefreshInterval is how often to refresh the lock while primary (default: 10s)
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(lockName string) *Config {
	instanceID, _ := os.Hostname()
	if instanceID == "" {
		instanceID = "instance-" + time.Now().Format("20060102150405")
	}

	return &Config{
		InstanceID:      instanceID,
		LockName:        lockName,
		TTL:             30 * time.Second,
		RefreshInterval: 10 * time.Second,
	}
}

// StaticElector is always primary. Used when no Redis is configured and
// a single instance runs.
type StaticElector struct {
	id string
}

func NewStaticElector(instanceID string) *StaticElector {
	return &StaticElector{id: instanceID}
}

func (e *StaticElector) Start(context.Context) error { return nil }
func (e *StaticElector) Stop()                       {}
func (e *StaticElector) IsPrimary() bool             { return true }
func (e *StaticElector) InstanceID() string          { return e.id }
