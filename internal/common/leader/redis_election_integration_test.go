//go:build integration

package leader

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRedisElection_SingleLeader(t *testing.T) {
	client := startRedis(t)
	cfg := func(id string) *Config {
		return &Config{InstanceID: id, LockName: "aocore-sweeper-leader", TTL: 2 * time.Second, RefreshInterval: 200 * time.Millisecond}
	}

	a := NewRedisLeaderElector(client, cfg("a"))
	b := NewRedisLeaderElector(client, cfg("b"))
	_ = a.Start(context.Background())
	waitFor(t, a.IsPrimary)
	_ = b.Start(context.Background())
	time.Sleep(500 * time.Millisecond)

	if b.IsPrimary() {
		t.Fatal("second instance should not be primary while the first holds the lock")
	}
	leader, err := a.CurrentLeader(context.Background())
	if err != nil || leader != "a" {
		t.Fatalf("CurrentLeader = %q, %v", leader, err)
	}

	a.Stop()
	waitFor(t, b.IsPrimary)
	b.Stop()
}
