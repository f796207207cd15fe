package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func up(name string) CheckFunc {
	return func(context.Context) Check { return Check{Name: name, Status: StatusUp} }
}

func down(name, reason string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusDown, Data: map[string]any{"error": reason}}
	}
}

func TestGetLiveness_AllHealthy(t *testing.T) {
	checker := NewChecker()
	checker.AddLivenessCheck(up("check1"))
	checker.AddLivenessCheck(up("check2"))

	response := checker.GetLiveness(context.Background())

	if response.Status != StatusUp {
		t.Errorf("Expected status UP, got %s", response.Status)
	}
	if len(response.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(response.Checks))
	}
}

func TestGetReadiness_OneUnhealthy(t *testing.T) {
	checker := NewChecker()
	checker.AddReadinessCheck(up("db"))
	checker.AddReadinessCheck(down("queue", "not reachable"))

	response := checker.GetReadiness(context.Background())

	if response.Status != StatusDown {
		t.Errorf("Expected status DOWN when one check fails, got %s", response.Status)
	}
	if response.Checks[0].Name != "db" || response.Checks[1].Name != "queue" {
		t.Errorf("Expected registration order, got %+v", response.Checks)
	}
}

func TestGetHealth_CombinesChecks(t *testing.T) {
	checker := NewChecker()
	checker.AddLivenessCheck(up("liveness"))
	checker.AddReadinessCheck(up("readiness"))

	response := checker.GetHealth(context.Background())

	if len(response.Checks) != 2 {
		t.Errorf("Expected 2 combined checks, got %d", len(response.Checks))
	}
}

func TestChecksRunWithDeadline(t *testing.T) {
	checker := NewChecker()
	checker.SetTimeout(20 * time.Millisecond)
	checker.AddReadinessCheck(MongoDBCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	start := time.Now()
	response := checker.GetReadiness(context.Background())

	if time.Since(start) > time.Second {
		t.Errorf("Check was not bounded by the timeout")
	}
	if response.Status != StatusDown {
		t.Errorf("Expected status DOWN, got %s", response.Status)
	}
	if response.Checks[0].Data["error"] != context.DeadlineExceeded.Error() {
		t.Errorf("Expected deadline error, got %v", response.Checks[0].Data)
	}
}

func TestHandlers(t *testing.T) {
	checker := NewChecker()
	checker.AddLivenessCheck(up("process"))
	checker.AddReadinessCheck(down("db", "connection timeout"))

	tests := []struct {
		path    string
		handler http.HandlerFunc
		want    int
	}{
		{"/q/health", checker.HandleHealth, http.StatusServiceUnavailable},
		{"/q/health/live", checker.HandleLive, http.StatusOK},
		{"/q/health/ready", checker.HandleReady, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
		})
	}
}

func TestHandleReady_Returns200WhenNoChecks(t *testing.T) {
	checker := NewChecker()

	w := httptest.NewRecorder()
	checker.HandleReady(w, httptest.NewRequest(http.MethodGet, "/q/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestNATSCheck(t *testing.T) {
	if check := NATSCheck(func() bool { return true })(context.Background()); check.Status != StatusUp {
		t.Errorf("Expected status UP, got %s", check.Status)
	}
	if check := NATSCheck(func() bool { return false })(context.Background()); check.Status != StatusDown {
		t.Errorf("Expected status DOWN, got %s", check.Status)
	}
}

func TestSQSCheck_Unhealthy(t *testing.T) {
	check := SQSCheck(func(context.Context) error {
		return errors.New("queue not accessible")
	})(context.Background())

	if check.Name != "SQS" || check.Status != StatusDown {
		t.Errorf("Expected SQS DOWN, got %+v", check)
	}
	if check.Data["error"] != "queue not accessible" {
		t.Errorf("Expected error in data, got %v", check.Data)
	}
}

func TestRedisCheck_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	check := RedisCheck(client)(context.Background())

	if check.Name != "Redis" || check.Status != StatusDown {
		t.Errorf("Expected Redis DOWN, got %+v", check)
	}
}

func TestServiceCheck(t *testing.T) {
	check := ServiceCheck("sweeper", func() error { return nil }, func() map[string]any {
		return map[string]any{"leader": true}
	})(context.Background())

	if check.Status != StatusUp || check.Data["leader"] != true {
		t.Errorf("Unexpected check %+v", check)
	}

	check = ServiceCheck("sweeper", func() error { return errors.New("stopped") }, nil)(context.Background())
	if check.Status != StatusDown || check.Data["error"] != "stopped" {
		t.Errorf("Unexpected check %+v", check)
	}
}
