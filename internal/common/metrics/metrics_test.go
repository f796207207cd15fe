package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDispatchExecutions_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(DispatchExecutions.WithLabelValues("send-sms", "success"))

	DispatchExecutions.WithLabelValues("send-sms", "success").Inc()
	DispatchExecutions.WithLabelValues("send-sms", "failed").Inc()

	if got := testutil.ToFloat64(DispatchExecutions.WithLabelValues("send-sms", "success")); got != before+1 {
		t.Errorf("expected success counter %v, got %v", before+1, got)
	}
}

func TestDispatchInFlight_GaugeOperations(t *testing.T) {
	DispatchInFlight.Set(0)
	DispatchInFlight.Inc()
	DispatchInFlight.Inc()
	DispatchInFlight.Dec()

	if got := testutil.ToFloat64(DispatchInFlight); got != 1 {
		t.Errorf("expected in-flight gauge 1, got %v", got)
	}
}

func TestMediatorCircuitBreakerState_Values(t *testing.T) {
	states := []int{CircuitBreakerClosed, CircuitBreakerOpen, CircuitBreakerHalfOpen}
	for _, s := range states {
		MediatorCircuitBreakerState.WithLabelValues("hooks.example.test").Set(float64(s))
		if got := testutil.ToFloat64(MediatorCircuitBreakerState.WithLabelValues("hooks.example.test")); got != float64(s) {
			t.Errorf("expected state %d, got %v", s, got)
		}
	}
}

func TestLedgerInvalidTransitions_Counter(t *testing.T) {
	before := testutil.ToFloat64(LedgerInvalidTransitions)
	LedgerInvalidTransitions.Inc()
	if got := testutil.ToFloat64(LedgerInvalidTransitions); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestHTTPRequestDuration_Observe(t *testing.T) {
	HTTPRequestDuration.WithLabelValues("POST", "/api/workflows/execute").Observe(0.2)

	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("expected at least one histogram series")
	}
}

func TestMetricsRegistered(t *testing.T) {
	collectors := []prometheus.Collector{
		DispatchExecutions,
		DispatchDuration,
		MediatorHTTPRequests,
		LedgerTransitions,
		RegistryAmbiguousResolutions,
		SweeperStaleRecovered,
		QueueMessagesPublished,
		HTTPRequestsTotal,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err == nil {
			t.Errorf("expected collector to already be registered by promauto")
		}
	}
}
