package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher metrics

	// DispatchExecutions counts execute calls by workflow and outcome.
	// outcome: success, failed, timeout, endpoint_not_found, ledger_error
	DispatchExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "dispatch",
			Name:      "executions_total",
			Help:      "Workflow executions by outcome",
		},
		[]string{"workflow", "outcome"},
	)

	// DispatchDuration tracks end-to-end execution time (ledger begin to terminal state)
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aocore",
			Subsystem: "dispatch",
			Name:      "execution_duration_seconds",
			Help:      "Workflow execution duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"workflow"},
	)

	// DispatchInFlight tracks executions currently waiting on a remote endpoint
	DispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aocore",
			Subsystem: "dispatch",
			Name:      "in_flight",
			Help:      "Executions currently awaiting a remote response",
		},
	)

	// Mediator metrics

	// MediatorHTTPRequests tracks outbound HTTP requests made by the mediator
	MediatorHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "mediator",
			Name:      "http_requests_total",
			Help:      "Total outbound HTTP requests made by the mediator",
		},
		[]string{"status_code", "method"},
	)

	// MediatorHTTPDuration tracks outbound HTTP request duration per target host
	MediatorHTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aocore",
			Subsystem: "mediator",
			Name:      "http_duration_seconds",
			Help:      "Outbound HTTP request duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"host"},
	)

	// MediatorCircuitBreakerState tracks circuit breaker state per target host
	// 0 = closed (healthy), 1 = open (tripped), 2 = half-open (testing)
	MediatorCircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aocore",
			Subsystem: "mediator",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// MediatorCircuitBreakerTrips counts transitions into the open state
	MediatorCircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "mediator",
			Name:      "circuit_breaker_trips_total",
			Help:      "Total circuit breaker trips",
		},
		[]string{"name"},
	)

	// Ledger metrics

	// LedgerTransitions counts terminal transitions by resulting status
	LedgerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "ledger",
			Name:      "transitions_total",
			Help:      "Execution record transitions by resulting status",
		},
		[]string{"status"},
	)

	// LedgerInvalidTransitions counts rejected transitions of non-pending records
	LedgerInvalidTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "ledger",
			Name:      "invalid_transitions_total",
			Help:      "Transitions rejected because the record was not pending",
		},
	)

	// Registry metrics

	// RegistryAmbiguousResolutions counts lookups that matched more than one active endpoint
	RegistryAmbiguousResolutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "registry",
			Name:      "ambiguous_resolutions_total",
			Help:      "Active endpoint lookups that matched more than one endpoint",
		},
	)

	// Sweeper metrics

	// SweeperStaleRecovered counts pending records driven to timeout by the sweeper
	SweeperStaleRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "sweeper",
			Name:      "stale_recovered_total",
			Help:      "Stuck pending executions moved to timeout",
		},
	)

	// SweeperPendingExecutions tracks the number of pending records seen at the last sweep
	SweeperPendingExecutions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aocore",
			Subsystem: "sweeper",
			Name:      "pending_executions",
			Help:      "Pending executions observed at the last sweep",
		},
	)

	// SweeperLeaderState is 1 while this instance holds the sweeper lock
	SweeperLeaderState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aocore",
			Subsystem: "sweeper",
			Name:      "leader_state",
			Help:      "Sweeper leadership (1=leader, 0=standby)",
		},
	)

	// Queue metrics

	// QueueMessagesPublished counts execution events published
	QueueMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "queue",
			Name:      "messages_published_total",
			Help:      "Total execution events published",
		},
		[]string{"subject"},
	)

	// QueuePublishErrors counts failed publishes
	QueuePublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "queue",
			Name:      "publish_errors_total",
			Help:      "Total execution event publish failures",
		},
		[]string{"subject"},
	)

	// HTTP API metrics

	// HTTPRequestsTotal tracks inbound API requests by route pattern
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks inbound API request duration by route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aocore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API request duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPRateLimited counts requests rejected by the execute rate limiter
	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter",
		},
	)
)

// CircuitBreakerState constants
const (
	CircuitBreakerClosed   = 0
	CircuitBreakerOpen     = 1
	CircuitBreakerHalfOpen = 2
)
