package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aocore",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"store", "operation"},
	)

	storeOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aocore",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total storage operations by result",
		},
		[]string{"store", "operation", "result"},
	)
)

// SlowOperationThreshold is the duration above which a successful
// operation is logged as slow.
const SlowOperationThreshold = 100 * time.Millisecond

// Instrument runs a storage operation and records its duration and result.
// Expected outcomes (not found, duplicate, invalid state) are counted under
// their own result label and logged at debug; anything else is an error.
func Instrument[T any](
	ctx context.Context,
	store string,
	operation string,
	fn func() (T, error),
) (T, error) {
	start := time.Now()
	result, err := fn()
	duration := time.Since(start)

	storeOperationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())

	if err != nil {
		kind := ClassifyError(err)
		storeOperationTotal.WithLabelValues(store, operation, kind).Inc()

		if isExpected(kind) {
			slog.DebugContext(ctx, "Storage operation returned expected error",
				"store", store,
				"operation", operation,
				"result", kind)
		} else {
			slog.ErrorContext(ctx, "Storage operation failed",
				"store", store,
				"operation", operation,
				"duration_ms", duration.Milliseconds(),
				"error", err)
		}
		return result, err
	}

	storeOperationTotal.WithLabelValues(store, operation, "success").Inc()
	if duration > SlowOperationThreshold {
		slog.WarnContext(ctx, "Slow storage operation",
			"store", store,
			"operation", operation,
			"duration_ms", duration.Milliseconds())
	}

	return result, nil
}

// InstrumentVoid wraps a storage operation that returns only an error.
func InstrumentVoid(ctx context.Context, store, operation string, fn func() error) error {
	_, err := Instrument(ctx, store, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// ClassifyError returns a label-safe name for err.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func isExpected(kind string) bool {
	return kind == "not_found" || kind == "duplicate_key"
}
