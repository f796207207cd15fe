package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotFound, "not_found"},
		{fmt.Errorf("lookup: %w", ErrNotFound), "not_found"},
		{ErrDuplicateKey, "duplicate_key"},
		{fmt.Errorf("complete: %w", ErrInvalidState), "invalid_state"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestInstrument_PassesThroughResult(t *testing.T) {
	got, err := Instrument(context.Background(), "test_store", "Get", func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	if v := testutil.ToFloat64(storeOperationTotal.WithLabelValues("test_store", "Get", "success")); v < 1 {
		t.Errorf("expected success counter to be incremented, got %v", v)
	}
}

func TestInstrumentVoid_CountsErrorsByKind(t *testing.T) {
	before := testutil.ToFloat64(storeOperationTotal.WithLabelValues("test_store", "Complete", "invalid_state"))

	err := InstrumentVoid(context.Background(), "test_store", "Complete", func() error {
		return ErrInvalidState
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	after := testutil.ToFloat64(storeOperationTotal.WithLabelValues("test_store", "Complete", "invalid_state"))
	if after != before+1 {
		t.Errorf("expected invalid_state counter to grow by 1, got %v -> %v", before, after)
	}
}
