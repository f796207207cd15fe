package execution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.aocore.tech/internal/common/metrics"
)

func strPtr(s string) *string { return &s }

func newTestLedger(now time.Time) (*Ledger, *MemoryRepository) {
	repo := NewMemoryRepository()
	l := NewLedger(repo)
	l.now = func() time.Time { return now }
	return l, repo
}

func TestBegin_InsertsPending(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	rec, err := l.Begin(ctx, "endpoint-1", strPtr("user-1"), map[string]any{"to": "+15551234567"})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, rec.Status)
	assert.Nil(t, rec.ExecutionTimeMs)
	assert.Nil(t, rec.ErrorMessage)
	assert.Equal(t, 1, repo.Count())

	stored, err := l.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "endpoint-1", stored.WorkflowEndpointID)
	assert.Equal(t, "+15551234567", stored.InputPayload["to"])
}

func TestBegin_PropagatesStorageError(t *testing.T) {
	l, repo := newTestLedger(time.Now())
	repo.InsertErr = errors.New("write concern timeout")

	_, err := l.Begin(context.Background(), "e", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 0, repo.Count())
}

func TestComplete_SetsOutputAndTiming(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(time.Now())
	rec, err := l.Begin(ctx, "e", nil, map[string]any{})
	require.NoError(t, err)

	done, err := l.Complete(ctx, rec.ID, map[string]any{"ok": true}, 42)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, done.Status)
	assert.Equal(t, map[string]any{"ok": true}, done.OutputPayload)
	require.NotNil(t, done.ExecutionTimeMs)
	assert.Equal(t, int64(42), *done.ExecutionTimeMs)
	assert.Nil(t, done.ErrorMessage)
	assert.NotNil(t, done.CompletedAt)
}

func TestTransitions_DoubleCompletionIsRejected(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(time.Now())

	terminal := []struct {
		name  string
		first func(id string) error
	}{
		{"complete", func(id string) error { _, err := l.Complete(ctx, id, map[string]any{}, 1); return err }},
		{"fail", func(id string) error { _, err := l.Fail(ctx, id, "HTTP 500: boom", 1); return err }},
		{"timeout", func(id string) error { _, err := l.Timeout(ctx, id, "timed out after 30s", 1); return err }},
	}

	for _, tt := range terminal {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := l.Begin(ctx, "e", nil, nil)
			require.NoError(t, err)
			require.NoError(t, tt.first(rec.ID))
			before, err := l.GetByID(ctx, rec.ID)
			require.NoError(t, err)

			invalidBefore := testutil.ToFloat64(metrics.LedgerInvalidTransitions)

			_, err = l.Complete(ctx, rec.ID, map[string]any{"late": true}, 99)
			assert.ErrorIs(t, err, ErrInvalidState)
			_, err = l.Fail(ctx, rec.ID, "late", 99)
			assert.ErrorIs(t, err, ErrInvalidState)

			after, err := l.GetByID(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, invalidBefore+2, testutil.ToFloat64(metrics.LedgerInvalidTransitions))
		})
	}
}

func TestTransition_UnknownRecord(t *testing.T) {
	l, _ := newTestLedger(time.Now())

	_, err := l.Fail(context.Background(), "missing", "x", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFail_StoresMessage(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(time.Now())
	rec, err := l.Begin(ctx, "e", nil, nil)
	require.NoError(t, err)

	failed, err := l.Fail(ctx, rec.ID, "HTTP 503: unavailable", -5)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "HTTP 503: unavailable", *failed.ErrorMessage)
	assert.Equal(t, int64(0), *failed.ExecutionTimeMs)
	assert.Nil(t, failed.OutputPayload)
}

func TestList_FiltersOrdersAndClamps(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	l := NewLedger(repo)

	for i := 0; i < 120; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		l.now = func() time.Time { return at }
		endpoint := "a"
		if i%2 == 1 {
			endpoint = "b"
		}
		_, err := l.Begin(ctx, endpoint, strPtr("u1"), nil)
		require.NoError(t, err)
	}

	all, err := l.List(ctx, ListFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, DefaultLimit)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	capped, err := l.List(ctx, ListFilter{}, 1000)
	require.NoError(t, err)
	assert.Len(t, capped, MaxLimit)

	onlyB, err := l.List(ctx, ListFilter{EndpointID: strPtr("b")}, 100)
	require.NoError(t, err)
	assert.Len(t, onlyB, 60)
	for _, r := range onlyB {
		assert.Equal(t, "b", r.WorkflowEndpointID)
	}

	none, err := l.List(ctx, ListFilter{UserID: strPtr("someone-else")}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindStalePending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(now.Add(-10 * time.Minute))

	old, err := l.Begin(ctx, "e", nil, nil)
	require.NoError(t, err)
	oldDone, err := l.Begin(ctx, "e", nil, nil)
	require.NoError(t, err)
	_, err = l.Complete(ctx, oldDone.ID, map[string]any{}, 1)
	require.NoError(t, err)

	// Same age, but one call may still be running for another five minutes.
	expired, err := l.BeginWithDeadline(ctx, "e", nil, nil, time.Minute)
	require.NoError(t, err)
	_, err = l.BeginWithDeadline(ctx, "e", nil, nil, 15*time.Minute)
	require.NoError(t, err)

	l.now = func() time.Time { return now }
	_, err = l.Begin(ctx, "e", nil, nil)
	require.NoError(t, err)

	stale, err := l.FindStalePending(ctx, 5*time.Minute, 2*time.Minute, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(stale))
	for _, r := range stale {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{old.ID, expired.ID}, ids)

	pending, err := l.CountByStatus(ctx, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pending)
}

func TestBeginWithDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(now)

	rec, err := l.BeginWithDeadline(context.Background(), "e", nil, nil, 900*time.Second)
	require.NoError(t, err)
	require.NotNil(t, rec.DeadlineAt)
	assert.Equal(t, now.Add(15*time.Minute), *rec.DeadlineAt)

	unbounded, err := l.Begin(context.Background(), "e", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, unbounded.DeadlineAt)
}

func TestTransitions_ConcurrentCompleteAndFailOneWins(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(time.Now())

	for i := 0; i < 50; i++ {
		rec, err := l.Begin(ctx, "e", nil, nil)
		require.NoError(t, err)

		var (
			wg             sync.WaitGroup
			start          = make(chan struct{})
			completeErr    error
			failErr        error
			completeResult *Record
			failResult     *Record
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			completeResult, completeErr = l.Complete(ctx, rec.ID, map[string]any{"ok": true}, 5)
		}()
		go func() {
			defer wg.Done()
			<-start
			failResult, failErr = l.Fail(ctx, rec.ID, "HTTP 500: boom", 5)
		}()
		close(start)
		wg.Wait()

		stored, err := l.GetByID(ctx, rec.ID)
		require.NoError(t, err)

		if completeErr == nil {
			assert.ErrorIs(t, failErr, ErrInvalidState)
			assert.Nil(t, failResult)
			assert.Equal(t, StatusSuccess, stored.Status)
			assert.Equal(t, completeResult, stored)
		} else {
			assert.ErrorIs(t, completeErr, ErrInvalidState)
			require.NoError(t, failErr)
			assert.Nil(t, completeResult)
			assert.Equal(t, StatusFailed, stored.Status)
			assert.Equal(t, failResult, stored)
		}
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-3))
	assert.Equal(t, 100, ClampLimit(101))
	assert.Equal(t, 7, ClampLimit(7))
}
