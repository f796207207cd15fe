// Package sweeper drives abandoned pending execution records to timeout.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.aocore.tech/internal/common/leader"
	"go.aocore.tech/internal/common/metrics"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/execution"
	"go.aocore.tech/internal/platform/webhook"
)

// LockName is the Redis key used for sweeper leader election.
const LockName = "aocore-sweeper-leader"

// Config holds configuration for the sweeper
type Config struct {
	// Interval is how often to look for stale records
	Interval time.Duration

	// Grace is how long a record may stay pending past its deadline_at
	Grace time.Duration

	// StaleAfter is how long a record without a deadline may stay pending.
	// It must exceed the longest call timeout an endpoint can ask for.
	StaleAfter time.Duration

	// BatchSize is the maximum records swept per tick
	BatchSize int
}

// DefaultConfig returns the defaults for a given dispatch timeout. Records are
// considered abandoned two minutes after the longest dispatch could end.
func DefaultConfig(dispatchTimeout time.Duration) Config {
	const grace = 2 * time.Minute
	return Config{
		Interval:   60 * time.Second,
		Grace:      grace,
		StaleAfter: max(dispatchTimeout, webhook.MaxTimeoutSeconds*time.Second) + grace,
		BatchSize:  100,
	}
}

// EndpointLookup resolves workflow names for lifecycle events.
type EndpointLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*webhook.Endpoint, error)
}

// Auditor records system operations.
type Auditor interface {
	LogSystem(ctx context.Context, entityType, entityID, operation string, operationData any)
}

// Sweeper periodically times out pending records whose dispatcher never
// recorded an outcome. Only the leader instance sweeps.
type Sweeper struct {
	ledger    *execution.Ledger
	endpoints EndpointLookup
	notifier  *execution.Notifier
	auditor   Auditor
	elector   leader.Elector
	config    Config
	now       func() time.Time

	wg        sync.WaitGroup
	cancel    context.CancelFunc
	running   bool
	runningMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a Sweeper. A nil elector means this instance is always leader.
func New(
	ledger *execution.Ledger,
	endpoints EndpointLookup,
	notifier *execution.Notifier,
	auditor Auditor,
	elector leader.Elector,
	config Config,
) *Sweeper {
	if elector == nil {
		elector = leader.NewStaticElector("local")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Sweeper{
		ledger:    ledger,
		endpoints: endpoints,
		notifier:  notifier,
		auditor:   auditor,
		elector:   elector,
		config:    config,
		now:       time.Now,
		ready:     make(chan struct{}),
	}
}

func (s *Sweeper) Name() string { return "sweeper" }

// Ready is closed once leader election has started.
func (s *Sweeper) Ready() <-chan struct{} { return s.ready }

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	s.runningMu.Unlock()
	defer s.wg.Done()

	if err := s.elector.Start(ctx); err != nil {
		return fmt.Errorf("start leader election: %w", err)
	}
	s.readyOnce.Do(func() { close(s.ready) })

	slog.Info("Execution sweeper started",
		"interval", s.config.Interval,
		"grace", s.config.Grace,
		"staleAfter", s.config.StaleAfter,
		"instanceId", s.elector.InstanceID())

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				slog.Error("Sweep failed", "error", err)
			}
		}
	}
}

// Stop stops the loop and releases leadership.
func (s *Sweeper) Stop(_ context.Context) error {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.runningMu.Unlock()

	cancel()
	s.wg.Wait()
	s.elector.Stop()
	metrics.SweeperLeaderState.Set(0)

	slog.Info("Execution sweeper stopped")
	return nil
}

// Health reports an error once the loop has stopped.
func (s *Sweeper) Health() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if !s.running {
		return errors.New("sweeper is not running")
	}
	return nil
}

// IsPrimary reports whether this instance currently sweeps.
func (s *Sweeper) IsPrimary() bool {
	return s.elector.IsPrimary()
}

// SweepOnce times out one batch of stale pending records and returns how many it moved.
// It does nothing when this instance is not the leader.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	if !s.IsPrimary() {
		metrics.SweeperLeaderState.Set(0)
		slog.Debug("Skipping sweep - not the leader")
		return 0, nil
	}
	metrics.SweeperLeaderState.Set(1)

	ctx = common.WithCorrelationID(ctx, "sweeper-"+s.now().UTC().Format("20060102T150405"))

	if pending, err := s.ledger.CountByStatus(ctx, execution.StatusPending); err == nil {
		metrics.SweeperPendingExecutions.Set(float64(pending))
	}

	stale, err := s.ledger.FindStalePending(ctx, s.config.StaleAfter, s.config.Grace, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find stale pending executions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	names := s.workflowNames(ctx, stale)

	swept := 0
	for _, record := range stale {
		elapsed := s.now().Sub(record.CreatedAt).Milliseconds()
		message := s.abandonedMessage(record)

		updated, err := s.ledger.Timeout(ctx, record.ID, message, elapsed)
		if err != nil {
			if errors.Is(err, execution.ErrInvalidState) || errors.Is(err, execution.ErrNotFound) {
				// The dispatcher recorded an outcome after the scan.
				continue
			}
			slog.Error("Failed to time out stale execution", "executionId", record.ID, "error", err)
			continue
		}

		swept++
		metrics.SweeperStaleRecovered.Inc()
		slog.Warn("Timed out abandoned execution",
			"executionId", record.ID,
			"workflowName", names[record.WorkflowEndpointID],
			"pendingFor", time.Duration(elapsed)*time.Millisecond)

		s.notifier.Notify(ctx, updated, names[record.WorkflowEndpointID])
		if s.auditor != nil {
			s.auditor.LogSystem(ctx, "Execution", record.ID, "SweepStaleExecution", map[string]any{
				"status":          updated.Status,
				"errorMessage":    message,
				"executionTimeMs": elapsed,
			})
		}
	}

	if len(stale) == s.config.BatchSize {
		slog.Info("Sweep batch full, remaining records wait for the next tick", "batchSize", s.config.BatchSize)
	}
	return swept, nil
}

func (s *Sweeper) abandonedMessage(record *execution.Record) string {
	if record.DeadlineAt != nil {
		return fmt.Sprintf("abandoned: no terminal state %s after deadline %s",
			s.config.Grace, record.DeadlineAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("abandoned: no terminal state after %s", s.config.StaleAfter)
}

// workflowNames maps endpoint ids to names. Missing endpoints map to "".
func (s *Sweeper) workflowNames(ctx context.Context, records []*execution.Record) map[string]string {
	names := make(map[string]string)
	if s.endpoints == nil {
		return names
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if !seen[r.WorkflowEndpointID] {
			seen[r.WorkflowEndpointID] = true
			ids = append(ids, r.WorkflowEndpointID)
		}
	}

	endpoints, err := s.endpoints.FindByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Failed to resolve workflow names for swept executions", "error", err)
		return names
	}
	for id, e := range endpoints {
		names[id] = e.WorkflowName
	}
	return names
}
