package launch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/candidate"
	"launch-radar/internal/domain"
	"launch-radar/internal/observability"
)

// Trigger drives a gated candidate through the external launch with
// at-most-once semantics per key. The dedup guard key is acquired before
// the external call is issued and released only if the call fails, which
// re-arms the retry path.
type Trigger struct {
	guard    candidate.Guard
	cache    *candidate.Cache
	executor Executor
	events   *bus.Bus
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTrigger creates a Trigger. metrics may be nil.
func NewTrigger(guard candidate.Guard, cache *candidate.Cache, executor Executor, events *bus.Bus, metrics *observability.Metrics, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		guard:    guard,
		cache:    cache,
		executor: executor,
		events:   events,
		metrics:  metrics,
		logger:   logger,
	}
}

// Fire launches the candidate identified by key. Exactly one concurrent
// Fire per key reaches the executor; the rest observe the guard held and
// return ErrDuplicateLaunch. On executor failure the key is released, the
// candidate is marked failed, and a token:failed event is emitted.
func (t *Trigger) Fire(ctx context.Context, key string, req *domain.LaunchRequest) (*domain.LaunchResult, error) {
	// Check-and-mark must happen before the first suspension point of the
	// action path; a held key means another trigger already won.
	if !t.guard.TryAcquire(key) {
		t.logger.Info("duplicate launch trigger blocked", zap.String("key", key))
		if t.metrics != nil {
			t.metrics.DuplicateTriggersBlocked.Inc()
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicateLaunch, key)
	}

	t.cache.UpdateStatus(key, domain.StatusQueued)
	if cand, ok := t.cache.Get(key); ok {
		t.events.Emit(bus.CandidateQueued{Candidate: cand})
	}
	if t.metrics != nil {
		t.metrics.LaunchAttempts.Inc()
	}

	result, err := t.executor.Launch(ctx, req)
	if err != nil {
		// Release before recording failure so a retry can re-acquire.
		t.guard.Release(key)
		t.cache.UpdateStatus(key, domain.StatusFailed)
		if t.metrics != nil {
			t.metrics.LaunchesFailed.Inc()
		}
		t.logger.Error("launch failed",
			zap.String("key", key),
			zap.String("ticker", req.Ticker),
			zap.Error(err),
		)
		t.events.Emit(bus.TokenFailed{Key: key, Ticker: req.Ticker, Err: err.Error()})
		return nil, fmt.Errorf("launch %s: %w", key, err)
	}

	t.cache.UpdateStatus(key, domain.StatusLaunched)
	if t.metrics != nil {
		t.metrics.LaunchesSucceeded.Inc()
	}
	t.logger.Info("token launched",
		zap.String("key", key),
		zap.String("ticker", req.Ticker),
		zap.String("mint", result.Mint),
	)
	t.events.Emit(bus.TokenCreated{
		Key:       key,
		Ticker:    req.Ticker,
		Name:      req.Name,
		Mint:      result.Mint,
		Signature: result.Signature,
	})
	return result, nil
}

// Retry re-arms a failed candidate: its status returns to candidate and
// the next Fire for the key may reach the executor again. Returns false
// if the key is unknown or not in the failed state.
func (t *Trigger) Retry(key string) bool {
	cand, ok := t.cache.Get(key)
	if !ok || cand.Status != domain.StatusFailed {
		return false
	}
	return t.cache.UpdateStatus(key, domain.StatusCandidate)
}
