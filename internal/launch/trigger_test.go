package launch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/candidate"
	"launch-radar/internal/domain"
)

func newTestTrigger(executor Executor) (*Trigger, *candidate.Cache, candidate.Guard, *bus.Bus) {
	guard := candidate.NewMemoryGuard()
	cache := candidate.NewCache()
	b := bus.New()
	trigger := NewTrigger(guard, cache, executor, b, nil, zap.NewNop())
	return trigger, cache, guard, b
}

func seedCandidate(cache *candidate.Cache, key string) {
	cache.Upsert(key, &domain.GroqAnalysis{
		ShouldLaunch:    true,
		ConfidenceScore: 0.8,
		Score1To10:      9,
		Ticker:          "PEPE2",
		Name:            "Pepe Two",
	}, "tweet 1881", domain.StatusCandidate)
}

func TestFire_Success(t *testing.T) {
	stub := &StubExecutor{}
	trigger, cache, guard, b := newTestTrigger(stub)

	key := "PEPE2-1881"
	seedCandidate(cache, key)

	result, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2", Name: "Pepe Two"})
	if err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if result.Mint == "" || result.Signature == "" {
		t.Error("expected mint and signature in result")
	}

	cand, _ := cache.Get(key)
	if cand.Status != domain.StatusLaunched {
		t.Errorf("expected status launched, got %s", cand.Status)
	}
	if !guard.Has(key) {
		t.Error("guard must keep holding the key after success")
	}
	if got := len(b.EventsByType(bus.EventTokenCreated, 0)); got != 1 {
		t.Errorf("expected 1 token:created event, got %d", got)
	}
}

func TestFire_SecondTriggerBlocked(t *testing.T) {
	stub := &StubExecutor{}
	trigger, cache, _, _ := newTestTrigger(stub)

	key := "PEPE2-1881"
	seedCandidate(cache, key)

	if _, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"}); err != nil {
		t.Fatalf("first Fire failed: %v", err)
	}

	_, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"})
	if !errors.Is(err, ErrDuplicateLaunch) {
		t.Fatalf("expected ErrDuplicateLaunch, got %v", err)
	}
	if stub.Calls() != 1 {
		t.Errorf("executor must be called exactly once, got %d", stub.Calls())
	}
}

func TestFire_AtMostOnceUnderConcurrency(t *testing.T) {
	// Hold the winning call in flight while the rest race the guard.
	stub := &StubExecutor{Gate: make(chan struct{})}
	trigger, cache, _, _ := newTestTrigger(stub)

	key := "PEPE2-1881"
	seedCandidate(cache, key)

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"})
			errs <- err
		}()
	}

	// Unblock the single in-flight executor call.
	close(stub.Gate)
	wg.Wait()
	close(errs)

	var won, blocked int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrDuplicateLaunch):
			blocked++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if blocked != n-1 {
		t.Errorf("expected %d blocked triggers, got %d", n-1, blocked)
	}
	if stub.Calls() != 1 {
		t.Errorf("executor must be reached exactly once, got %d calls", stub.Calls())
	}
}

func TestFire_FailureReleasesGuardAndEmits(t *testing.T) {
	stub := &StubExecutor{Err: errors.New("rpc unavailable")}
	trigger, cache, guard, b := newTestTrigger(stub)

	key := "PEPE2-1881"
	seedCandidate(cache, key)

	if _, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"}); err == nil {
		t.Fatal("expected executor error to surface")
	}

	cand, _ := cache.Get(key)
	if cand.Status != domain.StatusFailed {
		t.Errorf("expected status failed, got %s", cand.Status)
	}
	if guard.Has(key) {
		t.Error("guard key must be released after failure")
	}
	if got := len(b.EventsByType(bus.EventTokenFailed, 0)); got != 1 {
		t.Errorf("expected 1 token:failed event, got %d", got)
	}
}

func TestFire_RetryAfterFailureSucceedsExactlyOnce(t *testing.T) {
	stub := &StubExecutor{Err: errors.New("rpc unavailable")}
	trigger, cache, _, _ := newTestTrigger(stub)

	key := "PEPE2-1881"
	seedCandidate(cache, key)

	if _, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"}); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	if !trigger.Retry(key) {
		t.Fatal("Retry on a failed candidate must re-arm")
	}
	cand, _ := cache.Get(key)
	if cand.Status != domain.StatusCandidate {
		t.Errorf("expected status candidate after retry, got %s", cand.Status)
	}

	stub.Err = nil
	if _, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"}); err != nil {
		t.Fatalf("retried Fire failed: %v", err)
	}

	// The key is held again: no further attempt may pass.
	if _, err := trigger.Fire(context.Background(), key, &domain.LaunchRequest{Ticker: "PEPE2"}); !errors.Is(err, ErrDuplicateLaunch) {
		t.Errorf("expected ErrDuplicateLaunch after successful retry, got %v", err)
	}
	if stub.Calls() != 2 {
		t.Errorf("expected exactly 2 executor calls, got %d", stub.Calls())
	}
}

func TestRetry_OnlyFromFailedState(t *testing.T) {
	stub := &StubExecutor{}
	trigger, cache, _, _ := newTestTrigger(stub)

	if trigger.Retry("unknown-key") {
		t.Error("Retry on unknown key must return false")
	}

	key := "PEPE2-1881"
	seedCandidate(cache, key)
	if trigger.Retry(key) {
		t.Error("Retry on a non-failed candidate must return false")
	}
}
