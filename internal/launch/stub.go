package launch

import (
	"context"
	"sync"
	"sync/atomic"

	"launch-radar/internal/domain"
)

// StubExecutor is an in-memory Executor for tests and dry runs. It
// records every request and returns canned results.
type StubExecutor struct {
	mu       sync.Mutex
	requests []*domain.LaunchRequest

	calls atomic.Int64

	// Err, when set, is returned instead of a result.
	Err error

	// Gate, when non-nil, is received from before returning, letting
	// tests hold calls in flight.
	Gate chan struct{}
}

// Compile-time interface check.
var _ Executor = (*StubExecutor)(nil)

// Launch records the request and returns a deterministic result.
func (s *StubExecutor) Launch(_ context.Context, req *domain.LaunchRequest) (*domain.LaunchResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	s.calls.Add(1)

	if s.Gate != nil {
		<-s.Gate
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return &domain.LaunchResult{
		Mint:      "11111111111111111111111111111111",
		Signature: "stub-signature-" + req.Ticker,
	}, nil
}

// Calls returns how many times Launch was invoked.
func (s *StubExecutor) Calls() int64 {
	return s.calls.Load()
}

// Requests returns a copy of the recorded requests.
func (s *StubExecutor) Requests() []*domain.LaunchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.LaunchRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
