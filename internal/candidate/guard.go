package candidate

import "sync"

// Guard is an idempotency-key store gating irreversible actions. The
// check "is this key already launched" and the mutation "mark it launched"
// are one atomic step: TryAcquire. A key acquired before issuing the
// external call and released only on failure guarantees at-most-once
// execution per key.
//
// The in-memory implementation can later be swapped for a durable or
// external store without touching pipeline logic.
type Guard interface {
	// TryAcquire atomically marks key as in-flight-or-completed. Returns
	// false if the key is already held.
	TryAcquire(key string) bool

	// Release removes key, re-arming a future acquire (the retry path
	// after a failed launch).
	Release(key string)

	// Has reports whether key is currently held.
	Has(key string) bool
}

// MemoryGuard is the process-local Guard. Membership is never evicted
// except by Release; state is lost on restart.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryGuard creates an empty guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string]struct{})}
}

// Compile-time interface check.
var _ Guard = (*MemoryGuard)(nil)

func (g *MemoryGuard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

func (g *MemoryGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}

func (g *MemoryGuard) Has(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.keys[key]
	return held
}
