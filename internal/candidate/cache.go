// Package candidate tracks launch candidates and guards against duplicate
// execution of the irreversible launch action.
package candidate

import (
	"sort"
	"sync"
	"time"

	"launch-radar/internal/domain"
)

// Cache holds launch candidates keyed by their composite key. Entries are
// never evicted; state grows for the life of the process and is lost on
// restart.
type Cache struct {
	mu   sync.RWMutex
	data map[string]*domain.LaunchCandidate
}

// NewCache creates an empty candidate cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string]*domain.LaunchCandidate)}
}

// Upsert inserts or replaces the candidate for key. Idempotent: calling it
// twice with the same key leaves exactly one entry. Entries that are
// queued or launched are never replaced — an irreversible action is tied
// to them, so a late duplicate must not rewind their status; the second
// return reports whether the write was applied, and on refusal the
// existing candidate's copy is returned.
func (c *Cache) Upsert(key string, analysis domain.Analysis, sourceCommand string, status domain.CandidateStatus) (*domain.LaunchCandidate, bool) {
	if status == "" {
		status = domain.StatusCandidate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.data[key]; ok &&
		(cur.Status == domain.StatusQueued || cur.Status == domain.StatusLaunched) {
		out := *cur
		return &out, false
	}

	cand := &domain.LaunchCandidate{
		Key:           key,
		Analysis:      analysis,
		SourceCommand: sourceCommand,
		Status:        status,
		UpdatedAt:     time.Now().UTC(),
	}
	c.data[key] = cand

	out := *cand
	return &out, true
}

// UpdateStatus mutates the status and timestamp of an existing candidate
// in place. No-op (returns false) if the key is absent. Transitions are
// not validated against the candidate state machine; callers apply them in
// valid order.
func (c *Cache) UpdateStatus(key string, status domain.CandidateStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cand, ok := c.data[key]
	if !ok {
		return false
	}
	cand.Status = status
	cand.UpdatedAt = time.Now().UTC()
	return true
}

// Get returns a copy of the candidate for key.
func (c *Cache) Get(key string) (*domain.LaunchCandidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cand, ok := c.data[key]
	if !ok {
		return nil, false
	}
	out := *cand
	return &out, true
}

// List returns copies of all candidates, ordered by key.
func (c *Cache) List() []*domain.LaunchCandidate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.LaunchCandidate, 0, len(c.data))
	for _, cand := range c.data {
		cp := *cand
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of tracked candidates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
