package candidate

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoryGuard_AcquireReleaseCycle(t *testing.T) {
	g := NewMemoryGuard()

	if !g.TryAcquire("PEPE2-1881") {
		t.Fatal("first acquire must succeed")
	}
	if g.TryAcquire("PEPE2-1881") {
		t.Fatal("second acquire of a held key must fail")
	}
	if !g.Has("PEPE2-1881") {
		t.Error("held key must be reported by Has")
	}

	// Release re-arms exactly one more acquire (failed-launch retry path).
	g.Release("PEPE2-1881")
	if g.Has("PEPE2-1881") {
		t.Error("released key must not be reported by Has")
	}
	if !g.TryAcquire("PEPE2-1881") {
		t.Error("acquire after release must succeed")
	}
	if g.TryAcquire("PEPE2-1881") {
		t.Error("re-acquired key must be held again")
	}
}

func TestMemoryGuard_IndependentKeys(t *testing.T) {
	g := NewMemoryGuard()

	if !g.TryAcquire("AAA-1") || !g.TryAcquire("BBB-2") {
		t.Fatal("distinct keys must acquire independently")
	}
}

func TestMemoryGuard_AtMostOnceUnderConcurrency(t *testing.T) {
	g := NewMemoryGuard()

	const n = 64
	var acquired atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire("PEPE2-1881") {
				acquired.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := acquired.Load(); got != 1 {
		t.Errorf("expected exactly 1 of %d concurrent acquires to win, got %d", n, got)
	}
}
