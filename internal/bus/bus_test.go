package bus

import (
	"testing"

	"launch-radar/internal/domain"
)

func classified(sourceID string) *domain.ClassifiedSignal {
	return &domain.ClassifiedSignal{
		Signal: domain.Signal{
			Source:   domain.SourceTwitter,
			SourceID: sourceID,
			Content:  "test",
		},
		Category: domain.CategoryOther,
		Priority: domain.PriorityLow,
	}
}

func TestEmit_AssignsIDAndTimestamp(t *testing.T) {
	b := New()

	evt := b.Emit(SignalClassified{Signal: classified("1")})

	if evt.ID == "" {
		t.Error("expected non-empty event id")
	}
	if evt.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
	if evt.Type != EventSignalClassified {
		t.Errorf("expected type %s, got %s", EventSignalClassified, evt.Type)
	}
}

func TestEmit_DeliversInRegistrationOrder(t *testing.T) {
	b := New()

	var order []int
	b.On(EventSignalClassified, func(Event) { order = append(order, 1) })
	b.On(EventSignalClassified, func(Event) { order = append(order, 2) })
	b.OnAll(func(Event) { order = append(order, 3) })

	b.Emit(SignalClassified{Signal: classified("1")})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected delivery order [1 2 3], got %v", order)
	}
}

func TestEmit_TypedHandlerNotCalledForOtherTypes(t *testing.T) {
	b := New()

	called := false
	b.On(EventTokenCreated, func(Event) { called = true })

	b.Emit(SignalClassified{Signal: classified("1")})

	if called {
		t.Error("handler for token:created must not fire for signal:classified")
	}
}

func TestEmit_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := New()

	var after bool
	b.On(EventSignalClassified, func(Event) { panic("boom") })
	b.On(EventSignalClassified, func(Event) { after = true })

	b.Emit(SignalClassified{Signal: classified("1")})

	if !after {
		t.Error("handler after a panicking one must still run")
	}
	if got := len(b.History(0)); got != 1 {
		t.Errorf("history must not be corrupted by handler panic, got %d events", got)
	}
}

func TestOff_RemovesHandler(t *testing.T) {
	b := New()

	count := 0
	sub := b.On(EventSignalClassified, func(Event) { count++ })

	b.Emit(SignalClassified{Signal: classified("1")})
	b.Off(sub)
	b.Emit(SignalClassified{Signal: classified("2")})

	if count != 1 {
		t.Errorf("expected exactly 1 delivery after Off, got %d", count)
	}
}

func TestHistory_CapDropsOldestFirst(t *testing.T) {
	b := New(WithHistorySize(3))

	for i := 0; i < 5; i++ {
		b.Emit(SignalFiltered{Signal: classified(string(rune('a' + i))), Reason: "low_confidence"})
	}

	hist := b.History(0)
	if len(hist) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(hist))
	}
	// Newest-last: the last emitted event is last in history.
	last := hist[2].Payload.(SignalFiltered)
	if last.Signal.SourceID != "e" {
		t.Errorf("expected newest event last, got source id %q", last.Signal.SourceID)
	}
}

func TestHistory_LimitReturnsMostRecent(t *testing.T) {
	b := New()

	b.Emit(SignalClassified{Signal: classified("1")})
	b.Emit(SignalClassified{Signal: classified("2")})
	b.Emit(SignalClassified{Signal: classified("3")})

	hist := b.History(2)
	if len(hist) != 2 {
		t.Fatalf("expected 2 events, got %d", len(hist))
	}
	if hist[1].Payload.(SignalClassified).Signal.SourceID != "3" {
		t.Error("expected newest event last")
	}
}

func TestEventsByType_FiltersAndLimits(t *testing.T) {
	b := New()

	b.Emit(SignalClassified{Signal: classified("1")})
	b.Emit(SignalFiltered{Signal: classified("2"), Reason: "high_risk"})
	b.Emit(SignalClassified{Signal: classified("3")})

	got := b.EventsByType(EventSignalClassified, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 classified events, got %d", len(got))
	}

	limited := b.EventsByType(EventSignalClassified, 1)
	if len(limited) != 1 {
		t.Fatalf("expected 1 event with limit, got %d", len(limited))
	}
	if limited[0].Payload.(SignalClassified).Signal.SourceID != "3" {
		t.Error("limit must keep the most recent events")
	}
}

func TestEmit_ReentrantEmitFromHandler(t *testing.T) {
	b := New()

	var sawFailed bool
	b.On(EventTokenFailed, func(Event) { sawFailed = true })
	b.On(EventSignalClassified, func(Event) {
		b.Emit(TokenFailed{Key: "PEPE2-1", Ticker: "PEPE2", Err: "rpc down"})
	})

	b.Emit(SignalClassified{Signal: classified("1")})

	if !sawFailed {
		t.Error("re-entrant emit from a handler must deliver")
	}
	if got := len(b.History(0)); got != 2 {
		t.Errorf("expected 2 events in history, got %d", got)
	}
}
