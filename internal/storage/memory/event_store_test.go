package memory

import (
	"context"
	"errors"
	"testing"

	"launch-radar/internal/domain"
	"launch-radar/internal/storage"
)

func TestEventStore_InsertAndList(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	records := []*domain.EventRecord{
		{EventID: "e1", Type: "signal:classified", EmittedAt: 1000, Payload: []byte(`{}`)},
		{EventID: "e2", Type: "token:created", EmittedAt: 2000, Payload: []byte(`{}`)},
		{EventID: "e3", Type: "signal:classified", EmittedAt: 3000, Payload: []byte(`{}`)},
	}
	for _, rec := range records {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s failed: %v", rec.EventID, err)
		}
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].EventID != "e3" || recent[1].EventID != "e2" {
		t.Errorf("Wrong recent order: %+v", recent)
	}

	byType, err := store.ListByType(ctx, "signal:classified", 10)
	if err != nil {
		t.Fatalf("ListByType failed: %v", err)
	}
	if len(byType) != 2 || byType[0].EventID != "e3" {
		t.Errorf("Wrong type filter result: %+v", byType)
	}
}

func TestEventStore_DuplicateKey(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	rec := &domain.EventRecord{EventID: "e1", Type: "alert", EmittedAt: 1}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, rec)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestEventStore_InvalidInput(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.EventRecord{Type: "alert"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}
