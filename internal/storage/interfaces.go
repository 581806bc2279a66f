// Package storage defines the persistence interfaces of the pipeline.
// Persistence is best-effort audit trail: implementations range from
// in-memory maps to PostgreSQL and ClickHouse, and the pipeline keeps
// running when writes fail.
package storage

import (
	"context"

	"launch-radar/internal/domain"
)

// SignalStore persists classified signals. Records are keyed by the
// deterministic signal ID derived from (source, source_id); a second
// insert of the same signal returns ErrDuplicateKey.
type SignalStore interface {
	// Insert adds a classified signal. Returns ErrDuplicateKey if the
	// signal was already recorded.
	Insert(ctx context.Context, cs *domain.ClassifiedSignal) error

	// GetByID retrieves a signal by its deterministic ID. Returns
	// ErrNotFound if not recorded.
	GetByID(ctx context.Context, id string) (*domain.ClassifiedSignal, error)

	// ListByCategory retrieves up to limit signals of one category,
	// newest first.
	ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.ClassifiedSignal, error)

	// ListRecent retrieves up to limit signals, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ClassifiedSignal, error)
}

// EventStore persists bus events as an append-only audit log.
type EventStore interface {
	// Insert adds one event record. Returns ErrDuplicateKey if the
	// event ID was already recorded.
	Insert(ctx context.Context, rec *domain.EventRecord) error

	// ListByType retrieves up to limit events of one type, newest first.
	ListByType(ctx context.Context, eventType string, limit int) ([]*domain.EventRecord, error)

	// ListRecent retrieves up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.EventRecord, error)
}
