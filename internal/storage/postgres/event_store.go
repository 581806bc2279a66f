package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launch-radar/internal/domain"
	"launch-radar/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds one event record. Returns ErrDuplicateKey if the event ID
// was already recorded.
func (s *EventStore) Insert(ctx context.Context, rec *domain.EventRecord) error {
	if rec == nil || rec.EventID == "" {
		return storage.ErrInvalidInput
	}

	payload := rec.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO events (event_id, event_type, emitted_at, payload)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, rec.EventID, rec.Type, rec.EmittedAt, payload)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByType retrieves up to limit events of one type, newest first.
func (s *EventStore) ListByType(ctx context.Context, eventType string, limit int) ([]*domain.EventRecord, error) {
	query := `
		SELECT event_id, event_type, emitted_at, payload
		FROM events
		WHERE event_type = $1
		ORDER BY emitted_at DESC, event_id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, eventType, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list events by type: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent retrieves up to limit events, newest first.
func (s *EventStore) ListRecent(ctx context.Context, limit int) ([]*domain.EventRecord, error) {
	query := `
		SELECT event_id, event_type, emitted_at, payload
		FROM events
		ORDER BY emitted_at DESC, event_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]*domain.EventRecord, error) {
	var result []*domain.EventRecord
	for rows.Next() {
		var rec domain.EventRecord
		if err := rows.Scan(&rec.EventID, &rec.Type, &rec.EmittedAt, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}
