package clickhouse

import (
	"context"
	"fmt"

	"launch-radar/internal/domain"
	"launch-radar/internal/idhash"
	"launch-radar/internal/storage"
)

// ArchiveStore writes classified signals into the ClickHouse archive
// table. The archive is write-mostly: rows are batch-inserted and queried
// for aggregates, never updated. MergeTree does not enforce uniqueness, so
// duplicate signal IDs may appear; consumers deduplicate at query time.
type ArchiveStore struct {
	conn *Conn
}

// NewArchiveStore creates a new ArchiveStore.
func NewArchiveStore(conn *Conn) *ArchiveStore {
	return &ArchiveStore{conn: conn}
}

// InsertBatch archives a batch of classified signals.
func (s *ArchiveStore) InsertBatch(ctx context.Context, signals []*domain.ClassifiedSignal) error {
	if len(signals) == 0 {
		return nil
	}
	for _, cs := range signals {
		if cs == nil || cs.SourceID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO signal_archive (
			id, source, source_id, channel, author, content,
			category, priority, confidence, risk,
			tickers, contract_addresses, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, cs := range signals {
		err = batch.Append(
			idhash.ComputeSignalID(cs.Source, cs.SourceID),
			string(cs.Source),
			cs.SourceID,
			cs.Channel,
			cs.Author,
			cs.Content,
			string(cs.Category),
			string(cs.Priority),
			cs.Confidence,
			cs.Risk,
			cs.Tickers,
			cs.ContractAddresses,
			cs.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByCategory returns archived signal counts per category.
func (s *ArchiveStore) CountByCategory(ctx context.Context) (map[domain.Category]uint64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT category, count() AS cnt
		FROM signal_archive
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	result := make(map[domain.Category]uint64)
	for rows.Next() {
		var category string
		var cnt uint64
		if err := rows.Scan(&category, &cnt); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		result[domain.Category(category)] = cnt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return result, nil
}

// RecentByCategory returns up to limit archived signals of one category,
// newest first.
func (s *ArchiveStore) RecentByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.ClassifiedSignal, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn.Query(ctx, `
		SELECT source, source_id, channel, author, content,
		       category, priority, confidence, risk,
		       tickers, contract_addresses, created_at
		FROM signal_archive
		WHERE category = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("recent by category: %w", err)
	}
	defer rows.Close()

	var result []*domain.ClassifiedSignal
	for rows.Next() {
		var cs domain.ClassifiedSignal
		var source, cat, priority string
		err := rows.Scan(
			&source, &cs.SourceID, &cs.Channel, &cs.Author, &cs.Content,
			&cat, &priority, &cs.Confidence, &cs.Risk,
			&cs.Tickers, &cs.ContractAddresses, &cs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		cs.Source = domain.Source(source)
		cs.Category = domain.Category(cat)
		cs.Priority = domain.Priority(priority)
		result = append(result, &cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return result, nil
}
