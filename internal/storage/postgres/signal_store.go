package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launch-radar/internal/domain"
	"launch-radar/internal/idhash"
	"launch-radar/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a classified signal. Returns ErrDuplicateKey if the signal
// was already recorded.
func (s *SignalStore) Insert(ctx context.Context, cs *domain.ClassifiedSignal) error {
	if cs == nil || cs.SourceID == "" {
		return storage.ErrInvalidInput
	}
	id := idhash.ComputeSignalID(cs.Source, cs.SourceID)

	query := `
		INSERT INTO signals (
			id, source, source_id, channel, author, author_id, content,
			has_media, media_urls, engagement_score,
			category, priority, confidence, risk, tickers, contract_addresses,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.pool.Exec(ctx, query,
		id,
		string(cs.Source),
		cs.SourceID,
		cs.Channel,
		cs.Author,
		cs.AuthorID,
		cs.Content,
		cs.HasMedia,
		cs.MediaURLs,
		cs.EngagementScore,
		string(cs.Category),
		string(cs.Priority),
		cs.Confidence,
		cs.Risk,
		cs.Tickers,
		cs.ContractAddresses,
		cs.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

const signalColumns = `
	source, source_id, channel, author, author_id, content,
	has_media, media_urls, engagement_score,
	category, priority, confidence, risk, tickers, contract_addresses,
	created_at
`

// GetByID retrieves a signal by its deterministic ID.
func (s *SignalStore) GetByID(ctx context.Context, id string) (*domain.ClassifiedSignal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	cs, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return cs, nil
}

// ListByCategory retrieves up to limit signals of one category, newest first.
func (s *SignalStore) ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.ClassifiedSignal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE category = $1
		ORDER BY created_at DESC, source_id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, string(category), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list signals by category: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// ListRecent retrieves up to limit signals, newest first.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]*domain.ClassifiedSignal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		ORDER BY created_at DESC, source_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

func scanSignal(row pgx.Row) (*domain.ClassifiedSignal, error) {
	var cs domain.ClassifiedSignal
	var source, category, priority string
	err := row.Scan(
		&source,
		&cs.SourceID,
		&cs.Channel,
		&cs.Author,
		&cs.AuthorID,
		&cs.Content,
		&cs.HasMedia,
		&cs.MediaURLs,
		&cs.EngagementScore,
		&category,
		&priority,
		&cs.Confidence,
		&cs.Risk,
		&cs.Tickers,
		&cs.ContractAddresses,
		&cs.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cs.Source = domain.Source(source)
	cs.Category = domain.Category(category)
	cs.Priority = domain.Priority(priority)
	return &cs, nil
}

func scanSignals(rows pgx.Rows) ([]*domain.ClassifiedSignal, error) {
	var result []*domain.ClassifiedSignal
	for rows.Next() {
		cs, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return result, nil
}
