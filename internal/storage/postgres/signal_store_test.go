package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launch-radar/internal/domain"
	"launch-radar/internal/idhash"
	"launch-radar/internal/storage"
)

func testSignal(sourceID string, category domain.Category, createdAt time.Time) *domain.ClassifiedSignal {
	return &domain.ClassifiedSignal{
		Signal: domain.Signal{
			Source:          domain.SourceTwitter,
			SourceID:        sourceID,
			Channel:         "alpha",
			Author:          "caller",
			AuthorID:        "42",
			Content:         "launching $ABC So11111111111111111111111111111111111111112",
			HasMedia:        true,
			MediaURLs:       []string{"https://cdn.example/a.png"},
			EngagementScore: 12.5,
			CreatedAt:       createdAt,
		},
		Category:          category,
		Priority:          domain.PriorityHigh,
		Confidence:        0.7,
		Risk:              0.1,
		Tickers:           []string{"$ABC"},
		ContractAddresses: []string{"So11111111111111111111111111111111111111112"},
	}
}

func TestSignalStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	cs := testSignal("tweet-001", domain.CategoryLaunchAlert, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.Insert(ctx, cs))

	id := idhash.ComputeSignalID(domain.SourceTwitter, "tweet-001")
	retrieved, err := store.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, cs.Source, retrieved.Source)
	assert.Equal(t, cs.SourceID, retrieved.SourceID)
	assert.Equal(t, cs.Channel, retrieved.Channel)
	assert.Equal(t, cs.Content, retrieved.Content)
	assert.Equal(t, cs.Category, retrieved.Category)
	assert.Equal(t, cs.Priority, retrieved.Priority)
	assert.InDelta(t, cs.Confidence, retrieved.Confidence, 1e-9)
	assert.InDelta(t, cs.Risk, retrieved.Risk, 1e-9)
	assert.Equal(t, cs.Tickers, retrieved.Tickers)
	assert.Equal(t, cs.ContractAddresses, retrieved.ContractAddresses)
	assert.True(t, retrieved.HasMedia)
}

func TestSignalStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	cs := testSignal("tweet-dup", domain.CategoryTokenMention, time.Now())
	require.NoError(t, store.Insert(ctx, cs))

	err := store.Insert(ctx, cs)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSignalStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSignalStore_ListByCategory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Insert(ctx, testSignal("a", domain.CategoryLaunchAlert, base)))
	require.NoError(t, store.Insert(ctx, testSignal("b", domain.CategoryNews, base.Add(time.Second))))
	require.NoError(t, store.Insert(ctx, testSignal("c", domain.CategoryLaunchAlert, base.Add(2*time.Second))))

	result, err := store.ListByCategory(ctx, domain.CategoryLaunchAlert, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "c", result[0].SourceID)
	assert.Equal(t, "a", result[1].SourceID)
}

func TestSignalStore_ListRecentLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, sourceID := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, testSignal(sourceID, domain.CategoryOther, base.Add(time.Duration(i)*time.Second))))
	}

	result, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "c", result[0].SourceID)
	assert.Equal(t, "b", result[1].SourceID)
}
