package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launch-radar/internal/domain"
	"launch-radar/internal/storage"
)

func archivedSignal(sourceID string, category domain.Category, createdAt time.Time) *domain.ClassifiedSignal {
	return &domain.ClassifiedSignal{
		Signal: domain.Signal{
			Source:    domain.SourceTwitter,
			SourceID:  sourceID,
			Channel:   "alpha",
			Author:    "caller",
			Content:   "launching $ABC",
			CreatedAt: createdAt,
		},
		Category:   category,
		Priority:   domain.PriorityMedium,
		Confidence: 0.5,
		Risk:       0.1,
		Tickers:    []string{"$ABC"},
	}
}

func TestArchiveStore_InsertBatchAndCount(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArchiveStore(conn)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	batch := []*domain.ClassifiedSignal{
		archivedSignal("a", domain.CategoryLaunchAlert, base),
		archivedSignal("b", domain.CategoryLaunchAlert, base.Add(time.Second)),
		archivedSignal("c", domain.CategoryNews, base.Add(2*time.Second)),
	}
	require.NoError(t, store.InsertBatch(ctx, batch))

	counts, err := store.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), counts[domain.CategoryLaunchAlert])
	assert.Equal(t, uint64(1), counts[domain.CategoryNews])
}

func TestArchiveStore_RecentByCategory(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArchiveStore(conn)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.InsertBatch(ctx, []*domain.ClassifiedSignal{
		archivedSignal("a", domain.CategoryLaunchAlert, base),
		archivedSignal("b", domain.CategoryLaunchAlert, base.Add(time.Second)),
	}))

	result, err := store.RecentByCategory(ctx, domain.CategoryLaunchAlert, 1)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "b", result[0].SourceID)
	assert.Equal(t, []string{"$ABC"}, result[0].Tickers)
}

func TestArchiveStore_EmptyBatchNoOp(t *testing.T) {
	store := NewArchiveStore(nil)
	require.NoError(t, store.InsertBatch(context.Background(), nil))
}

func TestArchiveStore_InvalidInput(t *testing.T) {
	store := NewArchiveStore(nil)
	err := store.InsertBatch(context.Background(), []*domain.ClassifiedSignal{
		archivedSignal("", domain.CategoryOther, time.Now()),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
