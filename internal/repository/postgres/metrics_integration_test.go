//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrazend/ultrazend/internal/model"
)

func TestMetricsRepository_IncrementInsert(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)

	bucket := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	err := repo.Increment(ctx, testTeamID, nil, model.BucketTypeHourly, bucket, model.EventSent)
	require.NoError(t, err)

	results, err := repo.ListByTeam(ctx, testTeamID, model.BucketTypeHourly,
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.EventSent, results[0].EventType)
	assert.Equal(t, 1, results[0].Count)
	assert.Nil(t, results[0].DomainID)
}

func TestMetricsRepository_IncrementAccumulates(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)

	bucket := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.Increment(ctx, testTeamID, nil, model.BucketTypeHourly, bucket, model.EventSent)
		require.NoError(t, err)
	}
	err := repo.Increment(ctx, testTeamID, nil, model.BucketTypeHourly, bucket, model.EventBounced)
	require.NoError(t, err)

	results, err := repo.ListByTeam(ctx, testTeamID, model.BucketTypeHourly,
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 2)

	byType := make(map[string]int)
	for _, r := range results {
		byType[r.EventType] = r.Count
	}
	assert.Equal(t, 3, byType[model.EventSent])
	assert.Equal(t, 1, byType[model.EventBounced])
}

func TestMetricsRepository_IncrementWithDomain(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)
	domainID := uuid.New()
	bucket := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	err := repo.Increment(ctx, testTeamID, &domainID, model.BucketTypeHourly, bucket, model.EventDelivered)
	require.NoError(t, err)
	err = repo.Increment(ctx, testTeamID, nil, model.BucketTypeHourly, bucket, model.EventDelivered)
	require.NoError(t, err)

	results, err := repo.ListByTeam(ctx, testTeamID, model.BucketTypeHourly,
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 2, "domain-scoped and team-wide rows are distinct")
}

func TestMetricsRepository_ListByTeamWithDateRange(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)

	for i := 0; i < 3; i++ {
		bucket := time.Date(2025, 1, 15, 8+i, 0, 0, 0, time.UTC)
		for n := 0; n < (i+1)*10; n++ {
			require.NoError(t, repo.Increment(ctx, testTeamID, nil, model.BucketTypeHourly, bucket, model.EventSent))
		}
	}

	results, err := repo.ListByTeam(ctx, testTeamID, model.BucketTypeHourly,
		time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 10, results[0].Count)
	assert.Equal(t, 20, results[1].Count)
}

func TestMetricsRepository_AggregateTotalsEmpty(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)

	totals, err := repo.AggregateTotals(ctx, testTeamID, model.BucketTypeDaily,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestMetricsRepository_AggregateTotals(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedTeam(t, ctx)

	repo := NewMetricsRepository(testPool)
	bucket := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Increment(ctx, testTeamID, nil, model.BucketTypeDaily, bucket, model.EventSent))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Increment(ctx, testTeamID, nil, model.BucketTypeDaily, bucket, model.EventBounced))
	}

	totals, err := repo.AggregateTotals(ctx, testTeamID, model.BucketTypeDaily,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 5, totals[model.EventSent])
	assert.Equal(t, 2, totals[model.EventBounced])
}
