package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ultrazend/ultrazend/internal/model"
)

type metricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a new MetricsRepository backed by PostgreSQL.
func NewMetricsRepository(pool *pgxpool.Pool) MetricsRepository {
	return &metricsRepository{pool: pool}
}

// domainBucketKey returns the domain id used in the unique constraint when
// no domain is associated with the event; uuid.Nil stands for "all domains"
// so the upsert has a stable conflict target regardless of whether the
// caller has a domain to attribute the event to.
func domainBucketKey(domainID *uuid.UUID) uuid.UUID {
	if domainID == nil {
		return uuid.Nil
	}
	return *domainID
}

func (r *metricsRepository) Increment(ctx context.Context, teamID uuid.UUID, domainID *uuid.UUID, bucketType string, bucket time.Time, eventType string) error {
	query := `
		INSERT INTO analytics_buckets (id, team_id, domain_id, bucket_at, bucket_type, event_type, count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (team_id, domain_id, bucket_type, bucket_at, event_type) DO UPDATE SET
			count = analytics_buckets.count + 1`

	_, err := r.pool.Exec(ctx, query,
		uuid.New(), teamID, domainBucketKey(domainID), bucket, bucketType, eventType,
	)
	if err != nil {
		return fmt.Errorf("incrementing analytics bucket: %w", err)
	}
	return nil
}

func (r *metricsRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, bucketType string, from, to time.Time) ([]model.AnalyticsBucket, error) {
	query := `
		SELECT id, team_id, domain_id, bucket_at, bucket_type, event_type, count
		FROM analytics_buckets
		WHERE team_id = $1 AND bucket_type = $2 AND bucket_at >= $3 AND bucket_at < $4
		ORDER BY bucket_at ASC`

	rows, err := r.pool.Query(ctx, query, teamID, bucketType, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing analytics buckets: %w", err)
	}
	defer rows.Close()

	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AnalyticsBucket, error) {
		var b model.AnalyticsBucket
		var domainID uuid.UUID
		err := row.Scan(&b.ID, &b.TeamID, &domainID, &b.BucketAt, &b.BucketType, &b.EventType, &b.Count)
		if domainID != uuid.Nil {
			b.DomainID = &domainID
		}
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting analytics buckets: %w", err)
	}

	return buckets, nil
}

func (r *metricsRepository) AggregateTotals(ctx context.Context, teamID uuid.UUID, bucketType string, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT event_type, COALESCE(SUM(count), 0)
		FROM analytics_buckets
		WHERE team_id = $1 AND bucket_type = $2 AND bucket_at >= $3 AND bucket_at < $4
		GROUP BY event_type`

	rows, err := r.pool.Query(ctx, query, teamID, bucketType, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregating analytics totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("scanning analytics total: %w", err)
		}
		totals[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analytics totals: %w", err)
	}

	return totals, nil
}
