package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ultrazend/ultrazend/internal/dto"
	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
)

// MetricsService defines operations for querying rolled-up analytics events.
type MetricsService interface {
	Get(ctx context.Context, teamID uuid.UUID, period string) (*dto.MetricsResponse, error)
	IncrementCounter(ctx context.Context, teamID uuid.UUID, eventType string) error
}

type metricsService struct {
	metricsRepo postgres.MetricsRepository
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(metricsRepo postgres.MetricsRepository) MetricsService {
	return &metricsService{
		metricsRepo: metricsRepo,
	}
}

// trackedEventTypes are the event types surfaced on the analytics dashboard,
// in display order.
var trackedEventTypes = []string{
	model.EventSent,
	model.EventDelivered,
	model.EventBounced,
	model.EventFailed,
	model.EventOpened,
	model.EventClicked,
	model.EventComplained,
}

func (s *metricsService) Get(ctx context.Context, teamID uuid.UUID, period string) (*dto.MetricsResponse, error) {
	now := time.Now().UTC()
	var from time.Time
	var bucketType string
	var dateFormat string

	switch period {
	case "24h":
		from = now.Add(-24 * time.Hour).Truncate(time.Hour)
		bucketType = model.BucketTypeHourly
		dateFormat = "15:04"
	case "30d":
		from = now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
		bucketType = model.BucketTypeDaily
		dateFormat = "Jan 2"
	default: // "7d"
		period = "7d"
		from = now.AddDate(0, 0, -7).Truncate(24 * time.Hour)
		bucketType = model.BucketTypeDaily
		dateFormat = "Jan 2"
	}

	buckets, err := s.metricsRepo.ListByTeam(ctx, teamID, bucketType, from, now)
	if err != nil {
		return nil, fmt.Errorf("listing analytics buckets: %w", err)
	}

	totals, err := s.metricsRepo.AggregateTotals(ctx, teamID, bucketType, from, now)
	if err != nil {
		return nil, fmt.Errorf("aggregating analytics totals: %w", err)
	}

	// Group bucket rows by timestamp (summing across domains) into one
	// MetricsDataPoint per bucket, preserving chronological order.
	order := make([]time.Time, 0)
	byBucket := make(map[time.Time]*dto.MetricsDataPoint)
	for _, b := range buckets {
		point, ok := byBucket[b.BucketAt]
		if !ok {
			point = &dto.MetricsDataPoint{Date: b.BucketAt.Format(dateFormat)}
			byBucket[b.BucketAt] = point
			order = append(order, b.BucketAt)
		}
		addEventCount(point, b.EventType, b.Count)
	}

	data := make([]dto.MetricsDataPoint, 0, len(order))
	for _, t := range order {
		data = append(data, *byBucket[t])
	}

	resp := &dto.MetricsResponse{
		Period: period,
		From:   from,
		To:     now,
		Totals: dto.MetricsTotals{
			Sent:       totals[model.EventSent],
			Delivered:  totals[model.EventDelivered],
			Bounced:    totals[model.EventBounced],
			Failed:     totals[model.EventFailed],
			Opened:     totals[model.EventOpened],
			Clicked:    totals[model.EventClicked],
			Complained: totals[model.EventComplained],
		},
		Data: data,
	}

	if resp.Totals.Sent > 0 {
		resp.Totals.DeliveryRate = float64(resp.Totals.Delivered) / float64(resp.Totals.Sent) * 100
		resp.Totals.OpenRate = float64(resp.Totals.Opened) / float64(resp.Totals.Sent) * 100
		resp.Totals.BounceRate = float64(resp.Totals.Bounced) / float64(resp.Totals.Sent) * 100
	}

	return resp, nil
}

func addEventCount(point *dto.MetricsDataPoint, eventType string, count int) {
	switch eventType {
	case model.EventSent:
		point.Sent += count
	case model.EventDelivered:
		point.Delivered += count
	case model.EventBounced:
		point.Bounced += count
	case model.EventFailed:
		point.Failed += count
	case model.EventOpened:
		point.Opened += count
	case model.EventClicked:
		point.Clicked += count
	case model.EventComplained:
		point.Complained += count
	}
}

// IncrementCounter records one occurrence of eventType for teamID in both
// the hourly and daily roll-up buckets. It is a thin convenience wrapper
// around the repository for callers outside the analytics event bus
// subscription (see internal/analytics.Aggregator, the primary writer).
func (s *metricsService) IncrementCounter(ctx context.Context, teamID uuid.UUID, eventType string) error {
	now := time.Now().UTC()
	for _, b := range []struct {
		bucketType string
		at         time.Time
	}{
		{model.BucketTypeHourly, now.Truncate(time.Hour)},
		{model.BucketTypeDaily, now.Truncate(24 * time.Hour)},
	} {
		if err := s.metricsRepo.Increment(ctx, teamID, nil, b.bucketType, b.at, eventType); err != nil {
			return fmt.Errorf("incrementing %s/%s bucket: %w", b.bucketType, eventType, err)
		}
	}
	return nil
}
