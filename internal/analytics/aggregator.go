// Package analytics rolls up pipeline events into per-tenant time-series
// buckets (spec.md §4.10). It subscribes to the pipeline event bus rather
// than being called directly by the worker handlers, so the delivery
// pipeline never holds a reference to the analytics layer.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/pipeline"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
)

// Aggregator subscribes to the event bus and writes hourly and daily
// roll-up rows for every event it observes.
type Aggregator struct {
	repo   postgres.MetricsRepository
	logger *slog.Logger
}

// NewAggregator creates an Aggregator backed by repo.
func NewAggregator(repo postgres.MetricsRepository, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{repo: repo, logger: logger}
}

// Subscribe registers the aggregator's handler on bus for every event type.
func (a *Aggregator) Subscribe(bus *pipeline.Bus) {
	bus.Subscribe("*", a.handle)
}

func (a *Aggregator) handle(ctx context.Context, evt pipeline.Event) {
	at := evt.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	buckets := []struct {
		bucketType string
		at         time.Time
	}{
		{model.BucketTypeHourly, at.Truncate(time.Hour)},
		{model.BucketTypeDaily, at.Truncate(24 * time.Hour)},
	}

	for _, b := range buckets {
		if err := a.repo.Increment(ctx, evt.TeamID, evt.DomainID, b.bucketType, b.at, evt.Type); err != nil {
			a.logger.Error("analytics: failed to increment bucket",
				"error", err,
				"team_id", evt.TeamID,
				"event_type", evt.Type,
				"bucket_type", b.bucketType,
			)
		}
	}
}
