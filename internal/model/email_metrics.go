package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsBucket is one roll-up row: a count of a single event type for a
// team (and optionally a domain) within a bucket window.
type AnalyticsBucket struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TeamID     uuid.UUID  `json:"team_id" db:"team_id"`
	DomainID   *uuid.UUID `json:"domain_id,omitempty" db:"domain_id"`
	BucketAt   time.Time  `json:"bucket_at" db:"bucket_at"`
	BucketType string     `json:"bucket_type" db:"bucket_type"`
	EventType  string     `json:"event_type" db:"event_type"`
	Count      int        `json:"count" db:"count"`
}

const (
	BucketTypeHourly = "hourly"
	BucketTypeDaily  = "daily"
)

// EventDeferred and EventRejected extend the Event* set declared in email.go
// to cover bucket rows that don't correspond to an EmailEvent row (a
// deferred send is a retry, not a terminal event; a rejection happens
// before an email row even exists).
const (
	EventDeferred = "deferred"
	EventRejected = "rejected"
)
