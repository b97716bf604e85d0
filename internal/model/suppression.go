package model

import (
	"time"

	"github.com/google/uuid"
)

type SuppressionEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TeamID    uuid.UUID  `json:"team_id" db:"team_id"`
	Email     string     `json:"email" db:"email"`
	Reason    string     `json:"reason" db:"reason"`
	Details   *string    `json:"details,omitempty" db:"details"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// Expired reports whether the entry's TTL, if any, has elapsed as of t.
// A nil ExpiresAt means the suppression never expires.
func (e *SuppressionEntry) Expired(t time.Time) bool {
	return e.ExpiresAt != nil && !t.Before(*e.ExpiresAt)
}

// Suppression reasons, per spec.md §3.
const (
	SuppressionHardBounce       = "hard-bounce"
	SuppressionComplaint        = "complaint"
	SuppressionUnsubscribe      = "unsubscribe"
	SuppressionManual           = "manual"
	SuppressionInvalidRecipient = "invalid-recipient"
)
