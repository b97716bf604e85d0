// Package ratelimit admits or rejects send attempts against the four
// windowed-counter scopes spec.md's rate-limit bucket model defines:
// per-tenant, per-domain, per-recipient-domain and per-ip. Counters live in
// Redis as INCR/EXPIRE windows, the same primitive
// internal/server/middleware's HTTP rate limiter uses, so a tenant's API and
// SMTP submission budgets are enforced against the same store.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ultrazend/ultrazend/internal/config"
)

// Scope identifies which counter a check is admitted against.
type Scope string

const (
	ScopeTenant          Scope = "tenant"
	ScopeDomain          Scope = "domain"
	ScopeRecipientDomain Scope = "recipient_domain"
	ScopeIP              Scope = "ip"
)

// Decision reports the outcome of an admission check. When Allowed is
// false, Scope and Limit identify which budget was exhausted and RetryAfter
// is the caller's suggested backoff.
type Decision struct {
	Allowed    bool
	Scope      Scope
	Limit      int
	RetryAfter time.Duration
}

// Limiter enforces windowed-counter budgets in Redis.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration
}

// NewLimiter creates a Limiter using window as the counter bucket width.
func NewLimiter(rdb *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{rdb: rdb, window: window}
}

// admit increments the counter for key and reports whether it is still
// within limit. A Redis outage fails open: the attempt is allowed so a
// cache dependency never blocks mail delivery.
func (l *Limiter) admit(ctx context.Context, scope Scope, key string, limit int) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Scope: scope, Limit: limit}, nil
	}

	now := time.Now()
	bucketKey := fmt.Sprintf("ratelimit:%s:%s:%d", scope, key, now.Unix()/int64(l.window.Seconds()))

	pipe := l.rdb.Pipeline()
	incr := pipe.Incr(ctx, bucketKey)
	pipe.Expire(ctx, bucketKey, l.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true, Scope: scope, Limit: limit}, nil
	}

	count := incr.Val()
	if int(count) > limit {
		return Decision{
			Allowed:    false,
			Scope:      scope,
			Limit:      limit,
			RetryAfter: l.window,
		}, nil
	}

	return Decision{Allowed: true, Scope: scope, Limit: limit}, nil
}

// AdmitSend checks a send attempt against every scope spec.md's admission
// step names: tenant, sender domain, each distinct recipient domain, and
// source IP (when known). It returns on the first exhausted scope; callers
// needing all violations should call the individual Admit* methods.
func (l *Limiter) AdmitSend(ctx context.Context, teamID string, budget config.PlanRateLimits, senderDomain string, recipientDomains []string, sourceIP string) (Decision, error) {
	d, err := l.admit(ctx, ScopeTenant, teamID, budget.PerTenant)
	if err != nil || !d.Allowed {
		return d, err
	}

	if senderDomain != "" {
		d, err = l.admit(ctx, ScopeDomain, teamID+":"+senderDomain, budget.PerDomain)
		if err != nil || !d.Allowed {
			return d, err
		}
	}

	seen := make(map[string]struct{}, len(recipientDomains))
	for _, rd := range recipientDomains {
		if _, dup := seen[rd]; dup {
			continue
		}
		seen[rd] = struct{}{}

		d, err = l.admit(ctx, ScopeRecipientDomain, teamID+":"+rd, budget.PerRecipientDomain)
		if err != nil || !d.Allowed {
			return d, err
		}
	}

	if sourceIP != "" {
		d, err = l.admit(ctx, ScopeIP, sourceIP, budget.PerIP)
		if err != nil || !d.Allowed {
			return d, err
		}
	}

	return Decision{Allowed: true}, nil
}
