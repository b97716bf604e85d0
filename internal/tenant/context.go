// Package tenant resolves a caller into the tenant-scoped context (team,
// billing plan, rate-limit budget, verified sending domains) needed to
// admit or reject an operation. Resolution hits Postgres; results are
// cached in-process with a short TTL so every request on the hot send
// path doesn't pay two extra round trips.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ultrazend/ultrazend/internal/config"
	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
)

const defaultTTL = 60 * time.Second

// Context is the resolved view of a tenant used to gate API and SMTP
// submission operations.
type Context struct {
	TeamID          uuid.UUID
	Plan            string
	VerifiedDomains map[string]struct{}
	RateLimits      config.PlanRateLimits
}

// HasVerifiedDomain reports whether name is a verified sending domain for
// this tenant.
func (c *Context) HasVerifiedDomain(name string) bool {
	_, ok := c.VerifiedDomains[name]
	return ok
}

// entry is the cached state for one team, modeled on engine.CircuitBreaker's
// per-key state map: a mutex-guarded map of independently expiring entries.
type entry struct {
	ctx       *Context
	expiresAt time.Time
}

// Cache resolves and caches tenant contexts. It is safe for concurrent use.
type Cache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]entry
	ttl         time.Duration
	teamRepo    postgres.TeamRepository
	domainRepo  postgres.DomainRepository
	rateLimits  config.RateLimitsConfig
	nowFunc     func() time.Time
	stopJanitor chan struct{}
}

// NewCache creates a tenant context cache backed by teamRepo/domainRepo,
// using rateLimits to map a team's plan onto its rate-limit budget. A
// background janitor evicts expired entries every ttl so the map doesn't
// grow unbounded with churned-through teams.
func NewCache(teamRepo postgres.TeamRepository, domainRepo postgres.DomainRepository, rateLimits config.RateLimitsConfig, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c := &Cache{
		entries:     make(map[uuid.UUID]entry),
		ttl:         ttl,
		teamRepo:    teamRepo,
		domainRepo:  domainRepo,
		rateLimits:  rateLimits,
		nowFunc:     time.Now,
		stopJanitor: make(chan struct{}),
	}

	go c.janitor()

	return c
}

// Close stops the background janitor goroutine.
func (c *Cache) Close() {
	close(c.stopJanitor)
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopJanitor:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	now := c.nowFunc()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Resolve returns the tenant context for teamID, serving from cache when
// fresh and otherwise reloading from the repositories.
func (c *Cache) Resolve(ctx context.Context, teamID uuid.UUID) (*Context, error) {
	c.mu.Lock()
	if e, ok := c.entries[teamID]; ok && c.nowFunc().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.ctx, nil
	}
	c.mu.Unlock()

	tc, err := c.load(ctx, teamID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[teamID] = entry{ctx: tc, expiresAt: c.nowFunc().Add(c.ttl)}
	c.mu.Unlock()

	return tc, nil
}

func (c *Cache) load(ctx context.Context, teamID uuid.UUID) (*Context, error) {
	team, err := c.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant %s: %w", teamID, err)
	}

	verified := make(map[string]struct{})
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		domains, total, err := c.domainRepo.List(ctx, teamID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing domains for tenant %s: %w", teamID, err)
		}
		for _, d := range domains {
			if d.Status == model.DomainStatusVerified {
				verified[d.Name] = struct{}{}
			}
		}
		if offset+len(domains) >= total || len(domains) == 0 {
			break
		}
	}

	plan := team.Plan
	if plan == "" {
		plan = model.PlanFree
	}

	return &Context{
		TeamID:          teamID,
		Plan:            plan,
		VerifiedDomains: verified,
		RateLimits:      c.rateLimits.ForPlan(plan),
	}, nil
}

// Invalidate drops any cached entry for teamID, forcing the next Resolve to
// reload from the repositories. Call this after any mutation to a team's
// plan or domain set (domain verification, plan change, domain deletion).
func (c *Cache) Invalidate(teamID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, teamID)
}
