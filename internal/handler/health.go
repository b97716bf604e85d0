package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool directly. For *redis.Client,
// use PingFunc as an adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

// Ping calls the underlying function.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ListenerProbe reports whether a long-running listener (an inbound SMTP
// server's accept loop) is still serving. It must not block.
type ListenerProbe func() bool

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	pgPinger    Pinger
	redisPinger Pinger
	queuePinger Pinger
	dnsPinger   Pinger
	listeners   map[string]ListenerProbe
	ready       atomic.Bool
}

// NewHealthHandler creates a HealthHandler that pings the given dependencies.
// The queue backend, DNS resolver and inbound listeners are optional and
// added with WithQueue, WithDNS and WithListener.
func NewHealthHandler(pg Pinger, redisPinger Pinger) *HealthHandler {
	h := &HealthHandler{
		pgPinger:    pg,
		redisPinger: redisPinger,
	}
	h.ready.Store(true)
	return h
}

// WithQueue adds a probe for the task queue backend (distinct from the
// redis cache ping: this confirms the asynq client/inspector itself can
// reach its broker).
func (h *HealthHandler) WithQueue(p Pinger) *HealthHandler {
	h.queuePinger = p
	return h
}

// WithDNS adds a probe that exercises the configured DNS resolver.
func (h *HealthHandler) WithDNS(p Pinger) *HealthHandler {
	h.dnsPinger = p
	return h
}

// WithListener registers a liveness probe for a long-running inbound
// listener, e.g. the MX or Submission SMTP server's accept loop.
func (h *HealthHandler) WithListener(name string, probe ListenerProbe) *HealthHandler {
	if h.listeners == nil {
		h.listeners = make(map[string]ListenerProbe)
	}
	h.listeners[name] = probe
	return h
}

// SetReady sets the readiness flag. Call with false at the start of graceful
// shutdown so /readyz returns 503 while in-flight requests drain.
func (h *HealthHandler) SetReady(v bool) {
	h.ready.Store(v)
}

// Healthz pings every registered dependency concurrently — Postgres, Redis,
// and, when configured, the queue backend and DNS resolver — checks inbound
// listener liveness, and returns 200 if everything is healthy or 503 with
// details about what's degraded.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	type depResult struct {
		name   string
		status string
	}

	pingers := map[string]Pinger{
		"postgres": h.pgPinger,
		"redis":    h.redisPinger,
	}
	if h.queuePinger != nil {
		pingers["queue"] = h.queuePinger
	}
	if h.dnsPinger != nil {
		pingers["dns"] = h.dnsPinger
	}

	var wg sync.WaitGroup
	results := make(chan depResult, len(pingers)+len(h.listeners))

	check := func(name string, p Pinger) {
		defer wg.Done()
		status := "ok"
		if err := p.Ping(ctx); err != nil {
			status = "unavailable"
		}
		results <- depResult{name: name, status: status}
	}

	wg.Add(len(pingers))
	for name, p := range pingers {
		go check(name, p)
	}
	wg.Wait()

	for name, probe := range h.listeners {
		status := "ok"
		if !probe() {
			status = "unavailable"
		}
		results <- depResult{name: name, status: status}
	}
	close(results)

	deps := make(map[string]string, len(pingers)+len(h.listeners))
	allOK := true
	for res := range results {
		deps[res.name] = res.status
		if res.status != "ok" {
			allOK = false
		}
	}

	status := "ok"
	httpCode := http.StatusOK
	if !allOK {
		status = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       status,
		"dependencies": deps,
	})
}

// Readyz returns 503 when the server is shutting down, otherwise delegates to
// Healthz. Load balancers should use this endpoint to decide whether to route
// traffic to this instance.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "shutting_down",
		})
		return
	}
	h.Healthz(w, r)
}
