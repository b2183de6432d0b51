package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is an interface for components that can report their health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type funcChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c funcChecker) Name() string                    { return c.name }
func (c funcChecker) Check(ctx context.Context) error { return c.check(ctx) }

// Checker adapts a ping function such as a pool or client HealthCheck.
func Checker(name string, check func(ctx context.Context) error) HealthChecker {
	return funcChecker{name: name, check: check}
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
	}
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response for readiness probe.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck represents the health status of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz. It never checks dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readiness handles GET /readyz. It returns 503 when any configured
// backend (PostgreSQL, Redis, MinIO, Kafka) fails its check.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}
	components, healthy := h.probe(r.Context(), readinessTimeout)
	if healthy {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Components: components})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Components: components})
}

// DetailedResponse is the response for GET /healthz/detail.
type DetailedResponse struct {
	Status     string                    `json:"status"`
	Version    string                    `json:"version"`
	Uptime     string                    `json:"uptime"`
	Components map[string]ComponentCheck `json:"components"`
}

// Detailed handles GET /healthz/detail.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	components, healthy := h.probe(r.Context(), detailTimeout)
	resp := DetailedResponse{
		Status:     "healthy",
		Version:    h.version,
		Uptime:     time.Since(h.startAt).Truncate(time.Second).String(),
		Components: components,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

const (
	readinessTimeout = 5 * time.Second
	detailTimeout    = 10 * time.Second
)

// probe runs all checkers concurrently under one deadline.
func (h *HealthHandler) probe(ctx context.Context, timeout time.Duration) (map[string]ComponentCheck, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(map[string]ComponentCheck, len(h.checkers))
	healthy := true
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			cc := ComponentCheck{Status: "healthy", Latency: time.Since(start).Truncate(time.Microsecond).String()}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			mu.Lock()
			results[c.Name()] = cc
			if err != nil {
				healthy = false
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results, healthy
}

//Personal.AI order the ending
