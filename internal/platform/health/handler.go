// Package health serves liveness, readiness and status probes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"kickoff/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc reports whether a dependency is reachable. nil means healthy.
type CheckFunc func(ctx context.Context) error

// checkTimeout bounds each readiness check.
const checkTimeout = 3 * time.Second

type Handler struct {
	startTime   time.Time
	environment string
	now         func() time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		now:         time.Now,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named readiness check. Registering a name twice replaces it.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness answers 200 while the process is serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is one dependency's readiness. Error is left out in production.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness runs every registered check in parallel and answers 503
// when any of them fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := h.run(r.Context(), check)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	resp := ReadinessResponse{Status: "ready", Checks: results}
	for _, res := range results {
		if res.Status != "up" {
			resp.Status = "not_ready"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := h.now()
	err := check(ctx)
	res := CheckResult{Status: "up", LatencyMS: h.now().Sub(start).Milliseconds()}
	if err != nil {
		res.Status = "down"
		if h.environment != "production" {
			res.Error = err.Error()
		}
	}
	return res
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Timestamp     string   `json:"timestamp"`
	Dependencies  []string `json:"dependencies"`
}

// HandleStatus reports build and uptime information plus the names of the
// registered dependencies. It does not run the checks.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	deps := make([]string, 0, len(h.checks))
	for name := range h.checks {
		deps = append(deps, name)
	}
	h.mu.RUnlock()
	slices.Sort(deps)

	now := h.now()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Dependencies:  deps,
	})
}
