package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) (Status, error)

// Response represents a health check response
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status     Status  `json:"status"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Handler runs registered checks and serves their results
type Handler struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	version      string
	checkTimeout time.Duration
	now          func() time.Time
}

// NewHandler creates a health handler reporting version
func NewHandler(version string) *Handler {
	return &Handler{
		checks:       make(map[string]CheckFunc),
		version:      version,
		checkTimeout: 3 * time.Second,
		now:          time.Now,
	}
}

// Register adds or replaces the check called name
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RunChecks runs every check in name order, each under its own timeout.
// A panicking check counts as unhealthy.
func (h *Handler) RunChecks(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	results := make(map[string]CheckResult, len(names))
	overall := StatusHealthy
	for _, name := range names {
		res := h.run(ctx, checks[name])
		results[name] = res

		switch {
		case res.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case res.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	return Response{
		Status:    overall,
		Timestamp: h.now().UTC(),
		Checks:    results,
		Version:   h.version,
	}
}

func (h *Handler) run(ctx context.Context, check CheckFunc) (res CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("check panicked: %v", r)}
		}
		res.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	}()

	status, err := check(ctx)
	res.Status = status
	if err != nil {
		res.Error = err.Error()
		if status == "" || status == StatusHealthy {
			res.Status = StatusUnhealthy
		}
	}
	return res
}

// LivenessHandler reports that the process is serving requests
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusHealthy,
			Timestamp: h.now().UTC(),
			Version:   h.version,
		})
	}
}

// ReadinessHandler answers 503 while any check is unhealthy
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.RunChecks(r.Context())
		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, response)
	}
}

// HealthHandler reports every check and always answers 200
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, h.RunChecks(r.Context()))
	}
}

func writeResponse(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}
