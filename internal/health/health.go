// Package health serves Parley's liveness and readiness probes.
//
// /healthz answers 200 whenever the process can serve HTTP. /readyz runs the
// registered dependency checks (database connectivity and the like) and
// answers 503 with per-check detail when any of them fails.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds each individual readiness check.
const probeTimeout = 5 * time.Second

// Checker probes one dependency. Check returns nil when the dependency is
// usable; the error text is surfaced in the /readyz response body.
type Checker struct {
	// Name keys the check in the JSON response, e.g. "database".
	Name string

	// Check must respect ctx cancellation.
	Check func(ctx context.Context) error
}

// Handler answers the probe endpoints. The checker set is fixed at
// construction; a Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a Handler evaluating the given checkers, in order, on every
// /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// probeResponse is the JSON body for both endpoints.
type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness probe. It never fails: reaching it at all proves
// the process is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, probeResponse{Status: "ok"})
}

// Readyz is the readiness probe. It reports 200 only when every checker
// passes within its timeout.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.runChecks(r.Context())

	resp := probeResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !ready {
		resp.Status = "fail"
		code = http.StatusServiceUnavailable
	}
	respond(w, code, resp)
}

// runChecks evaluates every checker and reports the per-check outcomes and
// whether all of them passed.
func (h *Handler) runChecks(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(h.checkers))
	ready := true

	for _, c := range h.checkers {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.Check(probeCtx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}
	return checks, ready
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
