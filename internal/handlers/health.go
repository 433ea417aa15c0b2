package handlers

import (
	"net/http"
	"time"

	"github.com/rudraksha-store/api/internal/services"
)

// HealthHandlersDeps carries the optional dependencies for health endpoints.
type HealthHandlersDeps struct {
	// System resolves dependency health for the readiness probe. When nil,
	// /readyz reports ready as soon as the process serves traffic.
	System services.SystemService
	Clock  func() time.Time
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	system  services.SystemService
	clock   func() time.Time
	started time.Time
}

// NewHealthHandlers constructs health endpoints.
func NewHealthHandlers(deps HealthHandlersDeps) *HealthHandlers {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &HealthHandlers{
		system:  deps.System,
		clock:   clock,
		started: clock().UTC(),
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.Format(time.RFC3339),
	})
}

type componentPayload struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Readyz reports dependency health. Any unhealthy component yields 503 so the
// load balancer stops routing traffic to the instance.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ready"})
		return
	}

	report, err := h.system.Health(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	components := make(map[string]componentPayload, len(report.Components))
	for name, component := range report.Components {
		payload := componentPayload{Healthy: component.Healthy, Detail: component.Detail}
		if component.Latency > 0 {
			payload.Latency = component.Latency.String()
		}
		components[name] = payload
	}

	status := http.StatusOK
	state := "ready"
	if !report.Healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSONResponse(w, status, map[string]any{
		"status":     state,
		"checkedAt":  report.CheckedAt.UTC().Format(time.RFC3339),
		"components": components,
	})
}
