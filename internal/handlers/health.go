package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handle implements GET /healthz and GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	report := healthReport{Status: "ok"}
	if len(h.Checks) > 0 {
		report.Checks = make(map[string]string, len(h.Checks))
		names := make([]string, 0, len(h.Checks))
		for name := range h.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			err := h.Checks[name](checkCtx)
			cancel()
			if err != nil {
				report.Status = "degraded"
				report.Checks[name] = err.Error()
				continue
			}
			report.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondData(ctx, w, status, report, "health check")
}
