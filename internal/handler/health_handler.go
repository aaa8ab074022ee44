package handler

import (
	"context"
	"net/http"
	"time"

	"fpc-portal/pkg/apierror"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health reports 200 when every check passes and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		err := apierror.New("UNHEALTHY", "one or more dependencies are unavailable", "", http.StatusServiceUnavailable)
		w.Header().Set("Cache-Control", "no-store")
		writeErrorWithData(w, err, results)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok", "checks": results}, nil)
}
