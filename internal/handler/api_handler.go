package handler

import (
	"net/http"
	"strings"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/service"
	"fpc-portal/pkg/apierror"
)

// APIHandler serves the JSON surface under /api/v1.
type APIHandler struct {
	audit *service.AuditService
}

func NewAPIHandler(audit *service.AuditService) *APIHandler {
	return &APIHandler{audit: audit}
}

// Session reports the caller's session state. It answers anonymous callers
// too, with authenticated=false.
func (h *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, middleware.SessionFrom(r.Context()).View(), nil)
}

// Navigation lists the menu for the caller's role, or for ?role= when the
// caller is a super admin previewing another role.
func (h *APIHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	role := middleware.SessionFrom(r.Context()).Role()

	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		if role != model.RoleSuperAdmin {
			writeError(w, apierror.New("FORBIDDEN", "only super admins may preview other roles", "role", http.StatusForbidden))
			return
		}
		preview, ok := model.ParseRole(raw)
		if !ok {
			writeError(w, apierror.New("BAD_REQUEST", "unknown role", raw, http.StatusBadRequest))
			return
		}
		role = preview
	}

	entries := navigation.Resolve(role)
	writeSuccess(w, http.StatusOK, entries, &model.Meta{Total: len(entries)})
}

func (h *APIHandler) Audit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, err := h.audit.Recent(r.Context(), model.AuditQuery{
		Action:     strings.TrimSpace(query.Get("action")),
		ActorEmail: strings.TrimSpace(query.Get("actor")),
		Limit:      parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &model.Meta{Total: len(items)})
}
