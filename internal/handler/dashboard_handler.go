package handler

import (
	"net/http"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/service"
	"fpc-portal/internal/view"
)

type DashboardHandler struct {
	service *service.DashboardService
	pages   *Pages
}

func NewDashboardHandler(service *service.DashboardService, pages *Pages) *DashboardHandler {
	return &DashboardHandler{service: service, pages: pages}
}

// Show never fails: stats that cannot be fetched render as zero with a
// notice. A rejected bearer token ends the session instead.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	dash := h.service.Load(r.Context(), middleware.SessionFrom(r.Context()).API())
	if dash.Unauthorized {
		h.pages.expire(w, r)
		return
	}

	pg := h.pages.page(w, r, "Dashboard", navigation.DashboardPath)
	pg.Notices = dash.Notices
	pg.Data = dash
	h.pages.render(w, http.StatusOK, view.PageDashboard, pg)
}
