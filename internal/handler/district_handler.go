package handler

import (
	"net/http"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/service"
	"fpc-portal/internal/view"
)

type DistrictHandler struct {
	service *service.DistrictService
	pages   *Pages
}

func NewDistrictHandler(service *service.DistrictService, pages *Pages) *DistrictHandler {
	return &DistrictHandler{service: service, pages: pages}
}

func (h *DistrictHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ByState(r.Context(), middleware.SessionFrom(r.Context()).API())
	if err != nil && h.pages.expired(w, r, err) {
		return
	}

	pg := h.pages.page(w, r, "Districts", navigation.PathDistrictsData)
	if err != nil {
		pg.Notices = appendNotice(pg.Notices, "District reference data", err)
	}
	pg.Data = view.DistrictsData{Groups: groups}
	h.pages.render(w, http.StatusOK, view.PageDistricts, pg)
}
