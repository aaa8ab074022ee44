package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/service"
	"fpc-portal/internal/view"
	"fpc-portal/pkg/apierror"
)

var fpoStatuses = []string{model.FPOStatusPending, model.FPOStatusApproved, model.FPOStatusRejected}

type FPOHandler struct {
	fpos      *service.FPOService
	districts *service.DistrictService
	pages     *Pages
}

func NewFPOHandler(fpos *service.FPOService, districts *service.DistrictService, pages *Pages) *FPOHandler {
	return &FPOHandler{fpos: fpos, districts: districts, pages: pages}
}

func queryFromRequest(r *http.Request) model.FPOQuery {
	q := r.URL.Query()
	return model.FPOQuery{
		Search: strings.TrimSpace(q.Get("q")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}

func (h *FPOHandler) Registry(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	query := queryFromRequest(r)

	items, err := h.fpos.Registry(r.Context(), sess.API(), query)
	if err != nil && h.pages.expired(w, r, err) {
		return
	}

	pg := h.pages.page(w, r, "FPO Registry", navigation.PathFPORegistry)
	if err != nil {
		pg.Notices = appendNotice(pg.Notices, "The FPO registry", err)
	}
	pg.Data = view.FPOListData{
		Heading:   "FPO Registry",
		Action:    navigation.PathFPORegistry,
		Items:     items,
		Query:     query,
		Statuses:  fpoStatuses,
		CanDecide: navigation.Allowed(sess.Role(), navigation.PathPending),
	}
	h.pages.render(w, http.StatusOK, view.PageFPOList, pg)
}

func (h *FPOHandler) Pending(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	query := queryFromRequest(r)

	items, err := h.fpos.Pending(r.Context(), sess.API(), query)
	if err != nil && h.pages.expired(w, r, err) {
		return
	}

	pg := h.pages.page(w, r, "Pending Approvals", navigation.PathPending)
	if err != nil {
		pg.Notices = appendNotice(pg.Notices, "Pending approvals", err)
	}
	pg.Data = view.FPOListData{
		Heading:   "Pending Approvals",
		Action:    navigation.PathPending,
		Items:     items,
		Query:     query,
		Statuses:  fpoStatuses,
		CanDecide: true,
	}
	h.pages.render(w, http.StatusOK, view.PageFPOList, pg)
}

func (h *FPOHandler) Detail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, http.StatusOK, nil)
}

func (h *FPOHandler) renderDetail(w http.ResponseWriter, r *http.Request, status int, fields map[string]string) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.pages.NotFound(w, r)
		return
	}

	sess := middleware.SessionFrom(r.Context())
	fpo, err := h.fpos.Get(r.Context(), sess.API(), id)
	if err != nil {
		if h.pages.expired(w, r, err) {
			return
		}
		if errors.Is(err, model.ErrFPONotFound) {
			h.pages.NotFound(w, r)
			return
		}
		h.pages.errorPage(w, r, http.StatusBadGateway, "FPO unavailable", notice("This FPO", err))
		return
	}

	pg := h.pages.page(w, r, fpo.Name, navigation.PathFPORegistry)
	pg.Errors = fields
	pg.Data = view.FPODetailData{
		FPO:       fpo,
		CanDecide: navigation.Allowed(sess.Role(), navigation.PathPending),
	}
	h.pages.render(w, status, view.PageFPODetail, pg)
}

func (h *FPOHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.fpos.Approve, "approved")
}

func (h *FPOHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.fpos.Reject, "rejected")
}

type decisionFunc func(ctx context.Context, src service.FPOSource, actor string, decision model.ApprovalDecision) error

func (h *FPOHandler) decide(w http.ResponseWriter, r *http.Request, apply decisionFunc, verb string) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.pages.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.pages.errorPage(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	decision := model.ApprovalDecision{FPOID: id, Comment: r.PostFormValue("comment")}
	err = apply(r.Context(), middleware.SessionFrom(r.Context()).API(), actor(r), decision)
	switch {
	case err == nil:
		h.pages.flashAndRedirect(w, r, view.FlashSuccess, "FPO #"+strconv.FormatInt(id, 10)+" "+verb+".", navigation.PathPending)
	case apierror.IsKind(err, apierror.KindValidation):
		h.renderDetail(w, r, http.StatusUnprocessableEntity, apierror.FieldErrors(err))
	case h.pages.expired(w, r, err):
	default:
		h.pages.flashAndRedirect(w, r, view.FlashError, "The decision was not recorded: "+apierror.UserMessage(err), "/fpo/"+strconv.FormatInt(id, 10))
	}
}
