package handler

import (
	"net/http"
	"strconv"
	"strings"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/service"
	"fpc-portal/internal/view"
	"fpc-portal/pkg/apierror"
)

type AgriBusinessHandler struct {
	records *service.AgriBusinessService
	fpos    *service.FPOService
	pages   *Pages
}

func NewAgriBusinessHandler(records *service.AgriBusinessService, fpos *service.FPOService, pages *Pages) *AgriBusinessHandler {
	return &AgriBusinessHandler{records: records, fpos: fpos, pages: pages}
}

func (h *AgriBusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	selected := strings.TrimSpace(r.URL.Query().Get("fy"))

	records, years, err := h.records.List(r.Context(), sess.API(), selected)
	if err != nil && h.pages.expired(w, r, err) {
		return
	}

	pg := h.pages.page(w, r, "Agri Business", navigation.PathAgriBusiness)
	if err != nil {
		pg.Notices = appendNotice(pg.Notices, "Agri-business records", err)
	}
	pg.Data = view.AgriListData{
		Records:   records,
		Years:     years,
		Selected:  selected,
		CanCreate: navigation.Allowed(sess.Role(), navigation.PathAddTurnover),
	}
	h.pages.render(w, http.StatusOK, view.PageAgriList, pg)
}

func (h *AgriBusinessHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, model.AgriBusinessRecord{}, nil, nil)
}

func (h *AgriBusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.errorPage(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	record, parseErrors := recordFromForm(r)
	if len(parseErrors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, record, parseErrors, nil)
		return
	}

	_, err := h.records.Create(r.Context(), middleware.SessionFrom(r.Context()).API(), actor(r), record)
	if err != nil {
		if h.pages.expired(w, r, err) {
			return
		}
		if fields := apierror.FieldErrors(err); fields != nil {
			h.renderForm(w, r, http.StatusUnprocessableEntity, record, fields, nil)
			return
		}
		status, _ := classify(err)
		h.renderForm(w, r, status, record, nil, []string{"The record was not saved: " + apierror.UserMessage(err)})
		return
	}

	h.pages.flashAndRedirect(w, r, view.FlashSuccess, "Turnover for "+record.FinancialYear+" recorded.", navigation.PathAgriBusiness)
}

// renderForm offers an FPO picker when the role can list FPOs and falls back
// to a numeric id field otherwise.
func (h *AgriBusinessHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, record model.AgriBusinessRecord, fields map[string]string, notices []string) {
	sess := middleware.SessionFrom(r.Context())

	var fpos []model.FPO
	if navigation.Allowed(sess.Role(), navigation.PathFPORegistry) {
		items, err := h.fpos.Registry(r.Context(), sess.API(), model.FPOQuery{Status: model.FPOStatusApproved})
		if err != nil {
			notices = appendNotice(notices, "The FPO list", err)
		}
		fpos = items
	}

	pg := h.pages.page(w, r, "Add Turnover", navigation.PathAddTurnover)
	pg.Notices = append(pg.Notices, notices...)
	pg.Errors = fields
	pg.Data = view.AgriNewData{Record: record, FPOs: fpos}
	h.pages.render(w, status, view.PageAgriNew, pg)
}

// recordFromForm reads the turnover form. Numbers that do not parse are
// reported per field rather than treated as zero.
func recordFromForm(r *http.Request) (model.AgriBusinessRecord, map[string]string) {
	form := r.PostForm
	fields := map[string]string{}

	record := model.AgriBusinessRecord{
		FinancialYear: strings.TrimSpace(form.Get("financial_year")),
		Commodity:     strings.TrimSpace(form.Get("commodity")),
		Unit:          strings.TrimSpace(form.Get("unit")),
	}

	if raw := strings.TrimSpace(form.Get("fpo_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields["fpo_id"] = "Choose an FPO"
		}
		record.FPOID = id
	}
	if raw := strings.TrimSpace(form.Get("quantity")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields["quantity"] = "Enter a number"
		}
		record.Quantity = v
	}
	if raw := strings.TrimSpace(form.Get("turnover")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields["turnover"] = "Enter an amount"
		}
		record.Turnover = v
	}

	if len(fields) == 0 {
		return record, nil
	}
	return record, fields
}
