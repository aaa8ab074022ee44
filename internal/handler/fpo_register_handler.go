package handler

import (
	"log/slog"
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

// Wizard form actions.
const (
	actionNext    = "next"
	actionBack    = "back"
	actionRefresh = "refresh"
	actionAddRow  = "add_row"
	actionSubmit  = "submit"
)

func (h *FPOHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	states, notices := h.stateDistricts(r)
	h.renderStep(w, r, http.StatusOK, service.StepOrganization, model.FPORegistration{}, states, notices, nil)
}

// Register drives the three-step wizard. Every post carries the whole
// registration so far; only the final submit reaches the FPC service.
func (h *FPOHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.errorPage(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	reg := registrationFromForm(r)
	step := clampStep(parseIntOrDefault(r.PostFormValue("step"), service.StepOrganization))
	states, notices := h.stateDistricts(r)

	switch r.PostFormValue("action") {
	case actionBack:
		h.renderStep(w, r, http.StatusOK, clampStep(step-1), reg, states, notices, nil)

	case actionRefresh:
		h.renderStep(w, r, http.StatusOK, step, reg, states, notices, nil)

	case actionAddRow:
		reg.BoardMembers = append(reg.BoardMembers, model.BoardMember{})
		h.renderStep(w, r, http.StatusOK, service.StepBoard, reg, states, notices, nil)

	case actionSubmit:
		h.submit(w, r, reg, states, notices)

	default:
		if fields := h.fpos.ValidateStep(step, reg, states); len(fields) > 0 {
			h.renderStep(w, r, http.StatusUnprocessableEntity, step, reg, states, notices, fields)
			return
		}
		h.renderStep(w, r, http.StatusOK, clampStep(step+1), reg, states, notices, nil)
	}
}

func (h *FPOHandler) submit(w http.ResponseWriter, r *http.Request, reg model.FPORegistration, states []model.StateDistricts, notices []string) {
	sess := middleware.SessionFrom(r.Context())

	created, err := h.fpos.Register(r.Context(), sess.API(), actor(r), reg, states)
	if err != nil {
		if h.pages.expired(w, r, err) {
			return
		}
		if fields := apierror.FieldErrors(err); fields != nil {
			h.renderStep(w, r, http.StatusUnprocessableEntity, firstFailingStep(fields), reg, states, notices, fields)
			return
		}

		status, _ := classify(err)
		notices = append(notices, "The registration was not submitted: "+apierror.UserMessage(err))
		h.renderStep(w, r, status, service.StepBoard, reg, states, notices, nil)
		return
	}

	target := navigation.DashboardPath
	if navigation.Allowed(sess.Role(), navigation.PathFPORegistry) {
		target = navigation.PathFPORegistry
		if created.ID > 0 {
			target += "/" + strconv.FormatInt(created.ID, 10)
		}
	}
	h.pages.flashAndRedirect(w, r, view.FlashSuccess, reg.Name+" has been submitted for approval.", target)
}

func (h *FPOHandler) renderStep(w http.ResponseWriter, r *http.Request, status int, step int, reg model.FPORegistration, states []model.StateDistricts, notices []string, fields map[string]string) {
	rows := reg.BoardMembers
	if len(rows) == 0 {
		rows = []model.BoardMember{{}}
	}

	pg := h.pages.page(w, r, "Register FPO", navigation.PathRegisterFPO)
	pg.Notices = append(pg.Notices, notices...)
	pg.Errors = fields
	pg.Data = view.RegisterData{
		Step:      step,
		Reg:       reg,
		States:    states,
		BoardRows: rows,
	}
	h.pages.render(w, status, view.PageFPORegister, pg)
}

// stateDistricts loads the picker reference data. Without it the wizard
// still works with free-text location fields.
func (h *FPOHandler) stateDistricts(r *http.Request) ([]model.StateDistricts, []string) {
	states, err := h.districts.ByState(r.Context(), middleware.SessionFrom(r.Context()).API())
	if err != nil {
		slog.Warn("district reference unavailable", "error", err)
		return []model.StateDistricts{}, appendNotice(nil, "The state and district list", err)
	}
	return states, nil
}

func registrationFromForm(r *http.Request) model.FPORegistration {
	form := r.PostForm
	members, _ := strconv.Atoi(strings.TrimSpace(form.Get("member_count")))

	return model.FPORegistration{
		Name:               strings.TrimSpace(form.Get("name")),
		RegistrationNumber: strings.TrimSpace(form.Get("registration_number")),
		RegistrationDate:   strings.TrimSpace(form.Get("registration_date")),
		ContactEmail:       strings.TrimSpace(form.Get("contact_email")),
		ContactPhone:       strings.TrimSpace(form.Get("contact_phone")),
		MemberCount:        members,
		State:              strings.TrimSpace(form.Get("state")),
		District:           strings.TrimSpace(form.Get("district")),
		Block:              strings.TrimSpace(form.Get("block")),
		Village:            strings.TrimSpace(form.Get("village")),
		BoardMembers:       boardFromForm(form["board_name"], form["board_designation"], form["board_phone"], form["board_din"]),
	}
}

// boardFromForm zips the repeated director columns. Rows left entirely
// blank are dropped.
func boardFromForm(names, designations, phones, dins []string) []model.BoardMember {
	at := func(values []string, i int) string {
		if i < len(values) {
			return strings.TrimSpace(values[i])
		}
		return ""
	}

	rows := max(len(names), len(designations), len(phones), len(dins))
	members := make([]model.BoardMember, 0, rows)
	for i := 0; i < rows; i++ {
		m := model.BoardMember{
			Name:        at(names, i),
			Designation: at(designations, i),
			Phone:       at(phones, i),
			DIN:         at(dins, i),
		}
		if m == (model.BoardMember{}) {
			continue
		}
		members = append(members, m)
	}
	return members
}

func clampStep(step int) int {
	return min(max(step, service.StepOrganization), service.StepBoard)
}

// firstFailingStep is the earliest wizard step owning one of fields.
func firstFailingStep(fields map[string]string) int {
	step := service.StepBoard
	for field := range fields {
		switch {
		case strings.HasPrefix(field, "board_members"):
		case field == "state" || field == "district":
			step = min(step, service.StepLocation)
		default:
			return service.StepOrganization
		}
	}
	return step
}
