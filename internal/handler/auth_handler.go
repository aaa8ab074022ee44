package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/session"
	"fpc-portal/internal/view"
	"fpc-portal/pkg/apierror"
)

type AuthHandler struct {
	sessions *session.Manager
	cookies  *middleware.SessionMiddleware
	pages    *Pages
}

func NewAuthHandler(sessions *session.Manager, cookies *middleware.SessionMiddleware, pages *Pages) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies, pages: pages}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFrom(r.Context()).Authenticated() {
		h.pages.redirect(w, r, navigation.DashboardPath)
		return
	}

	pg := h.pages.page(w, r, "Sign in", "")
	pg.Data = view.LoginData{}
	h.pages.render(w, http.StatusOK, view.PageLogin, pg)
}

// Login authenticates under a fresh session id so a pre-login cookie never
// becomes an authenticated one. The old id is cleared once the new one is
// persisted.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.errorPage(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	previous := middleware.SessionFrom(r.Context())

	nextID := uuid.NewString()
	sess, err := h.sessions.Login(r.Context(), nextID, email, password)
	if err != nil {
		h.loginFailed(w, r, email, err)
		return
	}

	if _, err := h.sessions.Logout(r.Context(), previous.ID()); err != nil {
		slog.Warn("previous session not cleared", "error", err)
	}
	h.cookies.Renew(w, sess)

	user, _ := sess.User()
	h.pages.flashAndRedirect(w, r, view.FlashSuccess, "Welcome, "+user.DisplayName(), navigation.DashboardPath)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	pg := h.pages.page(w, r, "Sign in", "")
	pg.Data = view.LoginData{Email: email}

	status := http.StatusBadGateway
	switch {
	case apierror.IsKind(err, apierror.KindValidation):
		status = http.StatusUnprocessableEntity
		pg.Errors = apierror.FieldErrors(err)
	case apierror.IsKind(err, apierror.KindAuthentication):
		status = http.StatusUnauthorized
		pg.Flash = &view.Flash{Kind: view.FlashError, Message: apierror.UserMessage(err)}
	default:
		pg.Flash = &view.Flash{Kind: view.FlashError, Message: "Sign-in is unavailable: " + apierror.UserMessage(err)}
	}

	h.pages.render(w, status, view.PageLogin, pg)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Logout(r.Context(), middleware.SessionFrom(r.Context()).ID()); err != nil {
		slog.Error("logout failed to clear storage", "error", err)
	}
	h.pages.flashAndRedirect(w, r, view.FlashSuccess, "You have been signed out.", middleware.LoginPath)
}
