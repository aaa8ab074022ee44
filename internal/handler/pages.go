package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"fpc-portal/internal/middleware"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/session"
	"fpc-portal/internal/view"
	"fpc-portal/pkg/apierror"
)

// Pages carries what every HTML handler needs to build and answer a page.
type Pages struct {
	renderer *view.Renderer
	flash    *view.Flasher
	sessions *session.Manager
}

func NewPages(renderer *view.Renderer, flash *view.Flasher, sessions *session.Manager) *Pages {
	return &Pages{renderer: renderer, flash: flash, sessions: sessions}
}

// page starts the view model for r: signed-in user, navigation, CSRF field
// and any pending flash.
func (p *Pages) page(w http.ResponseWriter, r *http.Request, title string, active string) view.Page {
	pg := view.Page{
		Title:     title,
		Active:    active,
		CSRFField: csrf.TemplateField(r),
		Flash:     p.flash.Pop(w, r),
		RequestID: middleware.RequestIDFrom(r.Context()),
	}

	if user, ok := middleware.SessionFrom(r.Context()).User(); ok {
		pg.User = &user
		pg.Nav = navigation.Resolve(user.Role)
	}

	return pg
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, pg view.Page) {
	p.renderer.Render(w, status, name, pg)
}

func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", to)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (p *Pages) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind string, message string, to string) {
	p.flash.Set(w, kind, message)
	p.redirect(w, r, to)
}

func (p *Pages) errorPage(w http.ResponseWriter, r *http.Request, status int, heading string, message string) {
	pg := p.page(w, r, heading, "")
	pg.Data = view.ErrorData{Status: status, Heading: heading, Message: message}
	p.render(w, status, view.PageError, pg)
}

// expired handles an upstream rejection of the session's bearer token: the
// session is cleared and the browser sent back to the login page. It reports
// whether err was such a rejection.
func (p *Pages) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apierror.IsKind(err, apierror.KindAuthentication) {
		return false
	}
	p.expire(w, r)
	return true
}

func (p *Pages) expire(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	if _, err := p.sessions.Expire(r.Context(), sess.ID()); err != nil {
		slog.Error("session clear after upstream rejection failed", "error", err)
	}
	p.flashAndRedirect(w, r, view.FlashError, "Your session has expired. Please sign in again.", middleware.LoginPath)
}

// notice turns a failed background load into the banner text shown above
// the page's default content. Cancelled requests produce no notice.
func notice(subject string, err error) string {
	if errors.Is(err, context.Canceled) {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return subject + " could not be loaded: the FPC service took too long to answer"
	}
	return subject + " could not be loaded: " + apierror.UserMessage(err)
}

func appendNotice(notices []string, subject string, err error) []string {
	if msg := notice(subject, err); msg != "" {
		return append(notices, msg)
	}
	return notices
}

// actor is the audit identity for the request's session.
func actor(r *http.Request) string {
	user, _ := middleware.SessionFrom(r.Context()).User()
	return user.Email
}

func (p *Pages) Forbidden(w http.ResponseWriter, r *http.Request) {
	p.errorPage(w, r, http.StatusForbidden, "Access denied", "Your role does not have access to this page.")
}

func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, apierror.New("NOT_FOUND", "resource not found", r.URL.Path, http.StatusNotFound))
		return
	}
	p.errorPage(w, r, http.StatusNotFound, "Page not found", "The page you asked for does not exist.")
}

func (p *Pages) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, apierror.New("METHOD_NOT_ALLOWED", "method not allowed", r.Method, http.StatusMethodNotAllowed))
		return
	}
	p.errorPage(w, r, http.StatusMethodNotAllowed, "Not allowed", "This page does not accept that kind of request.")
}

// CSRFFailure answers a form post whose CSRF token is missing or stale.
func (p *Pages) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, apierror.New("CSRF_FAILED", "missing or invalid CSRF token", "", http.StatusForbidden))
		return
	}
	p.errorPage(w, r, http.StatusForbidden, "Form expired", "The form was open too long or was submitted from another site. Go back, reload the page and try again.")
}
