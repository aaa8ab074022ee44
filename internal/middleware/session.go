package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
	"fpc-portal/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "portal_session"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

type SessionOptions struct {
	CookieName string
	Secure     bool
	// IdleTTL bounds how long a signed cookie is accepted after it was last
	// written. Authenticated cookies are rewritten on every request, so the
	// limit applies to inactivity. Zero keeps the securecookie default.
	IdleTTL time.Duration
}

// SessionMiddleware maps the signed session cookie to a restored Session.
type SessionMiddleware struct {
	manager *session.Manager
	codec   *securecookie.SecureCookie
	opts    SessionOptions
	now     func() time.Time
}

func NewSessionMiddleware(manager *session.Manager, hashKey []byte, blockKey []byte, opts SessionOptions) *SessionMiddleware {
	if opts.CookieName == "" {
		opts.CookieName = "fpc_session"
	}

	codec := securecookie.New(hashKey, blockKey)
	if opts.IdleTTL > 0 {
		codec.MaxAge(int(opts.IdleTTL.Seconds()))
	}

	return &SessionMiddleware{manager: manager, codec: codec, opts: opts, now: time.Now}
}

// Load resolves the session cookie and stores the Session in the request
// context. A missing or tampered cookie starts a fresh anonymous session
// under a new id.
func (m *SessionMiddleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.readID(r)
		if !ok {
			id = uuid.NewString()
			m.Issue(w, id)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), m.manager.Anonymous(id))))
			return
		}

		sess, err := m.manager.Restore(r.Context(), id)
		if err != nil {
			slog.Error("session restore failed", "session_id", id, "error", err)
		}
		if sess.Authenticated() {
			m.Renew(w, sess)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (m *SessionMiddleware) readID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return "", false
	}

	var id string
	if err := m.codec.Decode(m.opts.CookieName, cookie.Value, &id); err != nil {
		slog.Debug("session cookie rejected", "error", err)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Issue writes the signed cookie for an anonymous id. It lasts for the
// browser session.
func (m *SessionMiddleware) Issue(w http.ResponseWriter, id string) {
	m.write(w, id, time.Time{})
}

// Renew writes the cookie for an authenticated session with a fresh
// timestamp. It expires when the bearer token does or after IdleTTL,
// whichever comes first.
func (m *SessionMiddleware) Renew(w http.ResponseWriter, sess *session.Session) {
	m.write(w, sess.ID(), m.expiry(sess))
}

func (m *SessionMiddleware) expiry(sess *session.Session) time.Time {
	var at time.Time
	if m.opts.IdleTTL > 0 {
		at = m.now().Add(m.opts.IdleTTL)
	}

	user, _ := sess.User()
	if !user.ExpiresAt.IsZero() && (at.IsZero() || user.ExpiresAt.Before(at)) {
		at = user.ExpiresAt
	}
	return at
}

func (m *SessionMiddleware) write(w http.ResponseWriter, id string, expires time.Time) {
	encoded, err := m.codec.Encode(m.opts.CookieName, id)
	if err != nil {
		slog.Error("session cookie encode failed", "error", err)
		return
	}

	cookie := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
		cookie.MaxAge = int(expires.Sub(m.now()).Seconds())
		if cookie.MaxAge <= 0 {
			cookie.MaxAge = -1
		}
	}
	http.SetCookie(w, cookie)
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFrom returns the request's session. It is nil only outside Load.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// RequireSession lets authenticated sessions through. Browsers are
// redirected to the login page with 303; JSON callers get 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		if WantsJSON(r) {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		if r.Header.Get("HX-Request") != "" {
			w.Header().Set("HX-Redirect", LoginPath)
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Location", LoginPath)
		w.WriteHeader(http.StatusSeeOther)
	})
}

// RequireNav admits sessions whose role has path in its navigation. Others
// are handed to forbidden.
func RequireNav(path string, forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if navigation.Allowed(SessionFrom(r.Context()).Role(), path) {
				next.ServeHTTP(w, r)
				return
			}

			if WantsJSON(r) {
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			forbidden.ServeHTTP(w, r)
		})
	}
}

// RequireRoles admits only the listed roles. It backs JSON endpoints that
// have no navigation entry.
func RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[SessionFrom(r.Context()).Role()]; !ok {
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
