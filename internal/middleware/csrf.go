package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

const CSRFFieldName = "csrf_token"

// CSRF protects every state-changing form post. Plain-HTTP deployments must
// pass secure=false so the origin check accepts http referers.
func CSRF(key []byte, secure bool, trustedOrigins []string, failure http.Handler) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.CookieName("fpc_csrf"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			failure.ServeHTTP(w, r)
		})),
	}
	if len(trustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(trustedOrigins))
	}

	protect := csrf.Protect(key, opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
