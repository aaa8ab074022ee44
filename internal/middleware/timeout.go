package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds a request. Its context, and every upstream call made with
// it, is cancelled when the deadline passes.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	const page = `<!doctype html><title>Timed out</title><p>The FPC service took too long to answer. Please try again.</p>`
	const body = `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		pages := http.TimeoutHandler(next, timeout, page)
		api := http.TimeoutHandler(next, timeout, body)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if WantsJSON(r) {
				api.ServeHTTP(w, r)
				return
			}
			pages.ServeHTTP(w, r)
		})
	}
}
