package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/csrf"
	"github.com/stretchr/testify/require"

	"fpc-portal/internal/apiclient"
	"fpc-portal/internal/model"
	"fpc-portal/internal/session"
)

var (
	testHashKey  = []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	testBlockKey = []byte("abcdef0123456789abcdef0123456789")
)

type sessionFixture struct {
	store   *session.MemoryStorage
	manager *session.Manager
	mw      *SessionMiddleware
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	return newSessionFixtureWith(t, SessionOptions{CookieName: "fpc_session"})
}

func newSessionFixtureWith(t *testing.T, opts SessionOptions) *sessionFixture {
	t.Helper()

	store := session.NewMemoryStorage()
	manager := session.NewManager(store, apiclient.New("http://127.0.0.1:1", time.Second))
	mw := NewSessionMiddleware(manager, testHashKey, testBlockKey, opts)
	return &sessionFixture{store: store, manager: manager, mw: mw}
}

// seed stores an authenticated session and returns the cookie naming it.
func (f *sessionFixture) seed(t *testing.T, id string, role int) *http.Cookie {
	t.Helper()
	return f.seedClaims(t, id, jwt.MapClaims{"email": "user@fpc.test", "role": role})
}

func (f *sessionFixture) seedClaims(t *testing.T, id string, claims jwt.MapClaims) *http.Cookie {
	t.Helper()

	bearer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), id, map[string]string{session.KeyToken: bearer}))

	rec := httptest.NewRecorder()
	f.mw.Issue(rec, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func captureSession(seen **session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoadIssuesCookieForNewVisitor(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	var seen *session.Session

	rec := httptest.NewRecorder()
	f.mw.Load(captureSession(&seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.NotNil(t, seen)
	require.False(t, seen.Authenticated())
	require.NotEmpty(t, seen.ID())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "fpc_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.NotContains(t, cookies[0].Value, seen.ID())
}

func TestLoadRestoresStoredSession(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	cookie := f.seed(t, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69", 2)

	var seen *session.Session
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.mw.Load(captureSession(&seen)).ServeHTTP(rec, req)

	require.True(t, seen.Authenticated())
	require.Equal(t, model.RoleRegionalManager, seen.Role())

	renewed := rec.Result().Cookies()
	require.Len(t, renewed, 1)
	require.Equal(t, "fpc_session", renewed[0].Name)
	require.True(t, renewed[0].Expires.IsZero())

	var id string
	require.NoError(t, f.mw.codec.Decode("fpc_session", renewed[0].Value, &id))
	require.Equal(t, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69", id)
}

func TestLoadRollsCookieForwardByIdleTTL(t *testing.T) {
	t.Parallel()

	f := newSessionFixtureWith(t, SessionOptions{CookieName: "fpc_session", IdleTTL: time.Hour})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.mw.now = func() time.Time { return now }
	cookie := f.seed(t, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69", 2)

	var seen *session.Session
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.mw.Load(captureSession(&seen)).ServeHTTP(rec, req)

	renewed := rec.Result().Cookies()
	require.Len(t, renewed, 1)
	require.True(t, now.Add(time.Hour).Equal(renewed[0].Expires), renewed[0].Expires)
	require.Equal(t, 3600, renewed[0].MaxAge)
}

func TestLoadCapsCookieAtTokenExpiry(t *testing.T) {
	t.Parallel()

	f := newSessionFixtureWith(t, SessionOptions{CookieName: "fpc_session", IdleTTL: 24 * time.Hour})
	now := time.Now().UTC().Truncate(time.Second)
	f.mw.now = func() time.Time { return now }
	exp := now.Add(30 * time.Minute)
	cookie := f.seedClaims(t, "0d9a4f0e-5b0a-4c71-8f07-2b0c5a7e1d11", jwt.MapClaims{
		"email": "user@fpc.test", "role": 2, "exp": exp.Unix(),
	})

	var seen *session.Session
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.mw.Load(captureSession(&seen)).ServeHTTP(rec, req)

	require.True(t, seen.Authenticated())
	renewed := rec.Result().Cookies()
	require.Len(t, renewed, 1)
	require.True(t, exp.Equal(renewed[0].Expires), renewed[0].Expires)
	require.Equal(t, 1800, renewed[0].MaxAge)
}

func TestIssueLeavesAnonymousCookieSessionScoped(t *testing.T) {
	t.Parallel()

	f := newSessionFixtureWith(t, SessionOptions{CookieName: "fpc_session", IdleTTL: time.Hour})
	rec := httptest.NewRecorder()
	f.mw.Issue(rec, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].Expires.IsZero())
	require.Zero(t, cookies[0].MaxAge)
}

func TestLoadReplacesTamperedCookie(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	cookie := f.seed(t, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69", 1)
	cookie.Value = cookie.Value[:len(cookie.Value)-4] + "AAAA"

	var seen *session.Session
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.mw.Load(captureSession(&seen)).ServeHTTP(rec, req)

	require.False(t, seen.Authenticated())
	require.NotEqual(t, "6f1c2c8e-8c55-4b5b-9d43-1f2d3c4b5a69", seen.ID())
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	cookie := f.seed(t, "0d9a4f0e-5b0a-4c71-8f07-2b0c5a7e1d11", 3)
	protected := f.mw.Load(RequireSession(okHandler()))

	t.Run("anonymous browser is redirected without a body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, LoginPath, rec.Header().Get("Location"))
		require.Empty(t, rec.Body.String())
	})

	t.Run("htmx callers get HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/fpo", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		require.Equal(t, LoginPath, rec.Header().Get("HX-Redirect"))
	})

	t.Run("json callers get 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/navigation", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
	})

	t.Run("authenticated session passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireNav(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t)
	officer := f.seed(t, "3b7c9d1e-2f4a-4b6c-8d0e-1a2b3c4d5e6f", 5)
	forbidden := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden page"))
	})

	registry := f.mw.Load(RequireSession(RequireNav("/fpo", forbidden)(okHandler())))
	turnover := f.mw.Load(RequireSession(RequireNav("/agri-business/new", forbidden)(okHandler())))

	req := httptest.NewRequest(http.MethodGet, "/fpo", nil)
	req.AddCookie(officer)
	rec := httptest.NewRecorder()
	registry.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden page", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/fpo", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(officer)
	rec = httptest.NewRecorder()
	registry.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), `"FORBIDDEN"`)

	req = httptest.NewRequest(http.MethodGet, "/agri-business/new", nil)
	req.AddCookie(officer)
	rec = httptest.NewRecorder()
	turnover.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsPostWithoutToken(t *testing.T) {
	t.Parallel()

	failure := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	var token string
	handler := CSRF(testBlockKey, false, nil, failure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = csrf.Token(r)
		w.WriteHeader(http.StatusOK)
	}))

	get := httptest.NewRecorder()
	handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, get.Code)
	require.NotEmpty(t, token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	form := url.Values{CSRFFieldName: {token}}
	post := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range get.Result().Cookies() {
		post.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, post)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestLoggingAssignsRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", seen)
}

func TestRecoveryReturns500(t *testing.T) {
	t.Parallel()

	panicking := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")

	rec = httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Something went wrong")
}
