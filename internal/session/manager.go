package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"fpc-portal/internal/apiclient"
	"fpc-portal/internal/event"
	"fpc-portal/internal/metrics"
	"fpc-portal/internal/model"
	"fpc-portal/internal/token"
	"fpc-portal/pkg/apierror"
)

const DefaultProfilePath = "/api/users/me"

// Manager is the only writer of session state.
type Manager struct {
	store           Storage
	api             *apiclient.Client
	events          event.Bus
	metrics         *metrics.Metrics
	profilePath     string
	verifyOnRestore bool
}

type Option func(*Manager)

func WithEvents(bus event.Bus) Option {
	return func(m *Manager) {
		m.events = bus
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithProfilePath sets the upstream path used for identity enrichment. An
// empty path disables enrichment.
func WithProfilePath(path string) Option {
	return func(m *Manager) {
		m.profilePath = strings.TrimSpace(path)
	}
}

// WithVerifyOnRestore makes Restore confirm a stored token with the profile
// endpoint instead of trusting it.
func WithVerifyOnRestore(verify bool) Option {
	return func(m *Manager) {
		m.verifyOnRestore = verify
	}
}

func NewManager(store Storage, api *apiclient.Client, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		api:         api.WithBearer(""),
		profilePath: DefaultProfilePath,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Anonymous returns an unauthenticated session for id without touching
// storage.
func (m *Manager) Anonymous(id string) *Session {
	return anonymous(id, m.api)
}

// Login exchanges credentials for a bearer token and persists the token and
// identity snapshot under sessionID. On any failure the stored state is left
// as it was.
func (m *Manager) Login(ctx context.Context, sessionID string, email string, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	fields := map[string]string{}
	if email == "" {
		fields["email"] = "Email is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return nil, apierror.Validation(fields)
	}

	bearer, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.loginFailed(email, err)
		return nil, err
	}

	claims, err := token.Decode(bearer)
	if err != nil {
		m.loginFailed(email, err)
		return nil, err
	}

	user := claims.Identity()
	authed := m.api.WithBearer(bearer)
	if m.profilePath != "" {
		if profile, err := authed.Profile(ctx, m.profilePath); err != nil {
			slog.Debug("profile enrichment skipped", "email", user.Email, "error", err)
		} else {
			enrich(&user, profile)
		}
	}

	snapshot, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode identity snapshot: %w", err)
	}

	if err := m.store.Put(ctx, sessionID, map[string]string{
		KeyToken: bearer,
		KeyUser:  string(snapshot),
	}); err != nil {
		m.metrics.ObserveLogin("error")
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.metrics.ObserveLogin("success")
	m.publish(event.TypeSessionLogin, user.Email, map[string]any{"role": string(user.Role)})
	slog.Info("session authenticated", "email", user.Email, "role", user.Role)

	return authenticated(sessionID, bearer, user, m.api), nil
}

func (m *Manager) loginFailed(email string, err error) {
	outcome := "error"
	if apierror.IsKind(err, apierror.KindAuthentication) {
		outcome = "rejected"
	}
	m.metrics.ObserveLogin(outcome)
	m.publish(event.TypeSessionLoginFailed, email, map[string]any{"reason": apierror.UserMessage(err)})
	slog.Info("login failed", "email", email, "outcome", outcome, "error", err)
}

// enrich copies profile attributes the token does not carry.
func enrich(user *model.UserIdentity, profile model.UserProfile) {
	user.FirstName = strings.TrimSpace(profile.FirstName)
	user.LastName = strings.TrimSpace(profile.LastName)
	user.Region = strings.TrimSpace(profile.Region)
	if profile.IsActive != nil {
		user.IsActive = *profile.IsActive
	}
}

// Logout clears durable storage for sessionID. No upstream call is made. The
// returned session is always unauthenticated, even when clearing fails.
func (m *Manager) Logout(ctx context.Context, sessionID string) (*Session, error) {
	actor := m.actor(ctx, sessionID)

	anon := anonymous(sessionID, m.api)
	if err := m.store.Clear(ctx, sessionID); err != nil {
		return anon, fmt.Errorf("clear session: %w", err)
	}

	if actor != "" {
		m.publish(event.TypeSessionLogout, actor, nil)
	}
	return anon, nil
}

// Expire clears a session whose bearer token the FPC API rejected. Unlike
// Logout it records session.cleared, so the audit trail tells the two apart.
func (m *Manager) Expire(ctx context.Context, sessionID string) (*Session, error) {
	slog.Info("bearer token rejected upstream; clearing session", "session_id", sessionID)
	return m.invalidate(ctx, sessionID, "upstream_rejected")
}

func (m *Manager) actor(ctx context.Context, sessionID string) string {
	raw, ok, err := m.store.Get(ctx, sessionID, KeyUser)
	if err != nil || !ok {
		return ""
	}
	var user model.UserIdentity
	if json.Unmarshal([]byte(raw), &user) != nil {
		return ""
	}
	return user.Email
}

// Restore rebuilds the session stored under sessionID. A stored token makes
// the session authenticated without any network call unless verification is
// enabled. A missing or unreadable identity snapshot is re-derived from the
// token; a token that cannot be decoded clears the session.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return anonymous(sessionID, m.api), nil
	}

	bearer, ok, err := m.store.Get(ctx, sessionID, KeyToken)
	if err != nil {
		return anonymous(sessionID, m.api), fmt.Errorf("read session token: %w", err)
	}
	if !ok || strings.TrimSpace(bearer) == "" {
		return anonymous(sessionID, m.api), nil
	}

	user, ok := m.snapshot(ctx, sessionID)
	if !ok {
		claims, err := token.Decode(bearer)
		if err != nil {
			slog.Warn("stored token undecodable; clearing session", "session_id", sessionID, "error", err)
			return m.invalidate(ctx, sessionID, "undecodable_token")
		}
		user = claims.Identity()
	}

	if m.verifyOnRestore {
		if _, err := m.api.WithBearer(bearer).Profile(ctx, m.verifyPath()); err != nil {
			if apierror.IsKind(err, apierror.KindAuthentication) {
				slog.Info("stored token rejected upstream; clearing session", "session_id", sessionID, "email", user.Email)
				return m.invalidate(ctx, sessionID, "rejected_token")
			}
			slog.Warn("session verification unavailable; trusting stored token", "session_id", sessionID, "error", err)
		}
	}

	if err := m.store.Touch(ctx, sessionID); err != nil {
		slog.Warn("session touch failed", "session_id", sessionID, "error", err)
	}

	return authenticated(sessionID, bearer, user, m.api), nil
}

func (m *Manager) snapshot(ctx context.Context, sessionID string) (model.UserIdentity, bool) {
	raw, ok, err := m.store.Get(ctx, sessionID, KeyUser)
	if err != nil || !ok {
		return model.UserIdentity{}, false
	}

	var user model.UserIdentity
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.Email == "" {
		return model.UserIdentity{}, false
	}
	if user.ID == "" {
		user.ID = user.Email
	}
	return user, true
}

func (m *Manager) verifyPath() string {
	if m.profilePath == "" {
		return DefaultProfilePath
	}
	return m.profilePath
}

func (m *Manager) invalidate(ctx context.Context, sessionID string, reason string) (*Session, error) {
	actor := m.actor(ctx, sessionID)

	anon := anonymous(sessionID, m.api)
	if err := m.store.Clear(ctx, sessionID); err != nil {
		return anon, fmt.Errorf("clear session: %w", err)
	}
	m.publish(event.TypeSessionCleared, actor, map[string]any{"session_id": sessionID, "reason": reason})
	return anon, nil
}

func (m *Manager) publish(kind event.Type, actor string, payload map[string]any) {
	if m.events == nil {
		return
	}
	m.events.Publish(event.New(kind, actor, payload))
}
