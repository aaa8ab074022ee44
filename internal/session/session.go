package session

import (
	"fpc-portal/internal/apiclient"
	"fpc-portal/internal/model"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is a read-only view of one browser's authentication state. Only
// Manager produces Sessions; an identity is present exactly when a decoded
// token is.
type Session struct {
	id    string
	token string
	user  *model.UserIdentity
	api   *apiclient.Client
}

func anonymous(id string, api *apiclient.Client) *Session {
	return &Session{id: id, api: api.WithBearer("")}
}

func authenticated(id string, bearer string, user model.UserIdentity, api *apiclient.Client) *Session {
	return &Session{id: id, token: bearer, user: &user, api: api.WithBearer(bearer)}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	if s == nil || s.token == "" || s.user == nil {
		return Unauthenticated
	}
	return Authenticated
}

func (s *Session) Authenticated() bool {
	return s.State() == Authenticated
}

// User returns a copy of the identity; ok is false for anonymous sessions.
func (s *Session) User() (model.UserIdentity, bool) {
	if !s.Authenticated() {
		return model.UserIdentity{}, false
	}
	return *s.user, true
}

// Role is the signed-in role, or "" when anonymous.
func (s *Session) Role() model.Role {
	if !s.Authenticated() {
		return ""
	}
	return s.user.Role
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// API returns the upstream client for this session. Authenticated sessions
// carry their bearer token as a default header; anonymous ones carry none.
func (s *Session) API() *apiclient.Client {
	return s.api
}

func (s *Session) View() model.SessionView {
	user, ok := s.User()
	if !ok {
		return model.SessionView{}
	}
	return model.SessionView{Authenticated: true, User: &user}
}
