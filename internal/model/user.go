package model

import (
	"strings"
	"time"
)

// UserIdentity is who a session is authenticated as. It is derived from the
// bearer token at login and enriched from the profile endpoint when reachable.
type UserIdentity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      Role      `json:"role"`
	Region    string    `json:"region,omitempty"`
	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// DisplayName prefers the profile name and falls back to the email.
func (u UserIdentity) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// UserProfile is the subset of the upstream profile the portal consumes.
type UserProfile struct {
	ID        any    `json:"id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Region    string `json:"region"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	TokenType   string `json:"token_type,omitempty"`
}

// BearerToken returns whichever token field the upstream populated.
func (r LoginResponse) BearerToken() string {
	if strings.TrimSpace(r.AccessToken) != "" {
		return strings.TrimSpace(r.AccessToken)
	}
	return strings.TrimSpace(r.Token)
}

type SessionView struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserIdentity `json:"user,omitempty"`
}
