package apiclient

import (
	"context"
	"net/http"
	"strings"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

// Login exchanges credentials for a bearer token. Rejected credentials
// (400, 401, 403, 422) surface as an authentication error carrying the
// upstream detail.
func (c *Client) Login(ctx context.Context, email string, password string) (string, error) {
	var resp model.LoginResponse
	err := c.exchange(ctx, http.MethodPost, "/login", "/login", model.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &resp, isCredentialRejection)
	if err != nil {
		return "", err
	}

	bearer := resp.BearerToken()
	if bearer == "" {
		return "", apierror.Server("/login", http.StatusBadGateway, "login response carried no token")
	}

	return bearer, nil
}

func isCredentialRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// Profile fetches the signed-in user's profile from path using this
// client's bearer token.
func (c *Client) Profile(ctx context.Context, path string) (model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.call(ctx, http.MethodGet, path, path, nil, &profile); err != nil {
		return model.UserProfile{}, err
	}
	return profile, nil
}
