package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

// Claims is what the portal reads out of an upstream bearer token.
type Claims struct {
	Email     string
	RoleClaim int
	Role      model.Role
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Decode reads the claims segment of a bearer token without verifying its
// signature. The upstream API is the token's audience and verifies it on
// every call; the portal only needs the role and email it carries.
func Decode(bearer string) (Claims, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return Claims{}, apierror.Authentication("empty bearer token")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(bearer, mapClaims); err != nil {
		return Claims{}, apierror.Authentication(fmt.Sprintf("malformed bearer token: %v", err))
	}

	email := stringClaim(mapClaims, "email")
	if email == "" {
		email = stringClaim(mapClaims, "sub")
	}
	if email == "" {
		return Claims{}, apierror.Authentication(model.ErrNoEmailClaim.Error())
	}

	roleClaim, _ := intClaim(mapClaims, "role")
	claims := Claims{
		Email:     email,
		RoleClaim: roleClaim,
		Role:      model.RoleFromClaim(roleClaim),
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time.UTC()
	}

	return claims, nil
}

// Identity builds the session identity for decoded claims. The email doubles
// as the identity key.
func (c Claims) Identity() model.UserIdentity {
	return model.UserIdentity{
		ID:        c.Email,
		Email:     c.Email,
		Role:      c.Role,
		IsActive:  true,
		ExpiresAt: c.ExpiresAt,
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func intClaim(claims jwt.MapClaims, key string) (int, bool) {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
