// Package auth implements session authentication for the portal API.
// Sessions are HS256-signed JWTs carrying the patient identity and the
// caller's roles; the upstream identity provider issues them, the
// portal only verifies.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// PatientIDKey holds the authenticated patient's identifier.
	PatientIDKey contextKey = "patient_id"
	// RolesKey holds the caller's granted roles.
	RolesKey contextKey = "roles"
)

// Claims are the portal session token claims.
type Claims struct {
	jwt.RegisteredClaims
	PatientID string   `json:"patient_id"`
	Roles     []string `json:"roles"`
}

// Middleware verifies the bearer token on every request and stores the
// patient identity and roles on the request context.
func Middleware(signingKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must be a bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, PatientIDKey, claims.PatientID)
			ctx = context.WithValue(ctx, RolesKey, claims.Roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole checks that the caller holds at least one of the given
// roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			granted := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range granted {
					if has == required || has == "admin" {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// PatientIDFromContext returns the authenticated patient id, or "" when
// the request is unauthenticated.
func PatientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(PatientIDKey).(string)
	return id
}

// RolesFromContext returns the caller's roles.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(RolesKey).([]string)
	return roles
}

// NewToken issues a signed session token. Used by the development login
// flow and by tests; production tokens come from the identity provider.
func NewToken(signingKey []byte, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
