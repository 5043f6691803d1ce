package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// Context keys set by Auth.
const (
	CtxSessionID = "session_id"
	CtxIdentity  = "identity"
	CtxRole      = "role"
)

// SessionResolver returns the identity of a live session, or nil once the
// session has been logged out.
type SessionResolver interface {
	Identity(ctx context.Context, sid string) *domain.Identity
}

// Auth validates the JWT, resolves the session it names, and injects the
// session id, identity and role into context.
func Auth(jwtSecret string, sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sid, _ := claims["sid"].(string)
			if sid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing session")
			}
			identity := sessions.Identity(c.Request().Context(), sid)
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set(CtxSessionID, sid)
			c.Set(CtxIdentity, identity)
			c.Set(CtxRole, string(identity.Role))

			return next(c)
		}
	}
}
