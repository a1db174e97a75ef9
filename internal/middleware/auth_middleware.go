package middleware

import (
	"net/http"
	"strings"
	"time"

	"myEventReco/business/experiment"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ContextKeyUserID    = "user_id"
	ContextKeyRole      = "role"
	ContextKeySessionID = "session_id"
)

const sessionCookieMaxAge = 365 * 24 * 60 * 60

// Identity resolves who is calling. A Bearer JWT is optional and yields the
// user id; every caller also gets an anonymous session id from the session
// cookie, minted when absent. A present but invalid token is rejected.
func Identity(sessionCookie, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
				}

				claims, err := utils.ParseJWT(jwtSecret, tokenParts[1])
				if err != nil {
					logger.Debug("auth_token_rejected", "error", err)
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				if expAt, err := claims.GetExpirationTime(); err != nil || expAt == nil || time.Now().After(expAt.Time) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
				}
				if claims.UserID == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user ID in token")
				}

				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyRole, claims.Role)
			}

			c.Set(ContextKeySessionID, sessionID(c, sessionCookie))
			return next(c)
		}
	}
}

func sessionID(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}

	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// IdentityFrom reads what Identity stored on the echo context.
func IdentityFrom(c echo.Context) experiment.Identity {
	userID, _ := c.Get(ContextKeyUserID).(string)
	sessionID, _ := c.Get(ContextKeySessionID).(string)
	return experiment.Identity{UserID: userID, SessionID: sessionID}
}

func AuthRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID, _ := c.Get(ContextKeyUserID).(string); userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}
			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextKeyRole).(string)
			if !ok || strings.ToUpper(role) != "ADMIN" {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}

			return next(c)
		}
	}
}
