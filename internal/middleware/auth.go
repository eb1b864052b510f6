// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the echo middleware of the accounts service.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/vrmates/accounts/internal/auth"
	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/services/session"
	"github.com/labstack/echo/v4"
)

// UserLoader loads the account behind a session or access token.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadUser puts the authenticated user into the request context. A bearer
// access token is tried first, then the session cookie. Only active
// accounts are loaded; anything else leaves the request anonymous.
func LoadUser(sessions *session.Manager, tokens *session.AccessTokens, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var (
				id     int64
				method string
			)
			if token, ok := bearerToken(req); ok {
				if parsed, err := tokens.Parse(token); err == nil {
					id, method = parsed, auth.MethodBearer
				}
			} else if data := sessions.Parse(req); data != nil {
				id, method = data.UserID, auth.MethodSession
			}

			if id == 0 {
				return next(c)
			}

			user, err := users.GetUserByID(req.Context(), id)
			if err != nil {
				slog.Debug("auth_user_not_loaded", "user_id", id, "error", err)
				return next(c)
			}
			if !user.IsActive {
				return next(c)
			}

			c.SetRequest(req.WithContext(auth.SetUser(req.Context(), user, method)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAuthenticated(c.Request().Context()) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}
		return next(c)
	}
}

// RequireAuthIf applies RequireAuth only when required is set.
func RequireAuthIf(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if required {
			return RequireAuth(next)
		}
		return next
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
