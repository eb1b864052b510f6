// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON endpoints of the accounts service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"codeberg.org/vrmates/accounts/internal/auth"
	"codeberg.org/vrmates/accounts/internal/models"
	authsvc "codeberg.org/vrmates/accounts/internal/services/auth"
	"codeberg.org/vrmates/accounts/internal/services/profile"
	"codeberg.org/vrmates/accounts/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	auth     *authsvc.Service
	profiles *profile.Service
	sessions *session.Manager
	db       Pinger

	// activationRedirect is where a browser goes after activating its
	// account. Empty means answer with JSON.
	activationRedirect string
}

// New creates a new Handlers instance.
func New(authService *authsvc.Service, profiles *profile.Service, sessions *session.Manager, db Pinger, activationRedirect string) *Handlers {
	return &Handlers{
		auth:               authService,
		profiles:           profiles,
		sessions:           sessions,
		db:                 db,
		activationRedirect: activationRedirect,
	}
}

// Health reports whether the service can reach its database.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		slog.ErrorContext(c.Request().Context(), "health_check_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// currentUser returns the authenticated user. Routes using it sit behind
// middleware.RequireAuth.
func currentUser(c echo.Context) *models.User {
	return auth.GetUser(c.Request().Context())
}

func statusOK(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}
