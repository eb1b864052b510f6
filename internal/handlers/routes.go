// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/vrmates/accounts/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Routes mounts every route on e. searchRequiresAuth closes /list and
// /search to anonymous callers.
func (h *Handlers) Routes(e *echo.Echo, searchRequiresAuth bool) {
	e.GET("/health", h.Health)

	e.POST("/register", h.Register)
	e.GET("/activate/:uid/:token", h.Activate)
	e.POST("/activate/resend", h.ResendActivation)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)

	e.GET("/profile", h.Profile, middleware.RequireAuth)
	e.GET("/users/:id", h.GetUser, middleware.RequireAuth)
	e.PATCH("/users/:id", h.UpdateUser, middleware.RequireAuth)
	e.POST("/update", h.Update, middleware.RequireAuth)

	e.GET("/list", h.List, middleware.RequireAuthIf(searchRequiresAuth))
	e.PUT("/list", h.UpdateFromList, middleware.RequireAuth)
	e.PATCH("/list", h.UpdateFromList, middleware.RequireAuth)
	e.GET("/search", h.Search, middleware.RequireAuthIf(searchRequiresAuth))

	e.POST("/password-reset", h.RequestPasswordReset)
	e.POST("/password-reset/validate_token", h.ValidateResetToken)
	e.POST("/password-reset/confirm", h.ConfirmPasswordReset)
}
