// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/vrmates/accounts/internal/auth"
	authsvc "codeberg.org/vrmates/accounts/internal/services/auth"
	"codeberg.org/vrmates/accounts/internal/templates"
	"github.com/labstack/echo/v4"
)

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Response string `json:"response"`
	Email    string `json:"email"`
	ID       int64  `json:"id"`
}

// Register creates an inactive account and emails its activation link.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	user, err := h.auth.Register(c.Request().Context(), authsvc.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		Response: "Successfully created a new user. Please check your email and verify your account.",
		Email:    user.Email,
		ID:       user.ID,
	})
}

// Activate handles the link from the activation email. On success the
// browser is logged in and redirected.
func (h *Handlers) Activate(c echo.Context) error {
	user, err := h.auth.Activate(c.Request().Context(), c.Param("uid"), c.Param("token"))
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidToken) {
			return Render(c, http.StatusBadRequest, templates.ActivationFailed())
		}
		return respondError(c, err)
	}

	cookie, err := h.sessions.Create(user.ID, user.Email)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	if h.activationRedirect != "" {
		return c.Redirect(http.StatusFound, h.activationRedirect)
	}
	if wantsHTML(c) {
		return Render(c, http.StatusOK, templates.ActivationSucceeded())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "activated"})
}

// EmailRequest is a request body carrying only an email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResendActivation sends a new activation link. The response does not
// reveal whether the address belongs to a pending account.
func (h *Handlers) ResendActivation(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	if err := h.auth.ResendActivation(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return statusOK(c)
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks credentials, returns a bearer token and sets the session
// cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	cookie, err := h.sessions.Create(result.User.ID, result.User.Email)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, LoginResponse{
		Email:     result.User.Email,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout clears the session cookie. Bearer tokens stay valid until they
// expire.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	if user := currentUser(c); user != nil {
		slog.Info("logout", "user_id", user.ID, "method", auth.Method(c.Request().Context()))
	}
	return c.NoContent(http.StatusNoContent)
}

func wantsHTML(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMETextHTML)
}
