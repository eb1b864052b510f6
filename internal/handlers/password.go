// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/vrmates/accounts/internal/validate"
	"github.com/labstack/echo/v4"
)

// RequestPasswordReset emails a reset link. The response is the same
// whether or not the address has an account.
func (h *Handlers) RequestPasswordReset(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	errs := validate.Errors{}
	validate.Email(errs, "email", req.Email)
	if err := errs.Err(); err != nil {
		return respondError(c, err)
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return statusOK(c)
}

// ResetTokenRequest identifies a password reset link.
type ResetTokenRequest struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

func (r ResetTokenRequest) validate() error {
	errs := validate.Errors{}
	validate.Required(errs, "uid", r.UID)
	validate.Required(errs, "token", r.Token)
	return errs.Err()
}

// ValidateResetToken reports whether a reset link can still be used.
func (h *Handlers) ValidateResetToken(c echo.Context) error {
	var req ResetTokenRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := req.validate(); err != nil {
		return respondError(c, err)
	}

	if _, err := h.auth.ValidateResetToken(c.Request().Context(), req.UID, req.Token); err != nil {
		return respondError(c, err)
	}
	return statusOK(c)
}

// ConfirmResetRequest sets a new password through a reset link.
type ConfirmResetRequest struct {
	ResetTokenRequest
	Password string `json:"password"`
}

// ConfirmPasswordReset sets the new password.
func (h *Handlers) ConfirmPasswordReset(c echo.Context) error {
	var req ConfirmResetRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := req.validate(); err != nil {
		return respondError(c, err)
	}

	if err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.UID, req.Token, req.Password); err != nil {
		return respondError(c, err)
	}
	return statusOK(c)
}
