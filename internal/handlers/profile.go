// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Profile returns the caller's own account.
func (h *Handlers) Profile(c echo.Context) error {
	caller := currentUser(c)
	user, err := h.profiles.GetOwn(c.Request().Context(), caller, caller.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser returns the account :id if the caller owns it.
func (h *Handlers) GetUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	user, err := h.profiles.GetOwn(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser partially updates the account :id if the caller owns it.
func (h *Handlers) UpdateUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
	return h.update(c, id, http.StatusOK)
}

// Update partially updates the caller's own account.
func (h *Handlers) Update(c echo.Context) error {
	return h.update(c, currentUser(c).ID, http.StatusCreated)
}

func (h *Handlers) update(c echo.Context, id int64, status int) error {
	fields := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &fields); err != nil {
		return bindError(c, err)
	}

	user, err := h.profiles.UpdateOwn(c.Request().Context(), currentUser(c), id, fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status, user)
}

// UserEnvelope wraps profile fields as {"user": {...}}.
type UserEnvelope struct {
	User map[string]any `json:"user"`
}

// UpdateFromList partially updates the caller's own account from a
// {"user": {...}} envelope.
func (h *Handlers) UpdateFromList(c echo.Context) error {
	var req UserEnvelope
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return bindError(c, err)
	}
	if req.User == nil {
		req.User = map[string]any{}
	}

	caller := currentUser(c)
	user, err := h.profiles.UpdateOwn(c.Request().Context(), caller, caller.ID, req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// List returns every account.
func (h *Handlers) List(c echo.Context) error {
	users, err := h.profiles.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Search returns the accounts whose email contains ?search=.
func (h *Handlers) Search(c echo.Context) error {
	users, err := h.profiles.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}
