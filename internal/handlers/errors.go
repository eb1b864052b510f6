// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"codeberg.org/vrmates/accounts/internal/repository"
	authsvc "codeberg.org/vrmates/accounts/internal/services/auth"
	"codeberg.org/vrmates/accounts/internal/services/profile"
	"codeberg.org/vrmates/accounts/internal/validate"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request except field errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldErrorResponse is the body of a request rejected for invalid input.
type FieldErrorResponse struct {
	Errors validate.Errors `json:"errors"`
}

// respondError maps service errors to HTTP responses.
func respondError(c echo.Context, err error) error {
	var fieldErrs validate.Errors

	switch {
	case errors.As(err, &fieldErrs):
		return c.JSON(http.StatusBadRequest, FieldErrorResponse{Errors: fieldErrs})
	case errors.Is(err, repository.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, FieldErrorResponse{
			Errors: validate.Field("email", "A user with this email already exists."),
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, authsvc.ErrInvalidToken):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "invalid or expired token"})
	case errors.Is(err, profile.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "you do not have permission to access this account"})
	default:
		slog.ErrorContext(c.Request().Context(), "request_failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// bindError answers a request whose body could not be decoded. A value of
// the wrong JSON type is reported against its field.
func bindError(c echo.Context, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return respondError(c, validate.Field(field, typeMessage(typeErr.Type)))
	}
	return badRequest(c)
}

func typeMessage(t reflect.Type) string {
	if t == nil {
		return "Invalid value."
	}
	switch t.Kind() {
	case reflect.String:
		return "Must be a string."
	case reflect.Bool:
		return "Must be a boolean."
	case reflect.Map, reflect.Struct:
		return "Must be an object."
	default:
		return "Invalid value."
	}
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
}
