// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"codeberg.org/vrmates/accounts/internal/i18n"
)

// Render writes a templ page in the request's locale. Pages carry
// per-account state, so they are never cached.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()

	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(ctx, buf); err != nil {
		return err
	}

	h := c.Response().Header()
	h.Set("Content-Language", i18n.GetLocale(ctx))
	h.Set("Cache-Control", "no-store")
	return c.HTML(statusCode, buf.String())
}
