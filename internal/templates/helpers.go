// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates renders the few HTML pages a browser sees: the result
// of following an activation link.
package templates

import (
	"context"

	"codeberg.org/vrmates/accounts/internal/i18n"
)

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return i18n.T(ctx, messageID)
}

// Locale returns the current locale.
func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}
