// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers and the ownership
// rule for account records.
package auth

import (
	"context"

	"codeberg.org/vrmates/accounts/internal/ctxkeys"
	"codeberg.org/vrmates/accounts/internal/models"
)

// How a request was authenticated.
const (
	MethodBearer  = "bearer"
	MethodSession = "session"
)

// SetUser returns a copy of ctx carrying the authenticated user.
func SetUser(ctx context.Context, user *models.User, method string) context.Context {
	ctx = context.WithValue(ctx, ctxkeys.User{}, user)
	return context.WithValue(ctx, ctxkeys.AuthMethod{}, method)
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// Method returns how the request was authenticated, or "" if it was not.
func Method(ctx context.Context) string {
	method, _ := ctx.Value(ctxkeys.AuthMethod{}).(string)
	return method
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

// IsOwner reports whether caller may read and change the account targetID.
// Accounts belong only to themselves.
func IsOwner(caller *models.User, targetID int64) bool {
	return caller != nil && caller.ID > 0 && caller.ID == targetID
}
