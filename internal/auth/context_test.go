// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/vrmates/accounts/internal/auth"
	"codeberg.org/vrmates/accounts/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetUser_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, auth.GetUser(ctx))
	assert.False(t, auth.IsAuthenticated(ctx))
	assert.Empty(t, auth.Method(ctx))
}

func TestSetUser(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@x.com"}

	ctx := auth.SetUser(context.Background(), user, auth.MethodBearer)

	assert.Same(t, user, auth.GetUser(ctx))
	assert.True(t, auth.IsAuthenticated(ctx))
	assert.Equal(t, auth.MethodBearer, auth.Method(ctx))
}

func TestIsOwner(t *testing.T) {
	tests := []struct {
		name   string
		caller *models.User
		target int64
		want   bool
	}{
		{"own account", &models.User{ID: 1}, 1, true},
		{"other account", &models.User{ID: 1}, 2, false},
		{"anonymous", nil, 1, false},
		{"zero id", &models.User{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsOwner(tt.caller, tt.target))
		})
	}
}
