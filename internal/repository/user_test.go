// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/repository"
	"codeberg.org/vrmates/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, " A@X.com ", "hash")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.False(t, user.IsActive)
	assert.NotZero(t, user.CreatedAt)
	assert.Nil(t, user.LastLogin)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	first, err := repo.CreateUser(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "A@x.COM", "hash-2")

	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	// Existing record unchanged
	stored, err := repo.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", stored.PasswordHash)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetUserByID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestUser(t, repo, "a@x.com")

	retrieved, err := repo.GetUserByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, created.Email, retrieved.Email)
	assert.Equal(t, created.PasswordHash, retrieved.PasswordHash)
	assert.WithinDuration(t, created.CreatedAt, retrieved.CreatedAt, time.Second)
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByID(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestUser(t, repo, "a@x.com")

	retrieved, err := repo.GetUserByEmail(ctx, "A@X.COM")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@x.com")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEmailExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestUser(t, repo, "a@x.com")

	exists, err := repo.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestActivateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "a@x.com")

	require.NoError(t, repo.ActivateUser(ctx, user.ID))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestActivateUser_AlreadyActive(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewActiveTestUser(t, repo, "a@x.com")

	err := repo.ActivateUser(ctx, user.ID)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivateUser_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.ActivateUser(context.Background(), 42)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "a@x.com")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, at.Equal(*stored.LastLogin))
}

func TestUpdateUserPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "a@x.com")

	require.NoError(t, repo.UpdateUserPassword(ctx, user.ID, "new-hash"))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
}

func TestUpdateProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "a@x.com")

	updated, err := repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
		FirstName: ptr("Ada"),
		Bio:       ptr("Analytical engines"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Empty(t, updated.LastName)
	assert.Equal(t, "Analytical engines", updated.Bio)
	assert.Equal(t, "a@x.com", updated.Email)

	// Second partial update keeps earlier fields
	updated, err = repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{LastName: ptr("Lovelace")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
}

func TestUpdateProfile_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "a@x.com")

	updated, err := repo.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{})

	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.UpdateProfile(context.Background(), 42, models.ProfileUpdate{Bio: ptr("x")})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	testutil.NewTestUser(t, repo, "a@x.com")
	testutil.NewActiveTestUser(t, repo, "b@x.com")

	users, err = repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
}

func TestSearchUsers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "alice@example.com")
	testutil.NewActiveTestUser(t, repo, "bob@example.com")
	testutil.NewTestUser(t, repo, "carol_x@other.org")

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"substring", "example", []string{"alice@example.com", "bob@example.com"}},
		{"case insensitive", "ALICE", []string{"alice@example.com"}},
		{"empty lists all", "", []string{"alice@example.com", "bob@example.com", "carol_x@other.org"}},
		{"no match", "zed", nil},
		{"underscore is literal", "_", []string{"carol_x@other.org"}},
		{"percent is literal", "%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.SearchUsers(ctx, tt.query)
			require.NoError(t, err)

			var emails []string
			for _, u := range users {
				emails = append(emails, u.Email)
			}
			assert.Equal(t, tt.expected, emails)
		})
	}
}
