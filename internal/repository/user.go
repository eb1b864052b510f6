// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/vrmates/accounts/internal/models"
)

const userColumns = `id, email, password_hash, is_active, first_name, last_name, bio, last_login, created_at, updated_at`

// CreateUser creates a new, inactive user.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := r.now()
	user := &models.User{
		Email:        models.NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO users (email, password_hash, is_active, created_at, updated_at)
		 VALUES (:email, :password_hash, :is_active, :created_at, :updated_at)`, user)
	if err != nil {
		return nil, wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	user.ID = id

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// EmailExists checks if a user with the given email exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM users WHERE email = ?`, models.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProfile applies a partial profile update and returns the stored user.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	var (
		sets []string
		args []any
	)
	if update.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *update.FirstName)
	}
	if update.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *update.LastName)
	}
	if update.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *update.Bio)
	}

	if len(sets) == 0 {
		return r.GetUserByID(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(sets, ", "))
	if err := r.execOne(ctx, query, args...); err != nil {
		return nil, err
	}

	return r.GetUserByID(ctx, id)
}

// ActivateUser marks a pending user active. It returns ErrNotFound when no
// pending user with id exists, so only one of several concurrent
// activations succeeds.
func (r *Repository) ActivateUser(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET is_active = 1, updated_at = ? WHERE id = ? AND is_active = 0`, r.now(), id)
}

// UpdateLastLogin records a successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id)
}

// UpdateUserPassword replaces a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, r.now(), id)
}

// ListUsers returns all users ordered by ID.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers returns users whose email contains query, ignoring case.
// An empty query returns all users.
func (r *Repository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.ListUsers(ctx)
	}

	users := []models.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE email LIKE ? ESCAPE '\' ORDER BY id`,
		"%"+escapeLike(query)+"%")
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM users`); err != nil {
		return 0, err
	}
	return count, nil
}

// execOne runs a single-row write and reports ErrNotFound if no row matched.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
