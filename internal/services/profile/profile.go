// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package profile reads, updates and searches account profiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/vrmates/accounts/internal/auth"
	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/repository"
	"codeberg.org/vrmates/accounts/internal/validate"
)

// ErrForbidden is returned when the caller does not own the account.
var ErrForbidden = errors.New("not the owner of this account")

// editable lists the fields a user may change and their maximum length.
var editable = map[string]int{
	"first_name": models.MaxNameLength,
	"last_name":  models.MaxNameLength,
	"bio":        models.MaxBioLength,
}

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// GetOwn returns the account targetID if caller owns it.
func (s *Service) GetOwn(ctx context.Context, caller *models.User, targetID int64) (*models.User, error) {
	if !auth.IsOwner(caller, targetID) {
		return nil, ErrForbidden
	}
	return s.repo.GetUserByID(ctx, targetID)
}

// UpdateOwn applies a partial update to the account targetID if caller
// owns it. Keys outside the editable profile fields are rejected.
func (s *Service) UpdateOwn(ctx context.Context, caller *models.User, targetID int64, fields map[string]any) (*models.User, error) {
	if !auth.IsOwner(caller, targetID) {
		slog.Warn("profile_update_forbidden", "user_id", callerID(caller), "target_id", targetID)
		return nil, ErrForbidden
	}

	update, err := parseUpdate(fields)
	if err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return s.repo.GetUserByID(ctx, targetID)
	}

	user, err := s.repo.UpdateProfile(ctx, targetID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile_updated", "user_id", targetID)
	return user, nil
}

func parseUpdate(fields map[string]any) (models.ProfileUpdate, error) {
	var update models.ProfileUpdate
	errs := validate.Errors{}

	for key, raw := range fields {
		maxLen, ok := editable[key]
		if !ok {
			errs.Add(key, "This field cannot be changed.")
			continue
		}

		value, ok := raw.(string)
		if !ok {
			errs.Add(key, "Must be a string.")
			continue
		}
		if key != "bio" {
			value = strings.TrimSpace(value)
		}
		validate.MaxLength(errs, key, value, maxLen)

		switch key {
		case "first_name":
			update.FirstName = &value
		case "last_name":
			update.LastName = &value
		case "bio":
			update.Bio = &value
		}
	}

	return update, errs.Err()
}

// List returns every account, active or not.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// Search returns the accounts whose email contains query.
func (s *Service) Search(ctx context.Context, query string) ([]models.User, error) {
	return s.repo.SearchUsers(ctx, strings.TrimSpace(query))
}

func callerID(u *models.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
