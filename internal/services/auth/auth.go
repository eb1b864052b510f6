// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the account lifecycle: registration, activation,
// login and password reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/vrmates/accounts/internal/config"
	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/repository"
	"codeberg.org/vrmates/accounts/internal/services/session"
	"codeberg.org/vrmates/accounts/internal/services/tokens"
	"codeberg.org/vrmates/accounts/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Mailer sends the emails of the account lifecycle.
type Mailer interface {
	SendActivation(ctx context.Context, user *models.User, uid, token string, validFor time.Duration) error
	SendPasswordReset(ctx context.Context, user *models.User, uid, token string, validFor time.Duration) error
}

type Service struct {
	repo       *repository.Repository
	mailer     Mailer
	activation *tokens.Generator
	reset      *tokens.Generator
	access     *session.AccessTokens
	policy     *PasswordPolicy

	hashCost int
	// dummyHash is compared against when an account does not exist. It
	// shares hashCost so both paths take equally long.
	dummyHash []byte

	// NowFunc returns the time recorded as last login.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewService creates the auth service. cfg.SecretKey keys every token the
// service issues.
func NewService(repo *repository.Repository, mailer Mailer, cfg *config.AuthConfig) (*Service, error) {
	secret := []byte(cfg.SecretKey)

	activation, err := tokens.NewGenerator(secret, tokens.PurposeActivation, cfg.ActivationTTL)
	if err != nil {
		return nil, fmt.Errorf("activation tokens: %w", err)
	}
	reset, err := tokens.NewGenerator(secret, tokens.PurposePasswordReset, cfg.ResetTTL)
	if err != nil {
		return nil, fmt.Errorf("password reset tokens: %w", err)
	}
	access, err := session.NewAccessTokens(secret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("access tokens: %w", err)
	}

	s := &Service{
		repo:       repo,
		mailer:     mailer,
		activation: activation,
		reset:      reset,
		access:     access,
		policy:     DefaultPasswordPolicy(cfg.PasswordMinLength),
		NowFunc:    time.Now,
	}
	if err := s.SetHashCost(bcrypt.DefaultCost); err != nil {
		return nil, err
	}
	return s, nil
}

// SetHashCost sets the bcrypt cost for new password hashes and rebuilds
// the dummy hash at the same cost.
func (s *Service) SetHashCost(cost int) error {
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return fmt.Errorf("failed to build dummy hash: %w", err)
	}
	s.hashCost = cost
	s.dummyHash = dummy
	return nil
}

// SetClock replaces the clock of the service and of every token it issues
// or checks.
func (s *Service) SetClock(now func() time.Time) {
	s.NowFunc = now
	s.activation.NowFunc = now
	s.reset.NowFunc = now
	s.access.NowFunc = now
}

// AccessTokens returns the bearer token issuer.
func (s *Service) AccessTokens() *session.AccessTokens {
	return s.access
}

// RegisterParams holds the parameters for user registration.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (p RegisterParams) validate(policy *PasswordPolicy) error {
	errs := validate.Errors{}
	validate.Email(errs, "email", p.Email)
	if !errs.Has("email") {
		validate.MaxLength(errs, "email", p.Email, models.MaxEmailLength)
	}
	validate.MaxLength(errs, "first_name", p.FirstName, models.MaxNameLength)
	validate.MaxLength(errs, "last_name", p.LastName, models.MaxNameLength)
	policy.Check(errs, "password", p.Password, p.Email, p.FirstName, p.LastName)
	return errs.Err()
}

// Register creates an inactive account and sends its activation link.
// A failed email is logged and does not fail the registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	params.Email = models.NormalizeEmail(params.Email)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)

	if err := params.validate(s.policy); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, repository.ErrDuplicateEmail
	}

	passwordHash, err := s.hash(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, params.Email, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if params.FirstName != "" || params.LastName != "" {
		user, err = s.repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
			FirstName: &params.FirstName,
			LastName:  &params.LastName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store profile: %w", err)
		}
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	s.sendActivation(ctx, user)

	return user, nil
}

func (s *Service) sendActivation(ctx context.Context, user *models.User) {
	token := s.activation.Issue(user)
	if err := s.mailer.SendActivation(ctx, user, tokens.EncodeUID(user.ID), token, s.activation.TTL()); err != nil {
		slog.Error("activation_email_failed", "user_id", user.ID, "error", err)
		return
	}
	slog.Info("activation_email_sent", "user_id", user.ID)
}

// Activate marks the account behind uid as active if token is a valid
// activation token for it. Every failure is reported as ErrInvalidToken.
func (s *Service) Activate(ctx context.Context, uid, token string) (*models.User, error) {
	user, err := s.userForToken(ctx, s.activation, uid, token)
	if err != nil {
		return nil, err
	}
	if user.IsActive {
		slog.Warn("activation_failed", "user_id", user.ID, "reason", "already_active")
		return nil, ErrInvalidToken
	}

	if err := s.repo.ActivateUser(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("activation_failed", "user_id", user.ID, "reason", "already_active")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	user.IsActive = true

	slog.Info("activation_success", "user_id", user.ID)
	return user, nil
}

// ResendActivation sends a fresh activation link to a pending account.
// Unknown and already active addresses are ignored.
func (s *Service) ResendActivation(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsActive {
		return nil
	}

	s.sendActivation(ctx, user)
	return nil
}

// LoginResult is a successful login.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an active account and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Compare anyway so a missing account takes as long as a wrong password.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "inactive")
		return nil, ErrInvalidCredentials
	}

	now := s.NowFunc().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	token, expires, err := s.access.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("login_success", "user_id", user.ID)
	return &LoginResult{User: user, Token: token, ExpiresAt: expires}, nil
}

// RequestPasswordReset emails a reset link to an active account.
// Unknown and inactive addresses are ignored so callers learn nothing
// about which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	token := s.reset.Issue(user)
	if err := s.mailer.SendPasswordReset(ctx, user, tokens.EncodeUID(user.ID), token, s.reset.TTL()); err != nil {
		slog.Error("password_reset_email_failed", "user_id", user.ID, "error", err)
		return nil
	}

	slog.Info("password_reset_requested", "user_id", user.ID)
	return nil
}

// ValidateResetToken returns the account a reset token belongs to.
func (s *Service) ValidateResetToken(ctx context.Context, uid, token string) (*models.User, error) {
	return s.userForToken(ctx, s.reset, uid, token)
}

// ConfirmPasswordReset sets a new password. The token stops working
// afterwards because the password hash is part of it.
func (s *Service) ConfirmPasswordReset(ctx context.Context, uid, token, password string) error {
	user, err := s.userForToken(ctx, s.reset, uid, token)
	if err != nil {
		return err
	}

	errs := validate.Errors{}
	s.policy.Check(errs, "password", password, user.Email, user.FirstName, user.LastName)
	if err := errs.Err(); err != nil {
		return err
	}

	passwordHash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_reset_success", "user_id", user.ID)
	return nil
}

func (s *Service) userForToken(ctx context.Context, gen *tokens.Generator, uid, token string) (*models.User, error) {
	id, err := tokens.DecodeUID(uid)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !gen.Validate(user, token) {
		slog.Warn("token_rejected", "user_id", user.ID)
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

