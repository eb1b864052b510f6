// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email composes and sends account emails.
package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"codeberg.org/vrmates/accounts/internal/i18n"
	"codeberg.org/vrmates/accounts/internal/models"
)

// Service renders account emails and hands them to a Sender.
type Service struct {
	sender  Sender
	baseURL string
	domain  string
}

// NewService creates a new email service. Links in emails point at baseURL.
func NewService(sender Sender, baseURL string) *Service {
	baseURL = strings.TrimSuffix(baseURL, "/")
	domain := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		domain = u.Host
	}
	return &Service{
		sender:  sender,
		baseURL: baseURL,
		domain:  domain,
	}
}

// ActivationURL returns the link that activates the account.
func (s *Service) ActivationURL(uid, token string) string {
	return fmt.Sprintf("%s/activate/%s/%s", s.baseURL, uid, token)
}

// PasswordResetURL returns the link that lets the user choose a new password.
func (s *Service) PasswordResetURL(uid, token string) string {
	return fmt.Sprintf("%s/password-reset/confirm?uid=%s&token=%s", s.baseURL, url.QueryEscape(uid), url.QueryEscape(token))
}

// SendActivation sends the account activation email.
func (s *Service) SendActivation(ctx context.Context, user *models.User, uid, token string, validFor time.Duration) error {
	subject := i18n.T(ctx, "email_activation_subject")
	body := i18n.TData(ctx, "email_activation_body", map[string]any{
		"Name":        user.DisplayName(),
		"Domain":      s.domain,
		"ActivateURL": s.ActivationURL(uid, token),
		"ValidHours":  hours(validFor),
	})

	return s.sender.Send(ctx, Message{To: user.Email, Subject: subject, Body: body})
}

// SendPasswordReset sends the password reset email.
func (s *Service) SendPasswordReset(ctx context.Context, user *models.User, uid, token string, validFor time.Duration) error {
	subject := i18n.T(ctx, "email_password_reset_subject")
	body := i18n.TData(ctx, "email_password_reset_body", map[string]any{
		"Name":       user.DisplayName(),
		"Domain":     s.domain,
		"ResetURL":   s.PasswordResetURL(uid, token),
		"ValidHours": hours(validFor),
	})

	return s.sender.Send(ctx, Message{To: user.Email, Subject: subject, Body: body})
}

func hours(d time.Duration) int {
	return int(d.Round(time.Hour) / time.Hour)
}
