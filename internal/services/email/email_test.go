// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"codeberg.org/vrmates/accounts/internal/config"
	"codeberg.org/vrmates/accounts/internal/i18n"
	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Test App",
		TLS:      true,
	}
}

func TestNewSMTPSender(t *testing.T) {
	s, err := email.NewSMTPSender(validSMTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewSMTPSender_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewSMTPSender(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewSMTPSender_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewSMTPSender(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestSMTPSender_SendInvalidRecipient(t *testing.T) {
	s, err := email.NewSMTPSender(validSMTPConfig())
	require.NoError(t, err)

	err = s.Send(context.Background(), email.Message{To: "not an address", Subject: "x", Body: "y"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting to address")
}

func TestNewSender(t *testing.T) {
	t.Run("log", func(t *testing.T) {
		s, err := email.NewSender(&config.MailConfig{Backend: "log"})
		require.NoError(t, err)
		assert.IsType(t, &email.LogSender{}, s)
	})

	t.Run("smtp", func(t *testing.T) {
		s, err := email.NewSender(&config.MailConfig{Backend: "smtp", SMTP: *validSMTPConfig()})
		require.NoError(t, err)
		assert.IsType(t, &email.SMTPSender{}, s)
	})

	t.Run("smtp without host", func(t *testing.T) {
		_, err := email.NewSender(&config.MailConfig{Backend: "smtp"})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := email.NewSender(&config.MailConfig{Backend: "pigeon"})
		assert.Error(t, err)
	})
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := &email.LogSender{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := s.Send(context.Background(), email.Message{To: "a@x.com", Subject: "Hello"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "email_logged")
	assert.Contains(t, buf.String(), "a@x.com")
}

func TestLogSender_BodyOnlyAtDebug(t *testing.T) {
	msg := email.Message{To: "a@x.com", Subject: "Hello", Body: "https://x/activate/MQ/abc-SECRETTOKEN"}

	var info bytes.Buffer
	s := &email.LogSender{Logger: slog.New(slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}))}
	require.NoError(t, s.Send(context.Background(), msg))
	assert.Contains(t, info.String(), "a@x.com")
	assert.NotContains(t, info.String(), "SECRETTOKEN")

	var debug bytes.Buffer
	s = &email.LogSender{Logger: slog.New(slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	require.NoError(t, s.Send(context.Background(), msg))
	assert.Contains(t, debug.String(), "SECRETTOKEN")
}

func TestSendActivation_LogBackendHidesToken(t *testing.T) {
	require.NoError(t, i18n.Init())

	var buf bytes.Buffer
	svc := email.NewService(&email.LogSender{Logger: slog.New(slog.NewTextHandler(&buf, nil))}, "https://accounts.example.com")
	user := &models.User{ID: 1, Email: "a@x.com"}

	err := svc.SendActivation(context.Background(), user, "MQ", "abc-SECRETTOKEN", time.Hour)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "email_logged")
	assert.NotContains(t, buf.String(), "SECRETTOKEN")
}

func TestMemorySender(t *testing.T) {
	s := &email.MemorySender{}
	_, ok := s.Last()
	assert.False(t, ok)

	require.NoError(t, s.Send(context.Background(), email.Message{To: "a@x.com"}))
	require.NoError(t, s.Send(context.Background(), email.Message{To: "b@x.com"}))

	assert.Len(t, s.Sent(), 2)
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "b@x.com", last.To)

	s.Err = errors.New("down")
	assert.Error(t, s.Send(context.Background(), email.Message{}))
	assert.Len(t, s.Sent(), 2)
}

func TestService_ActivationURL(t *testing.T) {
	svc := email.NewService(&email.MemorySender{}, "https://example.com/")

	assert.Equal(t, "https://example.com/activate/MQ/abc-123", svc.ActivationURL("MQ", "abc-123"))
}

func TestService_PasswordResetURL(t *testing.T) {
	svc := email.NewService(&email.MemorySender{}, "https://example.com")

	assert.Equal(t, "https://example.com/password-reset/confirm?uid=MQ&token=abc-123", svc.PasswordResetURL("MQ", "abc-123"))
}

func TestService_SendActivation(t *testing.T) {
	require.NoError(t, i18n.Init())
	sender := &email.MemorySender{}
	svc := email.NewService(sender, "https://example.com")
	user := &models.User{ID: 1, Email: "a@x.com", FirstName: "Ada"}

	err := svc.SendActivation(context.Background(), user, "MQ", "abc-123", 72*time.Hour)

	require.NoError(t, err)
	msg, ok := sender.Last()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Email verification", msg.Subject)
	assert.Contains(t, msg.Body, "Hi Ada,")
	assert.Contains(t, msg.Body, "example.com")
	assert.Contains(t, msg.Body, "https://example.com/activate/MQ/abc-123")
	assert.Contains(t, msg.Body, "72 hours")
}

func TestService_SendActivation_German(t *testing.T) {
	require.NoError(t, i18n.Init())
	sender := &email.MemorySender{}
	svc := email.NewService(sender, "https://example.com")
	ctx := i18n.WithLocale(context.Background(), language.German)

	err := svc.SendActivation(ctx, &models.User{ID: 1, Email: "a@x.com"}, "MQ", "abc-123", 72*time.Hour)

	require.NoError(t, err)
	msg, _ := sender.Last()
	assert.Equal(t, "E-Mail-Bestätigung", msg.Subject)
	assert.Contains(t, msg.Body, "Hallo a@x.com,")
}

func TestService_SendPasswordReset(t *testing.T) {
	require.NoError(t, i18n.Init())
	sender := &email.MemorySender{}
	svc := email.NewService(sender, "https://example.com")

	err := svc.SendPasswordReset(context.Background(), &models.User{ID: 7, Email: "a@x.com"}, "Nw", "tok-en", 24*time.Hour)

	require.NoError(t, err)
	msg, _ := sender.Last()
	assert.Equal(t, "Password reset", msg.Subject)
	assert.Contains(t, msg.Body, "uid=Nw&token=tok-en")
	assert.Contains(t, msg.Body, "24 hours")
}

func TestService_SendError(t *testing.T) {
	sender := &email.MemorySender{Err: errors.New("smtp down")}
	svc := email.NewService(sender, "https://example.com")

	err := svc.SendActivation(context.Background(), &models.User{Email: "a@x.com"}, "MQ", "t", time.Hour)

	assert.EqualError(t, err, "smtp down")
}
