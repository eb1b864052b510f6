// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the services into an echo server and runs it.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/vrmates/accounts/internal/config"
	"codeberg.org/vrmates/accounts/internal/database"
	"codeberg.org/vrmates/accounts/internal/handlers"
	"codeberg.org/vrmates/accounts/internal/i18n"
	"codeberg.org/vrmates/accounts/internal/middleware"
	"codeberg.org/vrmates/accounts/internal/repository"
	"codeberg.org/vrmates/accounts/internal/services/auth"
	"codeberg.org/vrmates/accounts/internal/services/email"
	"codeberg.org/vrmates/accounts/internal/services/profile"
	"codeberg.org/vrmates/accounts/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

const shutdownTimeout = 10 * time.Second

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ensureSecrets(cfg); err != nil {
		return err
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"domain", cfg.Domain(),
	)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	users, err := repository.New(db).CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	slog.Info("database ready", "dsn", cfg.Database.DSN, "users", users)

	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	e, err := New(cfg, db)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New builds the echo instance with every service wired in.
func New(cfg *config.Config, db *sqlx.DB) (*echo.Echo, error) {
	repo := repository.New(db)

	sender, err := email.NewSender(&cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("failed to set up mail: %w", err)
	}
	mailer := email.NewService(sender, cfg.Server.BaseURL)

	authService, err := auth.NewService(repo, mailer, &cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to set up auth: %w", err)
	}

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sessions, err := session.NewManager(&cfg.Session, secure)
	if err != nil {
		return nil, fmt.Errorf("failed to set up sessions: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	e.Use(middleware.LoadUser(sessions, authService.AccessTokens(), repo))

	h := handlers.New(authService, profile.NewService(repo), sessions, repo, cfg.Auth.ActivationRedirectURL)
	h.Routes(e, cfg.Auth.SearchRequiresAuth)

	return e, nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		slog.Info("server running", "url", cfg.Server.BaseURL, "tls", tlsResult.Mode)
		var serveErr error
		if tlsResult.Mode == TLSModeOff {
			serveErr = e.Start(addr)
		} else {
			serveErr = startTLSServer(e, addr, tlsResult.TLSConfig)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
