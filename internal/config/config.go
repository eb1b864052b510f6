// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var (
	configPath = "config.toml"
	configFile = altsrc.NewStringPtrSourcer(&configPath)
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Session  SessionConfig
	Auth     AuthConfig
	Mail     MailConfig
}

type TLSConfig struct {
	Mode     string // auto, manual, off
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

// AuthConfig holds settings for registration, activation and login.
type AuthConfig struct { //nolint:govet // fieldalignment not critical
	SecretKey             string        // signs activation/reset links and access tokens
	ActivationTTL         time.Duration // how long an activation link stays valid
	ResetTTL              time.Duration // how long a password reset link stays valid
	AccessTokenTTL        time.Duration // lifetime of login access tokens
	ActivationRedirectURL string        // where a successful activation sends the browser
	PasswordMinLength     int
	SearchRequiresAuth    bool // require login for /list and /search
}

// MailConfig selects and configures the outgoing mail backend.
type MailConfig struct { //nolint:govet // fieldalignment not critical
	Backend string // smtp, log
	SMTP    SMTPConfig
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		Auth: AuthConfig{
			SecretKey:             cmd.String("secret-key"),
			ActivationTTL:         time.Duration(cmd.Int("activation-ttl")) * time.Hour,
			ResetTTL:              time.Duration(cmd.Int("reset-ttl")) * time.Hour,
			AccessTokenTTL:        time.Duration(cmd.Int("access-token-ttl")) * time.Hour,
			ActivationRedirectURL: cmd.String("activation-redirect-url"),
			PasswordMinLength:     int(cmd.Int("password-min-length")),
			SearchRequiresAuth:    cmd.Bool("search-requires-auth"),
		},
		Mail: MailConfig{
			Backend: cmd.String("mail-backend"),
			SMTP: SMTPConfig{
				Host:     cmd.String("smtp-host"),
				Port:     int(cmd.Int("smtp-port")),
				Username: cmd.String("smtp-username"),
				Password: cmd.String("smtp-password"),
				From:     cmd.String("smtp-from"),
				FromName: cmd.String("smtp-from-name"),
				TLS:      cmd.Bool("smtp-tls"),
			},
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Domain returns the host part of the base URL, as shown in emails.
func (c *Config) Domain() string {
	domain := c.Server.BaseURL
	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	return strings.TrimSuffix(domain, "/")
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Mail.Backend {
	case "log":
		// Logged mail carries activation and reset links.
		if !IsLocalhost(c.Server.Host) {
			return fmt.Errorf("log mail backend is only allowed on localhost, got host %q", c.Server.Host)
		}
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("smtp mail backend requires --smtp-host")
		}
		if c.Mail.SMTP.From == "" {
			return fmt.Errorf("smtp mail backend requires --smtp-from")
		}
	default:
		return fmt.Errorf("unknown mail backend: %q", c.Mail.Backend)
	}

	if c.Auth.ActivationTTL <= 0 || c.Auth.ResetTTL <= 0 || c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if strings.ToLower(c.TLS.Mode) == "manual" && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("manual TLS mode requires --tls-cert-file and --tls-key-file")
	}

	return nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	scheme := "http"
	if shouldUseTLS(strings.ToLower(cfg.TLS.Mode), cfg.TLS.CertFile != "") {
		scheme = "https"
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode string, haveCert bool) bool {
	switch mode {
	case "off":
		return false
	case "manual":
		return true
	default: // "auto" or empty
		return haveCert
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

// Flags returns the flags shared by every subcommand.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       "config.toml",
			Usage:       "Path to configuration file",
			Destination: &configPath,
			Sources:     cli.EnvVars("CONFIG"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application, used in emailed links",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/accounts.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, manual, off)",
			Sources: source("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: source("SESSION_COOKIE_NAME", "session.cookie_name"),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   604800, // 7 days in seconds
			Usage:   "Session max age in seconds",
			Sources: source("SESSION_MAX_AGE", "session.max_age"),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: source("SESSION_HASH_KEY", "session.hash_key"),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: source("SESSION_BLOCK_KEY", "session.block_key"),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "secret-key",
			Usage:   "Secret for activation links, reset links and access tokens (auto-generated if empty in dev)",
			Sources: source("SECRET_KEY", "auth.secret_key"),
		},
		&cli.IntFlag{
			Name:    "activation-ttl",
			Value:   72,
			Usage:   "Hours an activation link stays valid",
			Sources: source("ACTIVATION_TTL", "auth.activation_ttl"),
		},
		&cli.IntFlag{
			Name:    "reset-ttl",
			Value:   24,
			Usage:   "Hours a password reset link stays valid",
			Sources: source("RESET_TTL", "auth.reset_ttl"),
		},
		&cli.IntFlag{
			Name:    "access-token-ttl",
			Value:   24,
			Usage:   "Hours a login access token stays valid",
			Sources: source("ACCESS_TOKEN_TTL", "auth.access_token_ttl"),
		},
		&cli.StringFlag{
			Name:    "activation-redirect-url",
			Usage:   "URL to redirect to after a successful activation",
			Sources: source("ACTIVATION_REDIRECT_URL", "auth.activation_redirect_url"),
		},
		&cli.IntFlag{
			Name:    "password-min-length",
			Value:   8,
			Usage:   "Minimum password length",
			Sources: source("PASSWORD_MIN_LENGTH", "auth.password_min_length"),
		},
		&cli.BoolFlag{
			Name:    "search-requires-auth",
			Usage:   "Require authentication for listing and searching users",
			Sources: source("SEARCH_REQUIRES_AUTH", "auth.search_requires_auth"),
		},
		// Mail flags
		&cli.StringFlag{
			Name:    "mail-backend",
			Value:   "log",
			Usage:   "Mail backend (smtp, log)",
			Sources: source("MAIL_BACKEND", "mail.backend"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: source("SMTP_HOST", "mail.smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: source("SMTP_PORT", "mail.smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "mail.smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "mail.smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address",
			Sources: source("SMTP_FROM", "mail.smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name",
			Sources: source("SMTP_FROM_NAME", "mail.smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP (implicit TLS on port 465, STARTTLS otherwise)",
			Sources: source("SMTP_TLS", "mail.smtp.tls"),
		},
	}
}
