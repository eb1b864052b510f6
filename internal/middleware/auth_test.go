// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/vrmates/accounts/internal/auth"
	"codeberg.org/vrmates/accounts/internal/config"
	"codeberg.org/vrmates/accounts/internal/middleware"
	"codeberg.org/vrmates/accounts/internal/models"
	"codeberg.org/vrmates/accounts/internal/repository"
	"codeberg.org/vrmates/accounts/internal/services/session"
	"codeberg.org/vrmates/accounts/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	e        *echo.Echo
	repo     *repository.Repository
	sessions *session.Manager
	tokens   *session.AccessTokens
}

func setup(t *testing.T) *fixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	sessions, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
		HashKey:    "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
	}, false)
	require.NoError(t, err)

	tokens, err := session.NewAccessTokens(testutil.SecretKey, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.LoadUser(sessions, tokens, repo))
	whoami := func(c echo.Context) error {
		user := auth.GetUser(c.Request().Context())
		if user == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, user.Email+" via "+auth.Method(c.Request().Context()))
	}
	e.GET("/whoami", whoami)
	e.GET("/private", whoami, middleware.RequireAuth)
	e.GET("/open", whoami, middleware.RequireAuthIf(false))
	e.GET("/closed", whoami, middleware.RequireAuthIf(true))

	return &fixture{e: e, repo: repo, sessions: sessions, tokens: tokens}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := f.tokens.Issue(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestLoadUser_Anonymous(t *testing.T) {
	f := setup(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestLoadUser_Bearer(t *testing.T) {
	f := setup(t)
	user := testutil.NewActiveTestUser(t, f.repo, "a@x.com")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, f.bearer(t, user))
	rec := f.do(req)

	assert.Equal(t, "a@x.com via bearer", rec.Body.String())
}

func TestLoadUser_Session(t *testing.T) {
	f := setup(t)
	user := testutil.NewActiveTestUser(t, f.repo, "a@x.com")
	cookie, err := f.sessions.Create(user.ID, user.Email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	assert.Equal(t, "a@x.com via session", rec.Body.String())
}

func TestLoadUser_InvalidBearerIgnoresCookie(t *testing.T) {
	f := setup(t)
	user := testutil.NewActiveTestUser(t, f.repo, "a@x.com")
	cookie, err := f.sessions.Create(user.ID, user.Email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	req.AddCookie(cookie)
	rec := f.do(req)

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestLoadUser_InactiveAccount(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "pending@x.com")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, f.bearer(t, user))
	rec := f.do(req)

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestLoadUser_UnknownAccount(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, f.bearer(t, &models.User{ID: 999}))
	rec := f.do(req)

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestRequireAuth(t *testing.T) {
	f := setup(t)
	user := testutil.NewActiveTestUser(t, f.repo, "a@x.com")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(echo.HeaderAuthorization, f.bearer(t, user))
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthIf(t *testing.T) {
	f := setup(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ContextUser(t *testing.T) {
	e := echo.New()
	user := &models.User{ID: 3, Email: "c@x.com", IsActive: true}
	handler := middleware.RequireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/private", nil)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = testutil.NewEchoContext(e, http.MethodGet, "/private", nil)
	c.SetRequest(c.Request().WithContext(auth.SetUser(c.Request().Context(), user, auth.MethodSession)))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
