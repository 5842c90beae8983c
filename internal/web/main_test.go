package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/user"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/dbtest"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := dbtest.Open(t)
	session.Init(session.NewGormStorage(db))

	dbtest.Seed(t, db, &models.Market{ID: 1, Name: "main"}, &models.Branch{ID: 3, MarketID: 1, Name: "three"})
	require.NoError(t, user.Create(context.Background(), db,
		&models.User{Username: "admin", Email: "admin@example.com", Active: true, Role: models.RoleAdmin}, "pw"))

	cfg := &config.Config{
		DevMode: true,
		Title:   "test",
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost",
			Session: config.Session{ExpiryTime: time.Hour},
			CSRF:    config.CSRF{CookieName: "csrf_", Expiration: time.Hour},
		},
	}

	s, err := New(cfg, db)
	require.NoError(t, err)

	return s
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}

	return ""
}

func TestCheckAlive(t *testing.T) {
	s := newTestService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	s.alive.Store(false)

	resp, err = s.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s := newTestService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, MetricsPath, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestUnauthenticated(t *testing.T) {
	s := newTestService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/markets/1/branch/config", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginThenSave(t *testing.T) {
	s := newTestService(t)

	form := url.Values{"username": {"admin"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	sessionID := cookieValue(resp, session.CookieName)
	require.NotEmpty(t, sessionID)

	// a safe request issues the csrf token
	req = httptest.NewRequest(http.MethodGet, "/markets/1/branch/config", nil)
	req.Header.Set("Cookie", session.CookieName+"="+sessionID)

	resp, err = s.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	token := cookieValue(resp, "csrf_")
	require.NotEmpty(t, token)

	testCases := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "missing token", wantStatus: fiber.StatusForbidden},
		{name: "wrong token", token: "nope", wantStatus: fiber.StatusForbidden},
		{name: "valid token", token: token, wantStatus: fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := url.Values{"cfg[3][anything]": {"1"}}
			if tc.token != "" {
				body.Set(CSRFFormField, tc.token)
			}

			req := httptest.NewRequest(http.MethodPost, "/markets/1/branch/config/save", strings.NewReader(body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Cookie", session.CookieName+"="+sessionID+"; csrf_="+token)

			resp, err := s.App.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
