package login

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/user"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/dbtest"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
	websess "github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
}

// testStorage is a minimal in-memory implementation of fiber.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ fiber.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func setup(t *testing.T, cfg *config.Config) (*fiber.App, *gorm.DB) {
	t.Helper()

	// fresh in-memory session store for each test
	websess.Init(&testStorage{data: make(map[string][]byte)})

	db := dbtest.Open(t)
	market := uint64(4)

	require.NoError(t, user.Create(context.Background(), db, &models.User{
		Username: "bob", Email: "bob@example.com", Active: true, Role: models.RoleOwner, MarketID: &market,
	}, "s3cr3t"))

	// gorm skips zero values on insert, so deactivate after create
	inactive := &models.User{Username: "eve", Email: "eve@example.com", Active: true, Role: models.RoleUser}
	require.NoError(t, user.Create(context.Background(), db, inactive, "pass"))
	require.NoError(t, db.Model(inactive).Update("active", false).Error)

	app := fiber.New()

	var s Service
	require.NoError(t, s.Init(app, cfg, db, nil))

	return app, db
}

func performPost(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestPost(t *testing.T) {
	app, _ := setup(t, newTestConfig())

	testCases := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantCookie bool
	}{
		{name: "success", form: url.Values{"username": {"bob"}, "password": {"s3cr3t"}}, wantStatus: fiber.StatusOK, wantCookie: true},
		{name: "wrong password", form: url.Values{"username": {"bob"}, "password": {"nope"}}, wantStatus: fiber.StatusUnauthorized},
		{name: "unknown user", form: url.Values{"username": {"mallory"}, "password": {"x"}}, wantStatus: fiber.StatusUnauthorized},
		{name: "inactive user", form: url.Values{"username": {"eve"}, "password": {"pass"}}, wantStatus: fiber.StatusUnauthorized},
		{name: "empty form", form: url.Values{}, wantStatus: fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performPost(t, app, tc.form)
			defer func() {
				_ = resp.Body.Close()
			}()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			setCookie := resp.Header.Get("Set-Cookie")
			assert.Equal(t, tc.wantCookie, strings.Contains(setCookie, websess.CookieName+"="))

			if tc.wantCookie {
				assert.Contains(t, strings.ToLower(setCookie), "secure")
				assert.Contains(t, strings.ToLower(setCookie), "httponly")
			}
		})
	}
}

func TestPostWritesSession(t *testing.T) {
	app, _ := setup(t, newTestConfig())

	resp := performPost(t, app, url.Values{"username": {"bob"}, "password": {"s3cr3t"}})
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "owner", body["role"])

	var sessionID string
	for _, c := range resp.Cookies() {
		if c.Name == websess.CookieName {
			sessionID = c.Value
		}
	}

	data := new(websess.Data)
	require.NoError(t, data.Read(sessionID))
	assert.Equal(t, models.RoleOwner, data.Role)
	require.NotNil(t, data.MarketID)
	assert.Equal(t, uint64(4), *data.MarketID)
}

func TestPostDevModeDisablesSecure(t *testing.T) {
	cfg := newTestConfig()
	cfg.DevMode = true

	app, _ := setup(t, cfg)

	resp := performPost(t, app, url.Values{"username": {"bob"}, "password": {"s3cr3t"}})
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, strings.ToLower(resp.Header.Get("Set-Cookie")), "secure")
}

func TestPostJSON(t *testing.T) {
	app, _ := setup(t, newTestConfig())

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(`{"username":"bob","password":"s3cr3t"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, Path, strings.NewReader("{"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInitNil(t *testing.T) {
	var s Service
	assert.Error(t, s.Init(nil, newTestConfig(), nil, nil))
}
