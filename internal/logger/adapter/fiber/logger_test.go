package fiber_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/logger"
	adapter "github.com/MarketOps-Admin/MarketOps-Admin/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	Error  string `json:"error"`
}

func newTestApp(cfg adapter.Config) *fiber.App {
	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("hello test")
	})
	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})
	app.Get("/boom", func(_ *fiber.Ctx) error {
		return errors.New("boom") //nolint:goerr113
	})

	return app
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name       string
		targetPath string
		disableCA  bool
		want       *accessLine
	}{
		{
			name:       "root",
			targetPath: "/",
			want:       &accessLine{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "query string kept",
			targetPath: "/?test=123",
			want:       &accessLine{Status: fiber.StatusOK, URI: "/?test=123", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "unknown path",
			targetPath: "/no_path/?test=123",
			want: &accessLine{
				Status: fiber.StatusNotFound, URI: "/no_path/?test=123", Method: fiber.MethodGet, Host: "example.com",
			},
		},
		{
			name:       "handler error is logged",
			targetPath: "/boom",
			want: &accessLine{
				Status: fiber.StatusInternalServerError, URI: "/boom", Method: fiber.MethodGet, Host: "example.com",
				Error: "boom",
			},
		},
		{
			name:       "check alive not logged",
			targetPath: "/checkalive",
			disableCA:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			app := newTestApp(adapter.Config{
				Config:        logger.Log{DisableCheckAlive: tc.disableCA},
				CheckAliveURI: "/checkalive",
				Output:        &buf,
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.targetPath, nil), -1)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Header.Get("X-Performance"))

			if tc.want == nil {
				assert.Empty(t, buf.String())
				return
			}

			var got accessLine
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

			assert.Equal(t, tc.want.Status, got.Status)
			assert.Equal(t, tc.want.URI, got.URI)
			assert.Equal(t, tc.want.Method, got.Method)
			assert.Equal(t, tc.want.Host, got.Host)
			assert.Equal(t, "0.0.0.0", got.IP)
			assert.Equal(t, tc.want.Error, got.Error)
		})
	}
}

func TestNewNoWriters(t *testing.T) {
	app := newTestApp(adapter.Config{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestNewRollingAccessFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "access")

	app := newTestApp(adapter.Config{
		Config: logger.Log{
			File: logger.LogFile{
				Enabled: true,
				Path:    dir,
				Access:  logger.RollingFile{Name: "access.log", MaxSize: 1},
			},
		},
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/?via=file", nil), -1)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "access.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "/?via=file")
}
