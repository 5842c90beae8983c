package definition

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	controller "github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/dbtest"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

func newTestApp(t *testing.T, db *gorm.DB, ac access.Context) *fiber.App {
	t.Helper()

	gate, err := access.NewGate()
	require.NoError(t, err)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		access.SetLocals(c, ac)
		return c.Next()
	})

	var s Service
	require.NoError(t, s.Init(app, &config.Config{}, db, gate))

	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))

	return resp.StatusCode, out
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	testCases := []struct {
		name    string
		payload CreatePayload
		wantTag string
	}{
		{name: "valid", payload: CreatePayload{Key: "auto_accept", Payload: Payload{ValueKind: "switch"}}},
		{name: "missing key", payload: CreatePayload{}, wantTag: "required"},
		{name: "bad key", payload: CreatePayload{Key: "Auto Accept"}, wantTag: "settingkey"},
		{name: "bad kind", payload: CreatePayload{Key: "a", Payload: Payload{ValueKind: "color"}}, wantTag: "oneof"},
		{
			name:    "option without value",
			payload: CreatePayload{Key: "a", Payload: Payload{ValueKind: "select", Options: []Option{{Label: "x"}}}},
			wantTag: "required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := v.Validate(&tc.payload)
			if tc.wantTag == "" {
				assert.Empty(t, errs)
				return
			}

			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantTag, errs[0].Tag)
		})
	}
}

func TestPayloadFields(t *testing.T) {
	p := Payload{
		AppliesTo:        models.AppliesToBranches,
		ValueKind:        "Select",
		Options:          []Option{{Value: "red"}, {Value: "blue", Label: "Blue"}},
		BlockedBranchIDs: []any{"7", float64(3), "x", float64(-1), float64(7)},
	}

	f, err := p.Fields()
	require.NoError(t, err)
	assert.Equal(t, models.KindSelect, f.ValueKind)
	assert.Equal(t, models.Options{{Value: "red", Label: "red"}, {Value: "blue", Label: "Blue"}}, f.Options)
	assert.Equal(t, models.BranchIDSet{3, 7}, f.BlockedBranchIDs)

	_, err = Payload{ValueKind: "color"}.Fields()
	assert.ErrorIs(t, err, models.ErrUnknownValueKind)
}

func TestCRUD(t *testing.T) {
	db := dbtest.Open(t)
	app := newTestApp(t, db, access.New(1, models.RoleAdmin, nil))

	status, body := send(t, app, http.MethodPost, Path,
		`{"key":"auto_accept","appliesTo":"branches","valueKind":"switch","defaultValue":"on","blockedBranchIds":[7,"7","3",0]}`)
	require.Equal(t, fiber.StatusCreated, status, body)

	def := body["definition"].(map[string]any)
	assert.Equal(t, "1", def["defaultValue"])
	assert.Equal(t, []any{float64(3), float64(7)}, def["blockedBranchIds"])

	status, _ = send(t, app, http.MethodPost, Path, `{"key":"auto_accept"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = send(t, app, http.MethodPost, Path, `{"key":"Bad Key"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, body["errors"])

	status, _ = send(t, app, http.MethodPost, Path, `{`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = send(t, app, http.MethodPost, Path, `{"key":"site_name","defaultValue":"Shop"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body = send(t, app, http.MethodGet, Path+"?appliesTo=branches", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["definitions"], 1)

	status, body = send(t, app, http.MethodGet, Path, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["definitions"], 2)

	status, body = send(t, app, http.MethodPut, Path+"/auto_accept",
		`{"appliesTo":"branches","valueKind":"switch","defaultValue":"0","status":"inactive"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "inactive", body["definition"].(map[string]any)["status"])

	d, err := controller.Get(context.Background(), db, "auto_accept")
	require.NoError(t, err)
	assert.Empty(t, d.BlockedBranchIDs)

	// PUT creates unknown keys
	status, body = send(t, app, http.MethodPut, Path+"/late.key", `{"defaultValue":"x"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "x", body["definition"].(map[string]any)["defaultValue"])

	status, _ = send(t, app, http.MethodGet, Path+"/late.key", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = send(t, app, http.MethodPut, Path+"/Bad%20Key", `{"defaultValue":"x"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = send(t, app, http.MethodDelete, Path+"/auto_accept", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = send(t, app, http.MethodGet, Path+"/auto_accept", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = send(t, app, http.MethodDelete, Path+"/auto_accept", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestOwnerDenied(t *testing.T) {
	db := dbtest.Open(t)
	market := uint64(1)
	app := newTestApp(t, db, access.New(2, models.RoleOwner, &market))

	status, _ := send(t, app, http.MethodGet, Path, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = send(t, app, http.MethodPost, Path, `{"key":"x"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestStorageFailure(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Migrator().DropTable(&models.SettingDefinition{}))

	app := newTestApp(t, db, access.New(1, models.RoleAdmin, nil))

	status, body := send(t, app, http.MethodGet, Path, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, msgStorageError, body["message"])
}
