package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"folio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.UserFunds{}))

	h := &Handlers{Service: &Service{DB: db}}
	app := fiber.New()
	app.Post("/api/v1/users", h.Create)
	app.Get("/api/v1/users", h.List)
	app.Get("/api/v1/users/:id", h.Get)
	app.Put("/api/v1/users/:id/funds", h.UpdateFunds)
	app.Delete("/api/v1/users/:id", h.Delete)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(method, path, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(httpReq)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCreateUser(t *testing.T) {
	app, _ := setupUserTest(t)

	status, out := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{
		"username": "alice", "funds": 1000,
	})
	assert.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "1000", data["available_funds"])
	assert.Equal(t, "0", data["invested_funds"])
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	app, _ := setupUserTest(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{"username": "alice"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, out := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{"username": "alice"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "username_taken", out["error"].(map[string]interface{})["kind"])
}

func TestCreateUser_DuplicateHitsUniqueIndex(t *testing.T) {
	_, db := setupUserTest(t)

	// Seed the row directly so the service's Create has no way to see it
	// before the insert, the same window a concurrent writer would hit.
	require.NoError(t, db.Create(&domain.UserFunds{Username: "alice"}).Error)

	svc := &Service{DB: db}
	_, err := svc.Create(context.Background(), "alice", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrUsernameUsed)
}

func TestCreateUser_Validation(t *testing.T) {
	app, _ := setupUserTest(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{"username": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{
		"username": "bob", "funds": -5,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGetUser_NotFound(t *testing.T) {
	app, _ := setupUserTest(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateFunds_BumpsVersion(t *testing.T) {
	app, db := setupUserTest(t)

	status, out := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{
		"username": "alice", "funds": 1000,
	})
	require.Equal(t, fiber.StatusCreated, status)
	id := out["data"].(map[string]interface{})["id"].(float64)

	status, out = doJSON(t, app, "PUT", "/api/v1/users/1/funds", map[string]interface{}{
		"available_funds": 500,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "500", out["data"].(map[string]interface{})["available_funds"])

	var record domain.UserFunds
	require.NoError(t, db.First(&record, uint(id)).Error)
	assert.Equal(t, int64(1), record.Version, "admin overwrite must invalidate concurrent trades")
}

func TestUpdateFunds_RejectsNegativeAvailable(t *testing.T) {
	app, _ := setupUserTest(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{"username": "alice"})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = doJSON(t, app, "PUT", "/api/v1/users/1/funds", map[string]interface{}{
		"available_funds": -10,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDeleteUser(t *testing.T) {
	app, _ := setupUserTest(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/users", map[string]interface{}{"username": "alice"})
	require.Equal(t, fiber.StatusCreated, status)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/users/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/users/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
