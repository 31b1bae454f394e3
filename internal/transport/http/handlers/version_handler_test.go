package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/transport/http/dto"
)

func newInstallApp(svc *fakeTaskService) *fiber.App {
	app := fiber.New()
	h := NewVersionHandler(nil, svc, logger.NewNop())
	app.Post("/api/v1/versions/install", h.InstallVersion)
	return app
}

func TestInstallVersionAccepted(t *testing.T) {
	svc := &fakeTaskService{startedID: "v20.0.0"}
	app := newInstallApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/versions/install",
		strings.NewReader(`{"version":"20.0.0"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "start_version", svc.lastCall)

	var body dto.TaskAcceptedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "v20.0.0", body.TaskID)
}

func TestInstallVersionConflict(t *testing.T) {
	svc := &fakeTaskService{err: services.ErrTaskAlreadyRunning}
	app := newInstallApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/versions/install",
		strings.NewReader(`{"version":"20.0.0"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestInstallVersionMissingField(t *testing.T) {
	app := newInstallApp(&fakeTaskService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/versions/install",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
