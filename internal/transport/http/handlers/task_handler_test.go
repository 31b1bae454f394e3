package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

type fakeTaskService struct {
	active    []ports.ActiveTask
	err       error
	lastCall  string
	lastID    string
	startedID string
}

func (f *fakeTaskService) StartVersionInstall(version string) (string, error) {
	f.lastCall = "start_version"
	return f.startedID, f.err
}

func (f *fakeTaskService) StartPackageInstall(name, version string) (string, error) {
	f.lastCall = "start_package"
	return f.startedID, f.err
}

func (f *fakeTaskService) Pause(id string) error  { f.lastCall, f.lastID = "pause", id; return f.err }
func (f *fakeTaskService) Resume(id string) error { f.lastCall, f.lastID = "resume", id; return f.err }
func (f *fakeTaskService) Cancel(id string) error { f.lastCall, f.lastID = "cancel", id; return f.err }

func (f *fakeTaskService) Active() []ports.ActiveTask { return f.active }

func newTaskApp(svc ports.TaskService) *fiber.App {
	app := fiber.New()
	h := NewTaskHandler(svc, logger.NewNop())
	app.Get("/api/v1/tasks", h.GetTasks)
	app.Post("/api/v1/tasks/:id/pause", h.PauseTask)
	app.Post("/api/v1/tasks/:id/resume", h.ResumeTask)
	app.Post("/api/v1/tasks/:id/cancel", h.CancelTask)
	return app
}

func TestTaskCommandsRouteToService(t *testing.T) {
	svc := &fakeTaskService{}
	app := newTaskApp(svc)

	for _, command := range []string{"pause", "resume", "cancel"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/v20.0.0/"+command, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, command, svc.lastCall)
		assert.Equal(t, "v20.0.0", svc.lastID)
	}
}

func TestTaskCommandUnknownTask(t *testing.T) {
	svc := &fakeTaskService{err: services.ErrTaskNotFound}
	app := newTaskApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/nope/cancel", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "task not found"))
}

func TestGetTasksReturnsSnapshot(t *testing.T) {
	svc := &fakeTaskService{active: []ports.ActiveTask{
		{ID: "v20.0.0", Kind: "DOWNLOAD", Paused: true},
	}}
	app := newTaskApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []ports.ActiveTask
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "v20.0.0", tasks[0].ID)
	assert.True(t, tasks[0].Paused)
}
