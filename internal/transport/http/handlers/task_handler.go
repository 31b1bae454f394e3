package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	tasks  ports.TaskService
	logger *logger.Logger
}

func NewTaskHandler(tasks ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	return c.JSON(h.tasks.Active())
}

func (h *TaskHandler) PauseTask(c *fiber.Ctx) error {
	return h.command(c, "pause", h.tasks.Pause)
}

func (h *TaskHandler) ResumeTask(c *fiber.Ctx) error {
	return h.command(c, "resume", h.tasks.Resume)
}

func (h *TaskHandler) CancelTask(c *fiber.Ctx) error {
	return h.command(c, "cancel", h.tasks.Cancel)
}

func (h *TaskHandler) command(c *fiber.Ctx, name string, fn func(string) error) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "task id is required",
		})
	}

	h.logger.Infow("task_command_request", "command", name, "task_id", id)
	if err := fn(id); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Warnw("task_command_not_found", "command", name, "task_id", id)
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "task not found",
			})
		}
		h.logger.Errorw("task_command_failed", "command", name, "task_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(dto.SuccessResponse{
		Message: "task " + name + " accepted",
	})
}
