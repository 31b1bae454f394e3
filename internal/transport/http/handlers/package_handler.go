package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/transport/http/dto"
)

type PackageHandler struct {
	tasks  ports.TaskService
	logger *logger.Logger
}

func NewPackageHandler(tasks ports.TaskService, logger *logger.Logger) *PackageHandler {
	return &PackageHandler{tasks: tasks, logger: logger}
}

// InstallPackage starts an async global package install and returns its
// task id.
func (h *PackageHandler) InstallPackage(c *fiber.Ctx) error {
	var req dto.InstallPackageRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("package_install_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("package_install_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	h.logger.Infow("package_install_request", "name", req.Name, "version", req.Version)
	taskID, err := h.tasks.StartPackageInstall(req.Name, req.Version)
	if err != nil {
		if errors.Is(err, services.ErrTaskAlreadyRunning) {
			h.logger.Warnw("package_install_conflict", "name", req.Name)
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "an install task for this package is already running",
			})
		}
		h.logger.Errorw("package_install_failed", "name", req.Name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("package_install_started", "task_id", taskID)
	return c.Status(fiber.StatusAccepted).JSON(dto.TaskAcceptedResponse{
		Message: "package installation started",
		TaskID:  taskID,
	})
}
