package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/transport/http/dto"
)

type VersionHandler struct {
	versions ports.VersionService
	tasks    ports.TaskService
	logger   *logger.Logger
}

func NewVersionHandler(versions ports.VersionService, tasks ports.TaskService, logger *logger.Logger) *VersionHandler {
	return &VersionHandler{versions: versions, tasks: tasks, logger: logger}
}

func (h *VersionHandler) GetInstalled(c *fiber.Ctx) error {
	h.logger.Infow("versions_installed_request")
	versions, err := h.versions.Installed()
	if err != nil {
		h.logger.Errorw("versions_installed_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(versions)
}

func (h *VersionHandler) GetAvailable(c *fiber.Ctx) error {
	h.logger.Infow("versions_available_request")
	catalog, err := h.versions.Available(c.Context())
	if err != nil {
		h.logger.Errorw("versions_available_failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(catalog)
}

// InstallVersion starts an async download task and returns its id.
func (h *VersionHandler) InstallVersion(c *fiber.Ctx) error {
	var req dto.InstallVersionRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("version_install_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("version_install_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	h.logger.Infow("version_install_request", "version", req.Version)
	taskID, err := h.tasks.StartVersionInstall(req.Version)
	if err != nil {
		if errors.Is(err, services.ErrVersionInvalid) {
			h.logger.Warnw("version_install_invalid", "version", req.Version)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: err.Error(),
			})
		}
		if errors.Is(err, services.ErrTaskAlreadyRunning) {
			h.logger.Warnw("version_install_conflict", "version", req.Version)
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "a task for this version is already running",
			})
		}
		h.logger.Errorw("version_install_failed", "version", req.Version, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("version_install_started", "task_id", taskID)
	return c.Status(fiber.StatusAccepted).JSON(dto.TaskAcceptedResponse{
		Message: "version installation started",
		TaskID:  taskID,
	})
}

func (h *VersionHandler) ActivateVersion(c *fiber.Ctx) error {
	version := c.Params("version")
	if version == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "version is required",
		})
	}

	h.logger.Infow("version_activate_request", "version", version)
	if err := h.versions.Activate(version); err != nil {
		if errors.Is(err, services.ErrVersionNotFound) {
			h.logger.Warnw("version_activate_not_found", "version", version)
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "version not installed",
			})
		}
		h.logger.Errorw("version_activate_failed", "version", version, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("version_activate_success", "version", version)
	return c.JSON(dto.SuccessResponse{
		Message: "version activated successfully",
	})
}

func (h *VersionHandler) UninstallVersion(c *fiber.Ctx) error {
	version := c.Params("version")
	if version == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "version is required",
		})
	}

	h.logger.Infow("version_uninstall_request", "version", version)
	if err := h.versions.Uninstall(version); err != nil {
		if errors.Is(err, services.ErrVersionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "version not installed",
			})
		}
		if errors.Is(err, services.ErrVersionActive) {
			h.logger.Warnw("version_uninstall_active", "version", version)
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "cannot uninstall the active version",
			})
		}
		h.logger.Errorw("version_uninstall_failed", "version", version, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("version_uninstall_success", "version", version)
	return c.JSON(dto.SuccessResponse{
		Message: "version uninstalled successfully",
	})
}
