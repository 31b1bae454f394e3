package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/nvman/backend/internal/config"
	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/core/services"
	"github.com/nvman/backend/internal/infrastructure/events"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/infrastructure/proctree"
	"github.com/nvman/backend/internal/transport/http/handlers"
)

type RouterConfig struct {
	Logger *logger.Logger
	Config *config.Config
	Hub    *events.Hub
	Cache  ports.CatalogCache
	Proc   proctree.Controller
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	// Initialize services
	registry := services.NewTaskRegistry()

	downloads := services.NewDownloadEngine(services.DownloadEngineConfig{
		UserAgent:    cfg.Config.Download.UserAgent,
		PollInterval: cfg.Config.Download.PollInterval,
		Events:       cfg.Hub,
		Logger:       cfg.Logger,
	})

	installer := services.NewInstallSupervisor(cfg.Proc, cfg.Hub, cfg.Logger)

	taskService := services.NewTaskManager(services.TaskManagerConfig{
		Registry:  registry,
		Downloads: downloads,
		Installer: installer,
		Proc:      cfg.Proc,
		Events:    cfg.Hub,
		Logger:    cfg.Logger,
		Mirror:    cfg.Config.Mirror,
		Node:      cfg.Config.Node,
	})

	versionService := services.NewVersionManager(services.VersionManagerConfig{
		Mirror:    cfg.Config.Mirror,
		Node:      cfg.Config.Node,
		Cache:     cfg.Cache,
		CacheCfg:  cfg.Config.Cache,
		UserAgent: cfg.Config.Download.UserAgent,
		Logger:    cfg.Logger,
	})

	// Initialize handlers
	versionHandler := handlers.NewVersionHandler(versionService, taskService, cfg.Logger)
	packageHandler := handlers.NewPackageHandler(taskService, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	eventsHandler := handlers.NewEventsHandler(cfg.Hub, cfg.Logger)

	// Progress stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws/progress", websocket.New(eventsHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")

	// Version routes
	versions := api.Group("/versions")
	versions.Get("/", versionHandler.GetInstalled)
	versions.Get("/available", versionHandler.GetAvailable)
	versions.Post("/install", versionHandler.InstallVersion)
	versions.Post("/:version/activate", versionHandler.ActivateVersion)
	versions.Delete("/:version", versionHandler.UninstallVersion)

	// Package routes
	packages := api.Group("/packages")
	packages.Post("/install", packageHandler.InstallPackage)

	// Task routes
	tasks := api.Group("/tasks")
	tasks.Get("/", taskHandler.GetTasks)
	tasks.Post("/:id/pause", taskHandler.PauseTask)
	tasks.Post("/:id/resume", taskHandler.ResumeTask)
	tasks.Post("/:id/cancel", taskHandler.CancelTask)
}
