package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nvman/backend/internal/config"
	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/archive"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/infrastructure/proctree"
)

// TaskManager is the command surface over the registry and the two worker
// engines. Start registers synchronously, then detaches the worker; the
// worker unregisters itself on any terminal outcome.
type TaskManager struct {
	registry  *TaskRegistry
	downloads *DownloadEngine
	installer *InstallSupervisor
	proc      proctree.Controller
	events    ports.EventPublisher
	logger    *logger.Logger
	mirror    config.MirrorConfig
	node      config.NodeConfig
}

type TaskManagerConfig struct {
	Registry  *TaskRegistry
	Downloads *DownloadEngine
	Installer *InstallSupervisor
	Proc      proctree.Controller
	Events    ports.EventPublisher
	Logger    *logger.Logger
	Mirror    config.MirrorConfig
	Node      config.NodeConfig
}

func NewTaskManager(cfg TaskManagerConfig) ports.TaskService {
	return &TaskManager{
		registry:  cfg.Registry,
		downloads: cfg.Downloads,
		installer: cfg.Installer,
		proc:      cfg.Proc,
		events:    cfg.Events,
		logger:    cfg.Logger,
		mirror:    cfg.Mirror,
		node:      cfg.Node,
	}
}

// NormalizeVersion gives version strings their canonical "v" prefix.
func NormalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// PackageSpec derives the task id for a global package install.
func PackageSpec(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}

func (m *TaskManager) StartVersionInstall(version string) (string, error) {
	id := NormalizeVersion(version)
	if _, err := semver.NewVersion(id); err != nil {
		return "", fmt.Errorf("%w: %s", ErrVersionInvalid, version)
	}

	t, err := m.registry.Register(id, domain.KindDownload)
	if err != nil {
		return "", err
	}

	m.logger.Infow("task_start", "task_id", id, "kind", t.Kind)
	go m.runVersionInstall(t)
	return id, nil
}

func (m *TaskManager) StartPackageInstall(name, version string) (string, error) {
	id := PackageSpec(name, version)

	t, err := m.registry.Register(id, domain.KindProcessInstall)
	if err != nil {
		return "", err
	}

	m.logger.Infow("task_start", "task_id", id, "kind", t.Kind)
	go m.runPackageInstall(t, id)
	return id, nil
}

func (m *TaskManager) Pause(id string) error {
	t, err := m.registry.Lookup(id)
	if err != nil {
		return err
	}

	t.Paused.Store(true)
	m.logger.Infow("task_pause", "task_id", t.ID)

	// Download workers emit their own paused events from the poll loop. A
	// process task is suspended here, once its pid is known; pausing before
	// the pid is recorded only sets the flag.
	if t.Kind == domain.KindProcessInstall {
		if pid, ok := t.PID.Get(); ok {
			if err := proctree.SuspendTree(m.proc, pid); err != nil {
				m.logger.Warnw("task_suspend_tree_failed", "task_id", t.ID, "error", err)
			}
			m.events.Publish(domain.ProgressEvent{ID: t.ID, Status: "paused", IsPaused: true})
		}
	}
	return nil
}

func (m *TaskManager) Resume(id string) error {
	t, err := m.registry.Lookup(id)
	if err != nil {
		return err
	}

	t.Paused.Store(false)
	m.logger.Infow("task_resume", "task_id", t.ID)

	if t.Kind == domain.KindProcessInstall {
		if pid, ok := t.PID.Get(); ok {
			if err := proctree.ResumeTree(m.proc, pid); err != nil {
				m.logger.Warnw("task_resume_tree_failed", "task_id", t.ID, "error", err)
			}
			m.events.Publish(domain.ProgressEvent{ID: t.ID, Status: fmt.Sprintf("installing %s...", t.ID)})
		}
	}
	return nil
}

func (m *TaskManager) Cancel(id string) error {
	t, err := m.registry.Lookup(id)
	if err != nil {
		return err
	}

	// Repeated cancels on a still-running task are harmless.
	t.Cancel.Fire()
	m.logger.Infow("task_cancel", "task_id", t.ID)
	return nil
}

func (m *TaskManager) Active() []ports.ActiveTask {
	return m.registry.Active()
}

// runVersionInstall is the download-task worker: transfer, extract, clean up.
func (m *TaskManager) runVersionInstall(t *domain.Task) {
	defer m.registry.Unregister(t.ID)

	err := m.performVersionInstall(t)
	m.finish(t, err)
}

func (m *TaskManager) performVersionInstall(t *domain.Task) error {
	version := t.ID
	url := m.archiveURL(version)

	installDir := filepath.Join(m.node.InstallRoot, version)
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return fmt.Errorf("task: create install dir: %w", err)
	}

	archivePath := filepath.Join(installDir, "node.zip")
	partPath := archivePath + ".part"

	if err := m.downloads.Fetch(t, url, partPath, archivePath, "downloading node archive"); err != nil {
		m.cleanupIfEmpty(installDir)
		return err
	}

	m.events.Publish(domain.ProgressEvent{
		ID:       t.ID,
		Progress: domain.Pct(99),
		Status:   "extracting archive...",
	})

	if err := archive.ExtractFlatten(archivePath, installDir); err != nil {
		m.cleanupIfEmpty(installDir)
		return err
	}

	if err := os.Remove(archivePath); err != nil {
		m.logger.Warnw("task_archive_remove_failed", "task_id", t.ID, "error", err)
	}
	return nil
}

// runPackageInstall is the process-task worker.
func (m *TaskManager) runPackageInstall(t *domain.Task, spec string) {
	defer m.registry.Unregister(t.ID)

	args := []string{"install", "-g", spec}
	if m.mirror.NPMRegistry != "" {
		args = append(args, "--registry", m.mirror.NPMRegistry)
	}

	err := m.installer.Run(t, npmCommand(), args)
	m.finish(t, err)
}

// finish emits the worker's terminal event. Cancellation is a distinguished
// outcome, not a failure.
func (m *TaskManager) finish(t *domain.Task, err error) {
	switch {
	case err == nil:
		m.events.Publish(domain.ProgressEvent{
			ID:       t.ID,
			Progress: domain.Pct(100),
			Status:   "install complete",
			Finished: true,
		})
	case errors.Is(err, ErrTaskCancelled):
		m.events.Publish(domain.ProgressEvent{
			ID:       t.ID,
			Status:   "cancelled",
			Finished: true,
		})
	default:
		m.logger.Errorw("task_failed", "task_id", t.ID, "error", err)
		m.events.Publish(domain.ProgressEvent{
			ID:       t.ID,
			Progress: domain.Pct(0),
			Status:   fmt.Sprintf("error: %v", err),
			Finished: true,
			Error:    err.Error(),
		})
	}
}

// archiveURL builds the mirror path for a version archive, e.g.
// <base>/v20.0.0/node-v20.0.0-linux-x64.zip.
func (m *TaskManager) archiveURL(version string) string {
	base := strings.TrimSuffix(m.mirror.BaseURL, "/")
	return fmt.Sprintf("%s/%s/node-%s-%s-%s.zip", base, version, version, osToken(), m.node.Arch)
}

func osToken() string {
	switch runtime.GOOS {
	case "windows":
		return "win"
	default:
		return runtime.GOOS
	}
}

// cleanupIfEmpty removes the install directory when a failed or cancelled
// task left nothing behind in it.
func (m *TaskManager) cleanupIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		m.logger.Warnw("task_cleanup_failed", "dir", dir, "error", err)
	}
}
