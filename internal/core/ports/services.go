package ports

import (
	"context"
	"time"

	"github.com/nvman/backend/internal/domain"
)

// EventPublisher is the observer contract: one schema for both task kinds.
type EventPublisher interface {
	Publish(ev domain.ProgressEvent)
}

// TaskService is the command surface for the task manager.
type TaskService interface {
	StartVersionInstall(version string) (string, error)
	StartPackageInstall(name, version string) (string, error)
	Pause(id string) error
	Resume(id string) error
	Cancel(id string) error
	Active() []ActiveTask
}

type ActiveTask struct {
	ID     string          `json:"id"`
	Kind   domain.TaskKind `json:"kind"`
	Paused bool            `json:"paused"`
}

type VersionService interface {
	Installed() ([]domain.NodeVersion, error)
	Available(ctx context.Context) ([]domain.AvailableVersion, error)
	Activate(version string) error
	Uninstall(version string) error
	ActiveVersion() (string, bool)
}

// CatalogCache is the TTL key/value store behind the mirror catalog.
type CatalogCache interface {
	Get(key string, maxAge time.Duration) ([]byte, bool)
	Put(key string, data []byte) error
}
