package services

import (
	"fmt"
	"os/exec"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/logger"
	"github.com/nvman/backend/internal/infrastructure/proctree"
)

// InstallSupervisor runs an installer child process under a task's control
// handles: it records the pid once known, then races "process exited"
// against "cancel requested". Cancellation terminates the whole discovered
// process tree.
type InstallSupervisor struct {
	proc   proctree.Controller
	events ports.EventPublisher
	logger *logger.Logger
}

func NewInstallSupervisor(proc proctree.Controller, events ports.EventPublisher, log *logger.Logger) *InstallSupervisor {
	return &InstallSupervisor{proc: proc, events: events, logger: log}
}

// Run spawns name with args and supervises it until natural exit or
// cancellation. Progress events use the same schema as downloads so one
// observer handles both task kinds.
func (s *InstallSupervisor) Run(t *domain.Task, name string, args []string) error {
	s.events.Publish(domain.ProgressEvent{
		ID:       t.ID,
		Progress: domain.Pct(10),
		Status:   fmt.Sprintf("installing %s...", t.ID),
	})

	cmd := exec.Command(name, args...)
	hideWindow(cmd)

	if err := cmd.Start(); err != nil {
		s.logger.Errorw("install_spawn_failed", "task_id", t.ID, "command", name, "error", err)
		return fmt.Errorf("%w: %v", ErrProcessSpawn, err)
	}

	pid := int32(cmd.Process.Pid)
	t.PID.Set(pid)
	s.logger.Infow("install_spawned", "task_id", t.ID, "pid", pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warnw("install_exit_failure", "task_id", t.ID, "error", err)
			return fmt.Errorf("install: installer exited with failure: %w", err)
		}
		s.logger.Infow("install_exit_success", "task_id", t.ID)
		return nil

	case <-t.Cancel.Done():
		if err := proctree.TerminateTree(s.proc, pid); err != nil {
			s.logger.Warnw("install_terminate_tree_failed", "task_id", t.ID, "error", err)
		}
		<-done // reap the child
		s.logger.Infow("install_cancelled", "task_id", t.ID, "pid", pid)
		return ErrTaskCancelled
	}
}
