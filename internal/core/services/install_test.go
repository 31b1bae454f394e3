//go:build !windows

package services

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

// fakeController records tree operations. Terminate really kills so the
// supervisor's reap does not hang on a live child.
type fakeController struct {
	mu         sync.Mutex
	suspended  []int32
	resumed    []int32
	terminated []int32
}

func (f *fakeController) Children(root int32) ([]int32, error) { return nil, nil }

func (f *fakeController) Suspend(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspended = append(f.suspended, pid)
	return nil
}

func (f *fakeController) Resume(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, pid)
	return nil
}

func (f *fakeController) Terminate(pid int32) error {
	f.mu.Lock()
	f.terminated = append(f.terminated, pid)
	f.mu.Unlock()
	if p, err := os.FindProcess(int(pid)); err == nil {
		p.Kill()
	}
	return nil
}

func (f *fakeController) terminatedPids() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int32, len(f.terminated))
	copy(out, f.terminated)
	return out
}

func TestSupervisorNaturalExitSuccess(t *testing.T) {
	rec := newRecorder()
	proc := &fakeController{}
	sup := NewInstallSupervisor(proc, rec, logger.NewNop())

	task := domain.NewTask("typescript", domain.KindProcessInstall)
	require.NoError(t, sup.Run(task, "true", nil))

	pid, ok := task.PID.Get()
	assert.True(t, ok, "pid must be recorded")
	assert.Positive(t, pid)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, "installing typescript...", events[0].Status)
	require.NotNil(t, events[0].Progress)
	assert.Equal(t, 10, *events[0].Progress)

	assert.Empty(t, proc.terminatedPids(), "natural exit must not touch the tree")
}

func TestSupervisorNaturalExitFailure(t *testing.T) {
	rec := newRecorder()
	sup := NewInstallSupervisor(&fakeController{}, rec, logger.NewNop())

	task := domain.NewTask("typescript", domain.KindProcessInstall)
	err := sup.Run(task, "false", nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTaskCancelled)
}

func TestSupervisorSpawnFailure(t *testing.T) {
	rec := newRecorder()
	sup := NewInstallSupervisor(&fakeController{}, rec, logger.NewNop())

	task := domain.NewTask("typescript", domain.KindProcessInstall)
	err := sup.Run(task, "definitely-not-a-command-7f3a", nil)

	require.ErrorIs(t, err, ErrProcessSpawn)
	_, ok := task.PID.Get()
	assert.False(t, ok, "no pid on spawn failure")
}

func TestSupervisorCancelTerminatesTree(t *testing.T) {
	rec := newRecorder()
	proc := &fakeController{}
	sup := NewInstallSupervisor(proc, rec, logger.NewNop())

	task := domain.NewTask("typescript", domain.KindProcessInstall)

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(task, "sleep", []string{"30"})
	}()

	// Wait for the worker to record the pid, then cancel.
	require.Eventually(t, func() bool {
		_, ok := task.PID.Get()
		return ok
	}, 5*time.Second, 5*time.Millisecond)

	task.Cancel.Fire()
	require.ErrorIs(t, <-done, ErrTaskCancelled)

	pid, _ := task.PID.Get()
	assert.Contains(t, proc.terminatedPids(), pid)
}
