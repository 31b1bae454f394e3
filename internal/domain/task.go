package domain

import (
	"sync"
	"sync/atomic"
)

type TaskKind string

const (
	KindDownload       TaskKind = "DOWNLOAD"
	KindProcessInstall TaskKind = "PROCESS_INSTALL"
)

// CancelSignal is a single-fire broadcast notifier. Fire may be called any
// number of times; subscribers observe at most one closure of Done.
type CancelSignal struct {
	once sync.Once
	ch   chan struct{}
}

func NewCancelSignal() *CancelSignal {
	return &CancelSignal{ch: make(chan struct{})}
}

func (s *CancelSignal) Fire() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns a channel that is closed once Fire has been called.
func (s *CancelSignal) Done() <-chan struct{} {
	return s.ch
}

// Fired reports whether the signal has fired, without blocking.
func (s *CancelSignal) Fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// PIDSlot holds a process id that is written once by the task's worker and
// only read by pause/resume/cancel callers.
type PIDSlot struct {
	mu  sync.Mutex
	pid int32
	set bool
}

// Set records the pid. The first write wins; later writes are ignored.
func (p *PIDSlot) Set(pid int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set {
		p.pid = pid
		p.set = true
	}
}

func (p *PIDSlot) Get() (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid, p.set
}

// Task holds the control handles for one active task. The worker goroutine
// owns the task for its whole lifetime; the registry only routes external
// pause/resume/cancel commands to these handles.
type Task struct {
	ID     string
	Kind   TaskKind
	Cancel *CancelSignal
	Paused *atomic.Bool
	PID    *PIDSlot
}

func NewTask(id string, kind TaskKind) *Task {
	return &Task{
		ID:     id,
		Kind:   kind,
		Cancel: NewCancelSignal(),
		Paused: &atomic.Bool{},
		PID:    &PIDSlot{},
	}
}
