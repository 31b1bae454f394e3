package domain

// ProgressEvent is the single event schema shared by download and process
// install tasks. Events are immutable and never persisted.
type ProgressEvent struct {
	ID       string `json:"id"`
	Progress *int   `json:"progress,omitempty"` // 0-100
	Status   string `json:"status"`
	IsPaused bool   `json:"isPaused,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Pct is a convenience for building the optional progress field.
func Pct(p int) *int {
	return &p
}
