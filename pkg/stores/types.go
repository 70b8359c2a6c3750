package stores

import "time"

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// EventLevel is the severity of a journal event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "info"
	EventLevelError EventLevel = "error"
)

// Run is one recorded reconciliation pass.
type Run struct {
	ID          string     `json:"id"`
	Step        string     `json:"step"`
	Command     string     `json:"command"`
	Apply       bool       `json:"apply"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

// Event is one append-only journal entry belonging to a run.
type Event struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Level     EventLevel `json:"level"`
	Identity  string     `json:"identity,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}
