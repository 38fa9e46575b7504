package model

import "time"

// Status is the lifecycle state of a completion row. A task with no
// completion row is unstarted.
type Status string

const (
	StatusStarted  Status = "started"
	StatusStopped  Status = "stopped"
	StatusDone     Status = "done"
	StatusSkipped  Status = "skipped"
	StatusBlocked  Status = "blocked"
	StatusDeferred Status = "deferred"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStarted, StatusStopped, StatusDone, StatusSkipped, StatusBlocked, StatusDeferred:
		return true
	}
	return false
}

// Terminal reports whether s ends the day's lifecycle for the task.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// Completion records a user's interaction with one activity on one calendar
// date. At most one row exists per (activity_id, user_id, date); the store
// upserts on that key. StartedAt is non-nil only while a timer is running.
// ElapsedMS accumulates across all start/stop cycles.
type Completion struct {
	ID          int64      `json:"id"`
	ActivityID  int64      `json:"activity_id"`
	UserID      int64      `json:"user_id"`
	Date        string     `json:"date"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ElapsedMS   int64      `json:"elapsed_ms"`
	DeferredTo  *string    `json:"deferred_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
