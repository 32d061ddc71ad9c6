package domain

import "time"

// Task is the task directory's view of a unit of work that timers run against.
// The directory is owned by an external system; timekeep only reads it for
// display, filtering and "tasks completed" counting.
type Task struct {
	ID          string
	Title       string
	Type        string
	Priority    TaskPriority
	Status      TaskStatus
	ProjectID   string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsDone reports whether the task reached its terminal "done" state.
func (t *Task) IsDone() bool {
	return t.Status == TaskDone
}

// CompletedWithin reports whether the task was completed inside [start, end).
func (t *Task) CompletedWithin(start, end time.Time) bool {
	if !t.IsDone() || t.CompletedAt == nil {
		return false
	}
	return !t.CompletedAt.Before(start) && t.CompletedAt.Before(end)
}

// MarkDone transitions the task to done, keeping an existing completion time.
func (t *Task) MarkDone(now time.Time) {
	if t.Status != TaskDone {
		t.Status = TaskDone
	}
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	t.UpdatedAt = now
}
