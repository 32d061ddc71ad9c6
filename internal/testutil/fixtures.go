package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/google/uuid"
)

var testTaskCounter atomic.Int64

// Task options
type TaskOption func(*domain.Task)

func WithTaskType(typ string) TaskOption {
	return func(t *domain.Task) {
		t.Type = typ
	}
}

func WithPriority(p domain.TaskPriority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithProject(projectID string) TaskOption {
	return func(t *domain.Task) {
		t.ProjectID = projectID
	}
}

func WithCompletedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.Status = domain.TaskDone
		t.CompletedAt = &at
	}
}

func WithTaskID(id string) TaskOption {
	return func(t *domain.Task) {
		t.ID = id
	}
}

func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:        fmt.Sprintf("T%03d", testTaskCounter.Add(1)),
		Title:     title,
		Type:      "task",
		Priority:  domain.PriorityMedium,
		Status:    domain.TaskTodo,
		ProjectID: "default",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TimeLog options
type TimeLogOption func(*domain.TimeLog)

func WithStart(start time.Time) TimeLogOption {
	return func(l *domain.TimeLog) {
		span := l.EndTime.Sub(l.StartTime)
		l.StartTime = start
		l.EndTime = start.Add(span)
	}
}

func WithBillable(b bool) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.IsBillable = b
	}
}

func WithDescription(d string) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.Description = d
	}
}

// NewTestTimeLog builds a billable log of the given duration whose interval
// starts an hour before now and is exactly as long as the duration.
func NewTestTimeLog(userID, taskID string, seconds int64, opts ...TimeLogOption) *domain.TimeLog {
	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	l := &domain.TimeLog{
		ID:              uuid.New().String(),
		SessionID:       uuid.New().String(),
		TaskID:          taskID,
		UserID:          userID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(seconds)*time.Second + time.Second),
		DurationSeconds: seconds,
		IsBillable:      true,
		CreatedAt:       start,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewTestSession builds a RUNNING session started at the given time.
func NewTestSession(userID, taskID string, startedAt time.Time) *domain.TimerSession {
	s, err := domain.NewTimerSession(uuid.New().String(), userID, taskID, "", startedAt)
	if err != nil {
		panic(err)
	}
	return s
}
