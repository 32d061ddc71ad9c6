package app

import (
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// ActiveFilter narrows the live activity view. Empty fields are ignored and
// set fields are ANDed.
type ActiveFilter struct {
	TaskType  string
	Priority  domain.TaskPriority
	ProjectID string
	UserID    string
}

// HasTaskFilter reports whether any filter needs task directory attributes.
func (f ActiveFilter) HasTaskFilter() bool {
	return f.TaskType != "" || f.Priority != "" || f.ProjectID != ""
}

// ActiveSessionView is one row of the live activity view. ElapsedSeconds is
// computed at read time.
type ActiveSessionView struct {
	SessionID          string
	UserID             string
	TaskID             string
	State              domain.SessionState
	ElapsedSeconds     int64
	SegmentStart       *time.Time
	AccumulatedSeconds int64
	Description        string
	StartedAt          time.Time

	TaskTitle string
	TaskType  string
	Priority  domain.TaskPriority
	ProjectID string
}
