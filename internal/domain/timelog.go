package domain

import (
	"fmt"
	"time"
)

// TimeLog is the immutable historical record emitted once per stopped session.
type TimeLog struct {
	ID              string
	SessionID       string
	TaskID          string
	UserID          string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int64
	Description     string
	IsBillable      bool
	CreatedAt       time.Time
}

// Validate checks the structural invariants of a TimeLog: the interval is
// non-empty and the recorded duration fits inside it.
func (l *TimeLog) Validate() error {
	if l.ID == "" || l.TaskID == "" || l.UserID == "" {
		return fmt.Errorf("time log requires id, task and user: %w", ErrInvalidArgument)
	}
	if !l.EndTime.After(l.StartTime) {
		return fmt.Errorf("time log %s ends at or before its start: %w", l.ID, ErrInvalidArgument)
	}
	if l.DurationSeconds < 0 {
		return fmt.Errorf("time log %s has negative duration: %w", l.ID, ErrInvalidArgument)
	}
	if l.DurationSeconds > WholeSeconds(l.EndTime.Sub(l.StartTime)) {
		return fmt.Errorf("time log %s duration %ds exceeds its interval: %w", l.ID, l.DurationSeconds, ErrInvalidArgument)
	}
	return nil
}
