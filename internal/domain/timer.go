package domain

import (
	"fmt"
	"time"
)

// TimerSession is the mutable, currently open unit of work tracking for one
// user. Transition methods never modify the receiver: they return a new
// record so that a published session can be read without locking.
type TimerSession struct {
	ID                 string
	UserID             string
	TaskID             string
	State              SessionState
	SegmentStart       *time.Time
	AccumulatedSeconds int64
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// PendingLog is set when the session has been closed but its TimeLog has
	// not been acknowledged by the store yet. The user's slot stays occupied
	// until the log is persisted.
	PendingLog *TimeLog
}

// NewTimerSession creates a RUNNING session whose first segment starts at now.
func NewTimerSession(id, userID, taskID, description string, now time.Time) (*TimerSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", ErrInvalidArgument)
	}
	if taskID == "" {
		return nil, fmt.Errorf("task id is required: %w", ErrInvalidArgument)
	}
	start := now
	return &TimerSession{
		ID:           id,
		UserID:       userID,
		TaskID:       taskID,
		State:        SessionRunning,
		SegmentStart: &start,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// WholeSeconds truncates d to whole seconds. Negative durations, which only
// appear when the clock steps backwards, count as zero.
func WholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// IsActive reports whether the session still occupies its user's slot as
// running or paused work.
func (s *TimerSession) IsActive() bool {
	return s.State == SessionRunning || s.State == SessionPaused
}

// IsPendingLog reports whether the session is closed but its TimeLog is still
// waiting to be persisted.
func (s *TimerSession) IsPendingLog() bool {
	return s.State == SessionClosed && s.PendingLog != nil
}

// CheckOwner returns ErrInvalidState when userID does not own the session.
func (s *TimerSession) CheckOwner(userID string) error {
	if s.UserID != userID {
		return fmt.Errorf("session %s is not owned by %s: %w", s.ID, userID, ErrInvalidState)
	}
	return nil
}

// ElapsedSeconds returns the accumulated time plus the open segment, if any.
// It is always derived from the authoritative fields at read time.
func (s *TimerSession) ElapsedSeconds(now time.Time) int64 {
	elapsed := s.AccumulatedSeconds
	if s.State == SessionRunning && s.SegmentStart != nil {
		elapsed += WholeSeconds(now.Sub(*s.SegmentStart))
	}
	return elapsed
}

// Clone returns a deep copy of the session.
func (s *TimerSession) Clone() *TimerSession {
	c := *s
	if s.SegmentStart != nil {
		start := *s.SegmentStart
		c.SegmentStart = &start
	}
	if s.PendingLog != nil {
		log := *s.PendingLog
		c.PendingLog = &log
	}
	return &c
}

// Pause closes the open segment and moves the session to PAUSED.
func (s *TimerSession) Pause(now time.Time) (*TimerSession, error) {
	if s.State != SessionRunning {
		return nil, fmt.Errorf("cannot pause session %s in state %s: %w", s.ID, s.State, ErrInvalidState)
	}
	next := s.Clone()
	next.AccumulatedSeconds += next.openSegmentSeconds(now)
	next.SegmentStart = nil
	next.State = SessionPaused
	next.UpdatedAt = now
	return next, nil
}

// Resume opens a new segment and moves the session back to RUNNING.
func (s *TimerSession) Resume(now time.Time) (*TimerSession, error) {
	if s.State != SessionPaused {
		return nil, fmt.Errorf("cannot resume session %s in state %s: %w", s.ID, s.State, ErrInvalidState)
	}
	next := s.Clone()
	start := now
	next.SegmentStart = &start
	next.State = SessionRunning
	next.UpdatedAt = now
	return next, nil
}

// CloseOptions carries the values supplied at stop time.
type CloseOptions struct {
	LogID       string
	Description *string
	IsBillable  *bool
}

// Close closes the open segment, if any, and produces the session's TimeLog.
// The returned session is CLOSED and carries the log as PendingLog until the
// caller has persisted it.
func (s *TimerSession) Close(now time.Time, opts CloseOptions) (*TimerSession, *TimeLog, error) {
	if !s.IsActive() {
		return nil, nil, fmt.Errorf("cannot stop session %s in state %s: %w", s.ID, s.State, ErrInvalidState)
	}
	if opts.LogID == "" {
		return nil, nil, fmt.Errorf("log id is required: %w", ErrInvalidArgument)
	}

	next := s.Clone()
	if next.State == SessionRunning {
		next.AccumulatedSeconds += next.openSegmentSeconds(now)
	}
	next.SegmentStart = nil
	next.State = SessionClosed
	next.Description = StrFromPtrWithDefault(s.Description, opts.Description)
	next.UpdatedAt = now

	end := now
	if !end.After(s.CreatedAt) {
		// Stored timestamps keep nanoseconds, so the smallest step preserves
		// EndTime > StartTime without inflating the duration.
		end = s.CreatedAt.Add(time.Nanosecond)
	}

	log := &TimeLog{
		ID:              opts.LogID,
		SessionID:       s.ID,
		TaskID:          s.TaskID,
		UserID:          s.UserID,
		StartTime:       s.CreatedAt,
		EndTime:         end,
		DurationSeconds: next.AccumulatedSeconds,
		Description:     next.Description,
		IsBillable:      BoolFromPtrWithDefault(true, opts.IsBillable),
		CreatedAt:       now,
	}
	if err := log.Validate(); err != nil {
		return nil, nil, err
	}

	pending := *log
	next.PendingLog = &pending
	return next, log, nil
}

// RestorePendingLog rebuilds the TimeLog of a CLOSED session from the values
// stored alongside it. Close stamps the log with the session's UpdatedAt, so
// the rebuilt log matches the one first produced.
func (s *TimerSession) RestorePendingLog(logID string, end time.Time, isBillable bool) error {
	if s.State != SessionClosed {
		return fmt.Errorf("session %s in state %s has no pending log: %w", s.ID, s.State, ErrInvalidState)
	}
	log := &TimeLog{
		ID:              logID,
		SessionID:       s.ID,
		TaskID:          s.TaskID,
		UserID:          s.UserID,
		StartTime:       s.CreatedAt,
		EndTime:         end,
		DurationSeconds: s.AccumulatedSeconds,
		Description:     s.Description,
		IsBillable:      isBillable,
		CreatedAt:       s.UpdatedAt,
	}
	if err := log.Validate(); err != nil {
		return err
	}
	s.PendingLog = log
	return nil
}

func (s *TimerSession) openSegmentSeconds(now time.Time) int64 {
	if s.SegmentStart == nil {
		return 0
	}
	return WholeSeconds(now.Sub(*s.SegmentStart))
}
