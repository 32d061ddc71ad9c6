package app

// StartRequest opens a timer for UserID on TaskID.
type StartRequest struct {
	UserID      string
	TaskID      string
	Description string
}

// StopRequest closes a session. A nil Description keeps the one given at
// start; a nil IsBillable means billable. UserID is ignored by ForceStop.
type StopRequest struct {
	SessionID   string
	UserID      string
	Description *string
	IsBillable  *bool
}

// FlushResult reports a pass over closed sessions whose log is not stored yet.
type FlushResult struct {
	Attempted int
	Flushed   int
	Remaining int
}
