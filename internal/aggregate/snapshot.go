// Package aggregate derives productivity and billing totals from time logs.
// Everything here is a pure function of its inputs.
package aggregate

import "time"

// DefaultReferenceSecondsPerTask is one eight-hour working day.
const DefaultReferenceSecondsPerTask int64 = 8 * 60 * 60

// Scope narrows which logs contribute to a snapshot. Zero-valued fields are
// ignored. TaskIDs is the resolved task set of ProjectID; a nil slice means
// no project scope, an empty slice matches nothing.
type Scope struct {
	MemberID  string   `json:"memberId,omitempty"`
	TaskID    string   `json:"taskId,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
	TaskIDs   []string `json:"-"`
}

// Options carries configuration that is not part of the query.
type Options struct {
	ReferenceSecondsPerTask int64
}

// Snapshot is a derived, never stored summary of a range.
type Snapshot struct {
	Start               time.Time     `json:"start"`
	End                 time.Time     `json:"end"`
	Scope               Scope         `json:"scope"`
	TotalSeconds        int64         `json:"totalSeconds"`
	BillableSeconds     int64         `json:"billableSeconds"`
	TasksCompletedCount int           `json:"tasksCompletedCount"`
	AvgSecondsPerTask   int64         `json:"avgSecondsPerTask"`
	LogCount            int           `json:"logCount"`
	Members             []MemberStats `json:"members"`
}

// MemberStats is one user's share of a snapshot.
type MemberStats struct {
	UserID              string  `json:"userId"`
	TotalSeconds        int64   `json:"totalSeconds"`
	BillableSeconds     int64   `json:"billableSeconds"`
	TasksCompletedCount int     `json:"tasksCompletedCount"`
	AvgSecondsPerTask   int64   `json:"avgSecondsPerTask"`
	EfficiencyScore     float64 `json:"efficiencyScore"`
	LogCount            int     `json:"logCount"`
	MedianLogSeconds    float64 `json:"medianLogSeconds"`
}

// BillableRatio returns billable over total seconds, or 0 for an empty range.
func (s *Snapshot) BillableRatio() float64 {
	if s.TotalSeconds == 0 {
		return 0
	}
	return float64(s.BillableSeconds) / float64(s.TotalSeconds)
}
