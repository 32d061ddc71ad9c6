package domain

import (
	"fmt"
	"time"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects empty or inverted ranges.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("range bounds are required: %w", ErrInvalidRange)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("range end %s is not after start %s: %w",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339), ErrInvalidRange)
	}
	return nil
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
