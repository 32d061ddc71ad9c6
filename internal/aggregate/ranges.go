package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// Range shortcut names accepted by ResolveRange.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeThisWeek  = "this-week"
	RangeLastWeek  = "last-week"
	RangeThisMonth = "this-month"
	RangeLast7d    = "last-7d"
	RangeLast30d   = "last-30d"
)

var shortcuts = map[string]func(day time.Time) (time.Time, time.Time){
	RangeToday: func(day time.Time) (time.Time, time.Time) {
		return day, day.AddDate(0, 0, 1)
	},
	RangeYesterday: func(day time.Time) (time.Time, time.Time) {
		return day.AddDate(0, 0, -1), day
	},
	RangeThisWeek: func(day time.Time) (time.Time, time.Time) {
		monday := weekStart(day)
		return monday, monday.AddDate(0, 0, 7)
	},
	RangeLastWeek: func(day time.Time) (time.Time, time.Time) {
		monday := weekStart(day)
		return monday.AddDate(0, 0, -7), monday
	},
	RangeThisMonth: func(day time.Time) (time.Time, time.Time) {
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return first, first.AddDate(0, 1, 0)
	},
	RangeLast7d: func(day time.Time) (time.Time, time.Time) {
		return day.AddDate(0, 0, -6), day.AddDate(0, 0, 1)
	},
	RangeLast30d: func(day time.Time) (time.Time, time.Time) {
		return day.AddDate(0, 0, -29), day.AddDate(0, 0, 1)
	},
}

// RangeShortcuts lists the accepted shortcut names in lexical order.
func RangeShortcuts() []string {
	names := make([]string, 0, len(shortcuts))
	for name := range shortcuts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveRange turns a shortcut into calendar-aligned bounds in loc, relative
// to now. Weeks start on Monday. The last-Nd shortcuts cover N calendar days
// ending with today.
func ResolveRange(name string, now time.Time, loc *time.Location) (domain.TimeRange, error) {
	fn, ok := shortcuts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.TimeRange{}, fmt.Errorf("unknown range %q (want one of %s): %w",
			name, strings.Join(RangeShortcuts(), ", "), domain.ErrInvalidRange)
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start, end := fn(day)
	return domain.TimeRange{Start: start, End: end}, nil
}

// ParseRange builds a range from explicit bounds. Each bound is RFC 3339 or a
// bare date, which means midnight in loc. A bare date as the upper bound is
// inclusive, so "2025-03-01".."2025-03-31" covers all of March.
func ParseRange(from, to string, loc *time.Location) (domain.TimeRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, _, err := parseBound(from, loc)
	if err != nil {
		return domain.TimeRange{}, err
	}
	end, dateOnly, err := parseBound(to, loc)
	if err != nil {
		return domain.TimeRange{}, err
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1)
	}
	rng := domain.TimeRange{Start: start, End: end}
	if err := rng.Validate(); err != nil {
		return domain.TimeRange{}, err
	}
	return rng, nil
}

func parseBound(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("range bound is required: %w", domain.ErrInvalidRange)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("cannot parse %q as a date or RFC 3339 time: %w", s, domain.ErrInvalidRange)
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
