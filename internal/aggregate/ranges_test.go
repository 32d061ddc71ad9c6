package aggregate

import (
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestResolveRange(t *testing.T) {
	// Thursday afternoon.
	now := time.Date(2025, 3, 13, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{RangeToday, date(2025, 3, 13, time.UTC), date(2025, 3, 14, time.UTC)},
		{RangeYesterday, date(2025, 3, 12, time.UTC), date(2025, 3, 13, time.UTC)},
		{RangeThisWeek, date(2025, 3, 10, time.UTC), date(2025, 3, 17, time.UTC)},
		{RangeLastWeek, date(2025, 3, 3, time.UTC), date(2025, 3, 10, time.UTC)},
		{RangeThisMonth, date(2025, 3, 1, time.UTC), date(2025, 4, 1, time.UTC)},
		{RangeLast7d, date(2025, 3, 7, time.UTC), date(2025, 3, 14, time.UTC)},
		{RangeLast30d, date(2025, 2, 12, time.UTC), date(2025, 3, 14, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ResolveRange(tt.name, now, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.start.Equal(rng.Start), "start: got %s", rng.Start)
			assert.True(t, tt.end.Equal(rng.End), "end: got %s", rng.End)
		})
	}
}

func TestResolveRange_SundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC)
	rng, err := ResolveRange("this-week", sunday, nil)
	require.NoError(t, err)
	assert.True(t, date(2025, 3, 10, time.UTC).Equal(rng.Start))
}

func TestResolveRange_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC) // 06:00 on the 14th in loc

	rng, err := ResolveRange("today", now, loc)
	require.NoError(t, err)
	assert.True(t, date(2025, 3, 14, loc).Equal(rng.Start))
}

func TestResolveRange_Unknown(t *testing.T) {
	_, err := ResolveRange("fortnight", time.Now(), time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	assert.Contains(t, err.Error(), "last-30d")
}

func TestParseRange(t *testing.T) {
	rng, err := ParseRange("2025-03-01", "2025-03-31", time.UTC)
	require.NoError(t, err)
	assert.True(t, date(2025, 3, 1, time.UTC).Equal(rng.Start))
	assert.True(t, date(2025, 4, 1, time.UTC).Equal(rng.End), "date-only end is inclusive")

	rng, err = ParseRange("2025-03-01T08:00:00Z", "2025-03-01T12:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, rng.End.Sub(rng.Start))

	_, err = ParseRange("2025-03-02", "2025-03-01", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = ParseRange("", "2025-03-01", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = ParseRange("last tuesday", "2025-03-01", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}
