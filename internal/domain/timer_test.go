package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newRunning(t *testing.T) *TimerSession {
	t.Helper()
	s, err := NewTimerSession("s1", "alice", "T1", "triage", testNow)
	require.NoError(t, err)
	return s
}

func TestNewTimerSession_StartsRunning(t *testing.T) {
	s := newRunning(t)
	assert.Equal(t, SessionRunning, s.State)
	require.NotNil(t, s.SegmentStart)
	assert.Equal(t, testNow, *s.SegmentStart)
	assert.Zero(t, s.AccumulatedSeconds)
	assert.True(t, s.IsActive())
}

func TestNewTimerSession_RequiresIDs(t *testing.T) {
	_, err := NewTimerSession("s1", "", "T1", "", testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewTimerSession("s1", "alice", "", "", testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPause_AccumulatesOpenSegment(t *testing.T) {
	s := newRunning(t)

	paused, err := s.Pause(testNow.Add(100*time.Second + 900*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, SessionPaused, paused.State)
	assert.Nil(t, paused.SegmentStart)
	assert.Equal(t, int64(100), paused.AccumulatedSeconds, "sub-second remainder is truncated")

	assert.Equal(t, SessionRunning, s.State, "receiver must not be mutated")
	assert.NotNil(t, s.SegmentStart)
}

func TestPause_FromPaused(t *testing.T) {
	s := newRunning(t)
	paused, err := s.Pause(testNow.Add(time.Minute))
	require.NoError(t, err)

	_, err = paused.Pause(testNow.Add(2 * time.Minute))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestResume_OnlyFromPaused(t *testing.T) {
	s := newRunning(t)
	_, err := s.Resume(testNow.Add(time.Second))
	assert.ErrorIs(t, err, ErrInvalidState)

	paused, err := s.Pause(testNow.Add(10 * time.Second))
	require.NoError(t, err)
	resumed, err := paused.Resume(testNow.Add(20 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, SessionRunning, resumed.State)
	require.NotNil(t, resumed.SegmentStart)
	assert.Equal(t, testNow.Add(20*time.Second), *resumed.SegmentStart)
	assert.Equal(t, int64(10), resumed.AccumulatedSeconds)
}

func TestClose_ScenarioExcludesPausedInterval(t *testing.T) {
	s := newRunning(t)
	s, err := s.Pause(testNow.Add(100 * time.Second))
	require.NoError(t, err)
	s, err = s.Resume(testNow.Add(150 * time.Second))
	require.NoError(t, err)

	closed, log, err := s.Close(testNow.Add(400*time.Second), CloseOptions{LogID: "l1"})
	require.NoError(t, err)

	assert.Equal(t, int64(350), log.DurationSeconds)
	assert.Equal(t, testNow, log.StartTime)
	assert.Equal(t, testNow.Add(400*time.Second), log.EndTime)
	assert.True(t, log.IsBillable, "billable defaults to true")
	assert.Equal(t, "triage", log.Description)
	assert.Equal(t, "s1", log.SessionID)

	assert.Equal(t, SessionClosed, closed.State)
	assert.True(t, closed.IsPendingLog())
	assert.False(t, closed.IsActive())
	assert.Equal(t, int64(350), closed.AccumulatedSeconds)
}

func TestClose_FromPausedKeepsAccumulated(t *testing.T) {
	s := newRunning(t)
	s, err := s.Pause(testNow.Add(42 * time.Second))
	require.NoError(t, err)

	desc := "wrapped up"
	billable := false
	_, log, err := s.Close(testNow.Add(time.Hour), CloseOptions{LogID: "l1", Description: &desc, IsBillable: &billable})
	require.NoError(t, err)
	assert.Equal(t, int64(42), log.DurationSeconds)
	assert.Equal(t, "wrapped up", log.Description)
	assert.False(t, log.IsBillable)
}

func TestClose_Twice(t *testing.T) {
	s := newRunning(t)
	closed, _, err := s.Close(testNow.Add(time.Second), CloseOptions{LogID: "l1"})
	require.NoError(t, err)

	_, _, err = closed.Close(testNow.Add(2*time.Second), CloseOptions{LogID: "l2"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestClose_ImmediateStopKeepsEndAfterStart(t *testing.T) {
	s := newRunning(t)
	_, log, err := s.Close(testNow, CloseOptions{LogID: "l1"})
	require.NoError(t, err)
	assert.True(t, log.EndTime.After(log.StartTime))
	assert.Zero(t, log.DurationSeconds)
}

func TestClose_ClockSkewClampsToZero(t *testing.T) {
	s := newRunning(t)
	_, log, err := s.Close(testNow.Add(-5*time.Second), CloseOptions{LogID: "l1"})
	require.NoError(t, err)
	assert.Zero(t, log.DurationSeconds)
}

func TestElapsedSeconds_DerivedAtRead(t *testing.T) {
	s := newRunning(t)
	assert.Equal(t, int64(10), s.ElapsedSeconds(testNow.Add(10*time.Second)))
	assert.Equal(t, int64(11), s.ElapsedSeconds(testNow.Add(11*time.Second)))

	paused, err := s.Pause(testNow.Add(30 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(30), paused.ElapsedSeconds(testNow.Add(time.Hour)), "paused time does not count")
}

func TestCheckOwner(t *testing.T) {
	s := newRunning(t)
	assert.NoError(t, s.CheckOwner("alice"))
	assert.ErrorIs(t, s.CheckOwner("bob"), ErrInvalidState)
}

func TestClone_IsDeep(t *testing.T) {
	s := newRunning(t)
	c := s.Clone()
	*c.SegmentStart = testNow.Add(time.Hour)
	assert.Equal(t, testNow, *s.SegmentStart)
}

func TestDurationConservation_ManyCycles(t *testing.T) {
	s := newRunning(t)
	var running time.Duration
	cursor := testNow
	segments := []struct{ run, pause time.Duration }{
		{90*time.Second + 300*time.Millisecond, 20 * time.Second},
		{45 * time.Second, 3 * time.Minute},
		{10*time.Minute + 700*time.Millisecond, 0},
	}
	var err error
	for i, seg := range segments {
		cursor = cursor.Add(seg.run)
		running += seg.run
		if i == len(segments)-1 {
			break
		}
		s, err = s.Pause(cursor)
		require.NoError(t, err)
		cursor = cursor.Add(seg.pause)
		s, err = s.Resume(cursor)
		require.NoError(t, err)
	}
	_, log, err := s.Close(cursor, CloseOptions{LogID: "l1"})
	require.NoError(t, err)
	assert.InDelta(t, running.Seconds(), float64(log.DurationSeconds), 1.0)
}

func TestRestorePendingLog_MatchesClose(t *testing.T) {
	s := newRunning(t)
	billable := false
	closed, log, err := s.Close(testNow.Add(90*time.Second), CloseOptions{LogID: "L1", IsBillable: &billable})
	require.NoError(t, err)

	stored := closed.Clone()
	stored.PendingLog = nil
	require.NoError(t, stored.RestorePendingLog(log.ID, log.EndTime, log.IsBillable))
	assert.Equal(t, *log, *stored.PendingLog)
	assert.True(t, stored.IsPendingLog())
}

func TestRestorePendingLog_RequiresClosed(t *testing.T) {
	s := newRunning(t)
	err := s.RestorePendingLog("L1", testNow.Add(time.Minute), true)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, s.PendingLog)
}
