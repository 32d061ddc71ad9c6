package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTimeLogRepo_CreateAndGetByID(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	l := testutil.NewTestTimeLog("alice", "T1", 350,
		testutil.WithStart(base),
		testutil.WithDescription("needs \"quotes\", commas\nand newlines"),
		testutil.WithBillable(false),
	)
	l.EndTime = base.Add(400*time.Second + 123*time.Millisecond)
	require.NoError(t, repo.Create(ctx, l))

	fetched, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.SessionID, fetched.SessionID)
	assert.Equal(t, int64(350), fetched.DurationSeconds)
	assert.False(t, fetched.IsBillable)
	assert.Equal(t, l.Description, fetched.Description)
	assert.True(t, l.StartTime.Equal(fetched.StartTime))
	assert.True(t, l.EndTime.Equal(fetched.EndTime), "sub-second end time survives storage")

	bySession, err := repo.GetBySession(ctx, l.SessionID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, bySession.ID)
}

func TestTimeLogRepo_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeLogRepo_CreateIsIdempotentForSameLog(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	l := testutil.NewTestTimeLog("alice", "T1", 60)
	require.NoError(t, repo.Create(ctx, l))
	require.NoError(t, repo.Create(ctx, l), "retrying the same log must not fail")

	logs, err := repo.List(ctx, TimeLogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestTimeLogRepo_RejectsSecondLogForSession(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	first := testutil.NewTestTimeLog("alice", "T1", 60)
	require.NoError(t, repo.Create(ctx, first))

	second := testutil.NewTestTimeLog("alice", "T1", 90)
	second.SessionID = first.SessionID
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTimeLogRepo_ListFilters(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	inRange := testutil.NewTestTimeLog("alice", "T1", 60, testutil.WithStart(base))
	atEnd := testutil.NewTestTimeLog("alice", "T1", 60, testutil.WithStart(base.Add(24*time.Hour)))
	before := testutil.NewTestTimeLog("alice", "T1", 60, testutil.WithStart(base.Add(-time.Second)))
	bob := testutil.NewTestTimeLog("bob", "T2", 60, testutil.WithStart(base.Add(time.Hour)))
	for _, l := range []*domain.TimeLog{inRange, atEnd, before, bob} {
		require.NoError(t, repo.Create(ctx, l))
	}

	day := TimeLogFilter{Start: base, End: base.Add(24 * time.Hour)}
	logs, err := repo.List(ctx, day)
	require.NoError(t, err)
	require.Len(t, logs, 2, "start is inclusive, end is exclusive")
	assert.Equal(t, inRange.ID, logs[0].ID)
	assert.Equal(t, bob.ID, logs[1].ID)

	day.UserID = "bob"
	logs, err = repo.List(ctx, day)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, bob.ID, logs[0].ID)

	logs, err = repo.List(ctx, TimeLogFilter{TaskID: "T1"})
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = repo.List(ctx, TimeLogFilter{TaskIDs: []string{"T2", "T9"}})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = repo.List(ctx, TimeLogFilter{TaskIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, logs, "an empty task set matches nothing")
}

func TestTimeLogRepo_StreamStopsOnCallbackError(t *testing.T) {
	repo := NewSQLiteTimeLogRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, testutil.NewTestTimeLog("alice", "T1", 60)))
	}

	sentinel := errors.New("consumer gone")
	seen := 0
	err := repo.Stream(ctx, TimeLogFilter{}, func(*domain.TimeLog) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, seen)
}
