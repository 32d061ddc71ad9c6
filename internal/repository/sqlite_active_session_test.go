package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveSessionRepo_CreateGetUpdateDelete(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	s := testutil.NewTestSession("alice", "T1", base)
	require.NoError(t, repo.Create(ctx, s))

	fetched, err := repo.GetByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, s.ID, fetched.ID)
	require.NotNil(t, fetched.SegmentStart)
	assert.True(t, base.Equal(*fetched.SegmentStart))

	paused, err := s.Pause(base.Add(90 * time.Second))
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, paused))

	fetched, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, paused.State, fetched.State)
	assert.Nil(t, fetched.SegmentStart)
	assert.Equal(t, int64(90), fetched.AccumulatedSeconds)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActiveSessionRepo_DuplicateUser(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("alice", "T1", base)))
	err := repo.Create(ctx, testutil.NewTestSession("alice", "T2", base))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestActiveSessionRepo_UpdateMissing(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))

	err := repo.Update(context.Background(), testutil.NewTestSession("alice", "T1", base))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActiveSessionRepo_List(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("alice", "T1", base)))
	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("bob", "T1", base.Add(time.Minute))))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].UserID)
}

func TestActiveSessionRepo_ClosedRowKeepsPendingLog(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	s := testutil.NewTestSession("alice", "T1", base)
	require.NoError(t, repo.Create(ctx, s))

	note := "release notes"
	billable := false
	closed, log, err := s.Close(base.Add(2*time.Minute), domain.CloseOptions{LogID: "L1", Description: &note, IsBillable: &billable})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, closed))

	fetched, err := repo.GetByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionClosed, fetched.State)
	require.True(t, fetched.IsPendingLog())
	p := fetched.PendingLog
	assert.Equal(t, "L1", p.ID)
	assert.Equal(t, s.ID, p.SessionID)
	assert.Equal(t, int64(120), p.DurationSeconds)
	assert.Equal(t, note, p.Description)
	assert.False(t, p.IsBillable)
	assert.True(t, log.StartTime.Equal(p.StartTime))
	assert.True(t, log.EndTime.Equal(p.EndTime))
	assert.True(t, log.CreatedAt.Equal(p.CreatedAt))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsPendingLog())
}

func TestActiveSessionRepo_OpenRowHasNoPendingLog(t *testing.T) {
	repo := NewSQLiteActiveSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	s := testutil.NewTestSession("alice", "T1", base)
	require.NoError(t, repo.Create(ctx, s))

	fetched, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.PendingLog)
}
