package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestRegisterStart_SecondSessionForUserConflicts(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterStart(testutil.NewTestSession("alice", "T1", testNow)))

	err := r.RegisterStart(testutil.NewTestSession("alice", "T2", testNow))
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, r.RegisterStart(testutil.NewTestSession("bob", "T2", testNow)))
	assert.Equal(t, 2, r.Len())
}

func TestRemove_FreesSlot(t *testing.T) {
	r := New()
	s := testutil.NewTestSession("alice", "T1", testNow)
	require.NoError(t, r.RegisterStart(s))

	r.Remove(s.ID)
	r.Remove(s.ID)

	_, ok := r.LookupByUser("alice")
	assert.False(t, ok)
	_, ok = r.LookupBySession(s.ID)
	assert.False(t, ok)
	require.NoError(t, r.RegisterStart(testutil.NewTestSession("alice", "T2", testNow)))
}

func TestReplace_PublishesNewRecord(t *testing.T) {
	r := New()
	s := testutil.NewTestSession("alice", "T1", testNow)
	require.NoError(t, r.RegisterStart(s))

	before, _ := r.LookupBySession(s.ID)
	paused, err := s.Pause(testNow.Add(100 * time.Second))
	require.NoError(t, err)
	require.NoError(t, r.Replace(paused))

	after, ok := r.LookupBySession(s.ID)
	require.True(t, ok)
	assert.Equal(t, domain.SessionPaused, after.State)
	assert.Equal(t, int64(100), after.AccumulatedSeconds)
	assert.Equal(t, domain.SessionRunning, before.State, "earlier readers keep the version they saw")
}

func TestReplace_Errors(t *testing.T) {
	r := New()
	s := testutil.NewTestSession("alice", "T1", testNow)
	assert.ErrorIs(t, r.Replace(s), domain.ErrNotFound)

	require.NoError(t, r.RegisterStart(s))
	stolen := s.Clone()
	stolen.UserID = "mallory"
	assert.ErrorIs(t, r.Replace(stolen), domain.ErrInvalidState)
}

func TestLookup_ReturnsCopies(t *testing.T) {
	r := New()
	s := testutil.NewTestSession("alice", "T1", testNow)
	require.NoError(t, r.RegisterStart(s))

	got, _ := r.LookupByUser("alice")
	got.State = domain.SessionClosed
	got.AccumulatedSeconds = 999

	again, _ := r.LookupByUser("alice")
	assert.Equal(t, domain.SessionRunning, again.State)
	assert.Zero(t, again.AccumulatedSeconds)
}

func TestSnapshotAndPending(t *testing.T) {
	r := New()
	assert.NotNil(t, r.Snapshot())
	assert.Empty(t, r.Snapshot())

	bob := testutil.NewTestSession("bob", "T1", testNow)
	alice := testutil.NewTestSession("alice", "T2", testNow)
	require.NoError(t, r.RegisterStart(bob))
	require.NoError(t, r.RegisterStart(alice))

	closed, _, err := bob.Close(testNow.Add(time.Minute), domain.CloseOptions{LogID: "L1"})
	require.NoError(t, err)
	require.NoError(t, r.Replace(closed))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alice", snap[0].UserID)
	assert.Equal(t, "bob", snap[1].UserID)

	pending := r.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "L1", pending[0].PendingLog.ID)
}

func TestWithUserLock_SerialisesPerUser(t *testing.T) {
	r := New()
	var inside atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithUserLock("alice", func() error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Zero(t, r.lockCount(), "idle users leave no lock entries")
}

func TestWithUserLock_OtherUsersProceed(t *testing.T) {
	r := New()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = r.WithUserLock("alice", func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan struct{})
	go func() {
		_ = r.WithUserLock("bob", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bob blocked behind alice's lock")
	}
	close(release)
}

func TestWithUserLock_ReturnsCallbackError(t *testing.T) {
	r := New()
	sentinel := errors.New("boom")
	assert.ErrorIs(t, r.WithUserLock("alice", func() error { return sentinel }), sentinel)
	assert.Zero(t, r.lockCount())
}

func TestConcurrentStarts_OneWinnerPerUser(t *testing.T) {
	r := New()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.WithUserLock("alice", func() error {
				return r.RegisterStart(testutil.NewTestSession("alice", fmt.Sprintf("T%d", i), testNow))
			})
			if err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, r.Len())
}

type stubSource struct {
	sessions []*domain.TimerSession
	err      error
}

func (s stubSource) List(context.Context) ([]*domain.TimerSession, error) {
	return s.sessions, s.err
}

func TestRestore(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterStart(testutil.NewTestSession("stale", "T0", testNow)))

	alice := testutil.NewTestSession("alice", "T1", testNow)
	bob, err := testutil.NewTestSession("bob", "T2", testNow).Pause(testNow.Add(time.Minute))
	require.NoError(t, err)

	n, err := r.Restore(context.Background(), stubSource{sessions: []*domain.TimerSession{alice, bob}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := r.LookupByUser("stale")
	assert.False(t, ok, "restore replaces in-memory content")
	got, ok := r.LookupByUser("bob")
	require.True(t, ok)
	assert.Equal(t, domain.SessionPaused, got.State)
}

func TestRestore_DuplicateUserFails(t *testing.T) {
	r := New()
	a := testutil.NewTestSession("alice", "T1", testNow)
	b := testutil.NewTestSession("alice", "T2", testNow)

	_, err := r.Restore(context.Background(), stubSource{sessions: []*domain.TimerSession{a, b}})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = r.Restore(context.Background(), stubSource{err: errors.New("db down")})
	assert.Error(t, err)
}

func TestRestore_KeepsPendingSkipsBareClosed(t *testing.T) {
	r := New()
	pending, _, err := testutil.NewTestSession("alice", "T1", testNow).
		Close(testNow.Add(time.Minute), domain.CloseOptions{LogID: "L1"})
	require.NoError(t, err)
	bare := pending.Clone()
	bare.UserID = "bob"
	bare.ID = "bare"
	bare.PendingLog = nil

	n, err := r.Restore(context.Background(), stubSource{sessions: []*domain.TimerSession{pending, bare}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, r.Pending(), 1)
	assert.Equal(t, "L1", r.Pending()[0].PendingLog.ID)
}

func TestAdopt_ReplacesUserEntry(t *testing.T) {
	r := New()
	stale := testutil.NewTestSession("alice", "T1", testNow)
	require.NoError(t, r.RegisterStart(stale))

	fresh := testutil.NewTestSession("alice", "T2", testNow.Add(time.Hour))
	r.Adopt(fresh)

	got, ok := r.LookupByUser("alice")
	require.True(t, ok)
	assert.Equal(t, fresh.ID, got.ID)
	_, ok = r.LookupBySession(stale.ID)
	assert.False(t, ok, "the replaced session is dropped")
	assert.Equal(t, 1, r.Len())

	paused, err := fresh.Pause(testNow.Add(2 * time.Hour))
	require.NoError(t, err)
	r.Adopt(paused)
	got, _ = r.LookupBySession(fresh.ID)
	assert.Equal(t, domain.SessionPaused, got.State)
	assert.Len(t, r.Snapshot(), 1)
}
