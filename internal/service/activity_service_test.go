package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/repository"
	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityFixture struct {
	*timerFixture
	tasks    TaskService
	activity ActivityService
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	f := newTimerFixture(t, nil)
	tasks := NewTaskService(repository.NewSQLiteTaskRepo(f.db), f.clock.Now, fastPolicy)
	ctx := context.Background()
	for _, task := range []*domain.Task{
		testutil.NewTestTask("Fix login", testutil.WithTaskID("T1"), testutil.WithTaskType("bug"), testutil.WithPriority(domain.PriorityHigh), testutil.WithProject("web")),
		testutil.NewTestTask("Write docs", testutil.WithTaskID("T2"), testutil.WithTaskType("docs"), testutil.WithProject("web")),
		testutil.NewTestTask("Ops review", testutil.WithTaskID("T3"), testutil.WithTaskType("bug"), testutil.WithProject("ops")),
	} {
		require.NoError(t, tasks.Add(ctx, task))
	}
	return &activityFixture{
		timerFixture: f,
		tasks:        tasks,
		activity:     NewActivityService(f.reg, f.svc, tasks, f.clock.Now, fastPolicy),
	}
}

func TestActivity_EmptyIsNonNil(t *testing.T) {
	f := newActivityFixture(t)

	views, err := f.activity.ListActive(context.Background(), app.ActiveFilter{})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestActivity_ElapsedAndOrdering(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()

	carol := f.start(t, "carol", "T3")
	f.clock.Advance(60 * time.Second)
	f.start(t, "bob", "T2")
	f.start(t, "alice", "T1")
	f.clock.Advance(40 * time.Second)
	_, err := f.svc.Pause(ctx, carol.ID, "carol")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	views, err := f.activity.ListActive(ctx, app.ActiveFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "alice", views[0].UserID, "ties break by user id")
	assert.Equal(t, "bob", views[1].UserID)
	assert.Equal(t, int64(3640), views[0].ElapsedSeconds)
	assert.Equal(t, "carol", views[2].UserID)
	assert.Equal(t, int64(100), views[2].ElapsedSeconds, "paused sessions do not grow")
	assert.Equal(t, domain.SessionPaused, views[2].State)

	assert.Equal(t, "Fix login", views[0].TaskTitle)
	assert.Equal(t, domain.PriorityHigh, views[0].Priority)
	assert.Equal(t, "web", views[0].ProjectID)

	f.clock.Advance(10 * time.Second)
	again, err := f.activity.ListActive(ctx, app.ActiveFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3650), again[0].ElapsedSeconds, "elapsed is derived on every read")
}

func TestActivity_Filters(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()

	f.start(t, "alice", "T1")
	f.start(t, "bob", "T2")
	f.start(t, "carol", "T3")
	f.start(t, "dave", "T-unknown")

	tests := []struct {
		name   string
		filter app.ActiveFilter
		users  []string
	}{
		{"none", app.ActiveFilter{}, []string{"alice", "bob", "carol", "dave"}},
		{"task type", app.ActiveFilter{TaskType: "bug"}, []string{"alice", "carol"}},
		{"priority", app.ActiveFilter{Priority: domain.PriorityHigh}, []string{"alice"}},
		{"project", app.ActiveFilter{ProjectID: "web"}, []string{"alice", "bob"}},
		{"anded", app.ActiveFilter{TaskType: "bug", ProjectID: "ops"}, []string{"carol"}},
		{"user", app.ActiveFilter{UserID: "dave"}, []string{"dave"}},
		{"no match", app.ActiveFilter{TaskType: "meeting"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := f.activity.ListActive(ctx, tt.filter)
			require.NoError(t, err)
			users := []string{}
			for _, v := range views {
				users = append(users, v.UserID)
			}
			assert.ElementsMatch(t, tt.users, users)
		})
	}
}

func TestActivity_ExcludesPendingSessions(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()

	s := f.start(t, "alice", "T1")
	closed, _, err := s.Close(f.clock.Now().Add(time.Minute), domain.CloseOptions{LogID: "L1"})
	require.NoError(t, err)
	require.NoError(t, f.reg.Replace(closed))

	views, err := f.activity.ListActive(ctx, app.ActiveFilter{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

type failingDirectory struct {
	app.TaskDirectory
}

func (failingDirectory) LookupMany(context.Context, []string) (map[string]*domain.Task, error) {
	return nil, errors.New("directory offline")
}

func TestActivity_DirectoryFailure(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	f.start(t, "alice", "T1")

	activity := NewActivityService(f.reg, nil, failingDirectory{}, f.clock.Now, StorePolicy{Timeout: time.Second})

	views, err := activity.ListActive(ctx, app.ActiveFilter{})
	require.NoError(t, err, "unfiltered views degrade to no task attributes")
	require.Len(t, views, 1)
	assert.Empty(t, views[0].TaskTitle)

	_, err = activity.ListActive(ctx, app.ActiveFilter{TaskType: "bug"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
