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

func TestTaskRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLiteTaskRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	task := testutil.NewTestTask("Invoice run",
		testutil.WithTaskType("billing"),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithProject("P1"),
	)
	require.NoError(t, repo.Create(ctx, task))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoice run", fetched.Title)
	assert.Equal(t, "billing", fetched.Type)
	assert.Equal(t, domain.PriorityHigh, fetched.Priority)
	assert.Equal(t, "P1", fetched.ProjectID)
	assert.Nil(t, fetched.CompletedAt)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Create(ctx, task), ErrDuplicate)
}

func TestTaskRepo_GetMany(t *testing.T) {
	repo := NewSQLiteTaskRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	a := testutil.NewTestTask("A")
	b := testutil.NewTestTask("B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetMany(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "B", got[b.ID].Title)

	empty, err := repo.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskRepo_ListCompletedBetween(t *testing.T) {
	repo := NewSQLiteTaskRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	inside := testutil.NewTestTask("inside", testutil.WithCompletedAt(base.Add(time.Hour)))
	atEnd := testutil.NewTestTask("at end", testutil.WithCompletedAt(base.Add(24*time.Hour)))
	open := testutil.NewTestTask("open")
	for _, task := range []*domain.Task{inside, atEnd, open} {
		require.NoError(t, repo.Create(ctx, task))
	}

	done, err := repo.ListCompletedBetween(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, inside.ID, done[0].ID)
}

func TestTaskRepo_UpdateAndListByProject(t *testing.T) {
	repo := NewSQLiteTaskRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p1 := testutil.NewTestTask("one", testutil.WithProject("P1"))
	p2 := testutil.NewTestTask("two", testutil.WithProject("P2"))
	require.NoError(t, repo.Create(ctx, p1))
	require.NoError(t, repo.Create(ctx, p2))

	p1.MarkDone(base)
	require.NoError(t, repo.Update(ctx, p1))

	list, err := repo.List(ctx, TaskFilter{ProjectID: "P1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TaskDone, list[0].Status)
	require.NotNil(t, list[0].CompletedAt)
	assert.True(t, base.Equal(*list[0].CompletedAt))

	list, err = repo.List(ctx, TaskFilter{Status: domain.TaskTodo})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p2.ID, list[0].ID)

	ghost := testutil.NewTestTask("ghost")
	assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)
}
