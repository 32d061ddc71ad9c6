package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/repository"
)

type taskService struct {
	tasks repository.TaskRepo
	clock func() time.Time
	store StorePolicy
}

// NewTaskService serves the local task directory. It is the default
// app.TaskDirectory when no external task system is configured.
func NewTaskService(tasks repository.TaskRepo, clock func() time.Time, store StorePolicy) TaskService {
	if clock == nil {
		clock = systemClock
	}
	if store == (StorePolicy{}) {
		store = DefaultStorePolicy()
	}
	return &taskService{tasks: tasks, clock: clock, store: store}
}

func (s *taskService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return storeCall(ctx, s.store, fn)
}

func (s *taskService) Lookup(ctx context.Context, taskID string) (t *domain.Task, err error) {
	err = s.call(ctx, func(ctx context.Context) error {
		t, err = s.tasks.GetByID(ctx, taskID)
		return err
	})
	return t, err
}

func (s *taskService) LookupMany(ctx context.Context, taskIDs []string) (m map[string]*domain.Task, err error) {
	err = s.call(ctx, func(ctx context.Context) error {
		m, err = s.tasks.GetMany(ctx, taskIDs)
		return err
	})
	return m, err
}

func (s *taskService) ListCompletedBetween(ctx context.Context, start, end time.Time) (list []*domain.Task, err error) {
	err = s.call(ctx, func(ctx context.Context) error {
		list, err = s.tasks.ListCompletedBetween(ctx, start, end)
		return err
	})
	return list, err
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return s.List(ctx, projectID, "")
}

func (s *taskService) List(ctx context.Context, projectID string, status domain.TaskStatus) (list []*domain.Task, err error) {
	err = s.call(ctx, func(ctx context.Context) error {
		list, err = s.tasks.List(ctx, repository.TaskFilter{ProjectID: projectID, Status: status})
		return err
	})
	return list, err
}

func (s *taskService) Add(ctx context.Context, t *domain.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("task title is required: %w", domain.ErrInvalidArgument)
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Type == "" {
		t.Type = "task"
	}
	t.Priority = domain.TaskPriority(domain.CoalesceStr(string(t.Priority), string(domain.PriorityMedium)))
	if !domain.ValidTaskPriorities[string(t.Priority)] {
		return fmt.Errorf("unknown priority %q: %w", t.Priority, domain.ErrInvalidArgument)
	}
	if t.Status == "" {
		t.Status = domain.TaskTodo
	}
	now := s.clock()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := s.call(ctx, func(ctx context.Context) error {
		return s.tasks.Create(ctx, t)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("task %s already exists: %w", t.ID, domain.ErrConflict)
	}
	return err
}

func (s *taskService) MarkDone(ctx context.Context, taskID string) (*domain.Task, error) {
	t, err := s.Lookup(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.MarkDone(s.clock())
	err = s.call(ctx, func(ctx context.Context) error {
		return s.tasks.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
