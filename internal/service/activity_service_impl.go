package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/registry"
)

type activityService struct {
	reg    *registry.Registry
	syncer RegistrySyncer
	tasks  app.TaskDirectory
	clock  func() time.Time
	store  StorePolicy
}

// NewActivityService builds the live view over reg. When syncer is set, each
// listing first picks up sessions other processes started or stopped. tasks
// may be nil, in which case views carry no task attributes and task filters
// match nothing.
func NewActivityService(reg *registry.Registry, syncer RegistrySyncer, tasks app.TaskDirectory, clock func() time.Time, store StorePolicy) ActivityService {
	if clock == nil {
		clock = systemClock
	}
	if store == (StorePolicy{}) {
		store = DefaultStorePolicy()
	}
	return &activityService{reg: reg, syncer: syncer, tasks: tasks, clock: clock, store: store}
}

func (s *activityService) ListActive(ctx context.Context, f app.ActiveFilter) ([]app.ActiveSessionView, error) {
	if s.syncer != nil {
		// A failed sync leaves the registry as it was; the view still renders.
		_ = s.syncer.Sync(ctx)
	}
	now := s.clock()

	var sessions []*domain.TimerSession
	for _, sess := range s.reg.Snapshot() {
		if !sess.IsActive() {
			continue
		}
		if f.UserID != "" && sess.UserID != f.UserID {
			continue
		}
		sessions = append(sessions, sess)
	}

	tasks, err := s.lookupTasks(ctx, sessions, f.HasTaskFilter())
	if err != nil {
		return nil, err
	}

	views := make([]app.ActiveSessionView, 0, len(sessions))
	for _, sess := range sessions {
		task := tasks[sess.TaskID]
		if f.HasTaskFilter() && !matchesTask(task, f) {
			continue
		}
		v := app.ActiveSessionView{
			SessionID:          sess.ID,
			UserID:             sess.UserID,
			TaskID:             sess.TaskID,
			State:              sess.State,
			ElapsedSeconds:     sess.ElapsedSeconds(now),
			SegmentStart:       sess.SegmentStart,
			AccumulatedSeconds: sess.AccumulatedSeconds,
			Description:        sess.Description,
			StartedAt:          sess.CreatedAt,
		}
		if task != nil {
			v.TaskTitle = task.Title
			v.TaskType = task.Type
			v.Priority = task.Priority
			v.ProjectID = task.ProjectID
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].ElapsedSeconds != views[j].ElapsedSeconds {
			return views[i].ElapsedSeconds > views[j].ElapsedSeconds
		}
		return views[i].UserID < views[j].UserID
	})
	return views, nil
}

// lookupTasks fetches task attributes for sessions. A directory failure only
// fails the call when a filter depends on the attributes.
func (s *activityService) lookupTasks(ctx context.Context, sessions []*domain.TimerSession, required bool) (map[string]*domain.Task, error) {
	if s.tasks == nil || len(sessions) == 0 {
		return map[string]*domain.Task{}, nil
	}
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.TaskID)
	}

	var tasks map[string]*domain.Task
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		var err error
		tasks, err = s.tasks.LookupMany(ctx, ids)
		return err
	})
	if err != nil {
		if required {
			return nil, fmt.Errorf("looking up tasks: %w", err)
		}
		return map[string]*domain.Task{}, nil
	}
	return tasks, nil
}

func matchesTask(t *domain.Task, f app.ActiveFilter) bool {
	if t == nil {
		return false
	}
	if f.TaskType != "" && t.Type != f.TaskType {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	return true
}
