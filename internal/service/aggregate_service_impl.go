package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/repository"
)

type aggregateService struct {
	logs     repository.TimeLogRepo
	tasks    app.TaskDirectory
	cfg      ReportConfig
	observer UseCaseObserver
}

func NewAggregateService(logs repository.TimeLogRepo, tasks app.TaskDirectory, cfg ReportConfig, observers ...UseCaseObserver) AggregateService {
	return &aggregateService{
		logs:     logs,
		tasks:    tasks,
		cfg:      cfg.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *aggregateService) Aggregate(ctx context.Context, req app.ReportRequest) (snap *aggregate.Snapshot, err error) {
	startedAt := time.Now()
	fields := map[string]any{"range": req.Range, "member_id": req.MemberID, "project_id": req.ProjectID}
	defer func() {
		if snap != nil {
			fields["log_count"] = snap.LogCount
			fields["member_count"] = len(snap.Members)
		}
		observeUseCase(ctx, s.observer, "aggregate", startedAt, fields, err)
	}()

	rng, err := resolveReportRange(req, s.cfg)
	if err != nil {
		return nil, err
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	opts := aggregate.Options{ReferenceSecondsPerTask: s.cfg.ReferenceSecondsPerTask}
	if opts.ReferenceSecondsPerTask <= 0 {
		return nil, fmt.Errorf("reference seconds per task must be positive: %w", domain.ErrInvalidArgument)
	}

	scope, err := resolveScope(ctx, req, s.tasks, s.cfg.Store)
	if err != nil {
		return nil, err
	}

	var logs []*domain.TimeLog
	err = storeCall(ctx, s.cfg.Store, func(ctx context.Context) error {
		var err error
		logs, err = s.logs.List(ctx, logFilter(rng, scope))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing time logs: %w", err)
	}

	completed, err := s.completedTaskIDs(ctx, rng)
	if err != nil {
		return nil, err
	}

	return aggregate.Compute(logs, completed, rng, scope, opts)
}

func (s *aggregateService) completedTaskIDs(ctx context.Context, rng domain.TimeRange) ([]string, error) {
	if s.tasks == nil {
		return nil, nil
	}
	var tasks []*domain.Task
	err := storeCall(ctx, s.cfg.Store, func(ctx context.Context) error {
		var err error
		tasks, err = s.tasks.ListCompletedBetween(ctx, rng.Start, rng.End)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing completed tasks: %w", err)
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func logFilter(rng domain.TimeRange, scope aggregate.Scope) repository.TimeLogFilter {
	return repository.TimeLogFilter{
		Start:   rng.Start,
		End:     rng.End,
		UserID:  scope.MemberID,
		TaskID:  scope.TaskID,
		TaskIDs: scope.TaskIDs,
	}
}
