package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/repository"
	"github.com/google/uuid"
)

// StorePolicy bounds and retries durable-store calls.
type StorePolicy struct {
	Timeout        time.Duration
	Retries        int
	RetryBaseDelay time.Duration
}

// DefaultStorePolicy returns the policy used when no configuration is given.
func DefaultStorePolicy() StorePolicy {
	return StorePolicy{
		Timeout:        5 * time.Second,
		Retries:        3,
		RetryBaseDelay: 50 * time.Millisecond,
	}
}

func systemClock() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.New().String()
}

// callWithTimeout runs fn under its own deadline derived from ctx.
func callWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// storeCall runs fn under the policy timeout. Failures that may be transient
// are retried with exponential backoff; the final error is classified.
func storeCall(ctx context.Context, p StorePolicy, fn func(ctx context.Context) error) error {
	delay := p.RetryBaseDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = callWithTimeout(ctx, p.Timeout, fn)
		if err == nil || !isRetryable(ctx, err) || attempt >= p.Retries {
			break
		}
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return classifyStoreErr(err)
			case <-t.C:
			}
			delay *= 2
		}
	}
	return classifyStoreErr(err)
}

// isSemantic reports whether err is a definite answer from the store rather
// than an I/O failure.
func isSemantic(err error) bool {
	for _, target := range []error{
		repository.ErrNotFound,
		repository.ErrDuplicate,
		domain.ErrConflict,
		domain.ErrNotFound,
		domain.ErrInvalidState,
		domain.ErrInvalidRange,
		domain.ErrInvalidArgument,
		domain.ErrStoreUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !isSemantic(err)
}

// classifyStoreErr maps driver and timeout failures onto ErrStoreUnavailable
// and passes semantic errors through.
func classifyStoreErr(err error) error {
	if err == nil || isSemantic(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

// ReportConfig holds the settings shared by aggregation and export.
type ReportConfig struct {
	Clock                   func() time.Time
	Location                *time.Location
	ReferenceSecondsPerTask int64
	Store                   StorePolicy
}

// DefaultReportConfig returns UTC reporting with the default efficiency baseline.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Clock:                   systemClock,
		Location:                time.UTC,
		ReferenceSecondsPerTask: aggregate.DefaultReferenceSecondsPerTask,
		Store:                   DefaultStorePolicy(),
	}
}

func (c ReportConfig) withDefaults() ReportConfig {
	d := DefaultReportConfig()
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.Store == (StorePolicy{}) {
		c.Store = d.Store
	}
	return c
}

// resolveReportRange turns a shortcut or explicit bounds into a range.
func resolveReportRange(req app.ReportRequest, cfg ReportConfig) (domain.TimeRange, error) {
	if req.Range != "" {
		if req.From != "" || req.To != "" {
			return domain.TimeRange{}, fmt.Errorf("use either a range shortcut or from/to, not both: %w", domain.ErrInvalidRange)
		}
		now := cfg.Clock()
		if req.Now != nil {
			now = *req.Now
		}
		return aggregate.ResolveRange(req.Range, now, cfg.Location)
	}
	return aggregate.ParseRange(req.From, req.To, cfg.Location)
}

// resolveScope expands a project scope into its task set through the
// directory.
func resolveScope(ctx context.Context, req app.ReportRequest, tasks app.TaskDirectory, p StorePolicy) (aggregate.Scope, error) {
	scope := aggregate.Scope{MemberID: req.MemberID, TaskID: req.TaskID, ProjectID: req.ProjectID}
	if req.ProjectID == "" {
		return scope, nil
	}
	if tasks == nil {
		return scope, fmt.Errorf("project scope needs a task directory: %w", domain.ErrInvalidArgument)
	}
	var list []*domain.Task
	err := storeCall(ctx, p, func(ctx context.Context) error {
		var err error
		list, err = tasks.ListByProject(ctx, req.ProjectID)
		return err
	})
	if err != nil {
		return scope, fmt.Errorf("resolving project %s: %w", req.ProjectID, err)
	}
	scope.TaskIDs = make([]string, 0, len(list))
	for _, t := range list {
		scope.TaskIDs = append(scope.TaskIDs, t.ID)
	}
	return scope, nil
}
