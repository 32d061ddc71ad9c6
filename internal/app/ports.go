package app

import (
	"context"
	"io"
	"time"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/domain"
)

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// Identity resolves the caller of an inbound request.
type Identity interface {
	Resolve(ctx context.Context) (Caller, error)
}

// TaskDirectory is the read side of the external task system.
type TaskDirectory interface {
	Lookup(ctx context.Context, taskID string) (*domain.Task, error)
	LookupMany(ctx context.Context, taskIDs []string) (map[string]*domain.Task, error)
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
}

type TimerUseCase interface {
	Start(ctx context.Context, req StartRequest) (*domain.TimerSession, error)
	Pause(ctx context.Context, sessionID, userID string) (*domain.TimerSession, error)
	Resume(ctx context.Context, sessionID, userID string) (*domain.TimerSession, error)
	Stop(ctx context.Context, req StopRequest) (*domain.TimeLog, error)
	ForceStop(ctx context.Context, req StopRequest) (*domain.TimeLog, error)
	Current(ctx context.Context, userID string) (*domain.TimerSession, error)
	FlushPending(ctx context.Context) (FlushResult, error)
}

type ActivityUseCase interface {
	ListActive(ctx context.Context, f ActiveFilter) ([]ActiveSessionView, error)
}

type AggregateUseCase interface {
	Aggregate(ctx context.Context, req ReportRequest) (*aggregate.Snapshot, error)
}

type ExportUseCase interface {
	Export(ctx context.Context, w io.Writer, req ExportRequest) (*ExportResult, error)
}

type TaskUseCase interface {
	TaskDirectory
	Add(ctx context.Context, t *domain.Task) error
	List(ctx context.Context, projectID string, status domain.TaskStatus) ([]*domain.Task, error)
	MarkDone(ctx context.Context, taskID string) (*domain.Task, error)
}
