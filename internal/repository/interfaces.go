package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// TimeLogFilter scopes TimeLog range queries. Zero-valued fields are ignored.
// A log matches the range when Start <= start_time < End.
type TimeLogFilter struct {
	Start   time.Time
	End     time.Time
	UserID  string
	TaskID  string
	TaskIDs []string
}

// TaskFilter scopes task directory listings.
type TaskFilter struct {
	ProjectID string
	Status    domain.TaskStatus
}

type TimeLogRepo interface {
	Create(ctx context.Context, l *domain.TimeLog) error
	GetByID(ctx context.Context, id string) (*domain.TimeLog, error)
	GetBySession(ctx context.Context, sessionID string) (*domain.TimeLog, error)
	List(ctx context.Context, f TimeLogFilter) ([]*domain.TimeLog, error)
	Stream(ctx context.Context, f TimeLogFilter, fn func(*domain.TimeLog) error) error
}

type ActiveSessionRepo interface {
	Create(ctx context.Context, s *domain.TimerSession) error
	GetByID(ctx context.Context, id string) (*domain.TimerSession, error)
	GetByUser(ctx context.Context, userID string) (*domain.TimerSession, error)
	List(ctx context.Context) ([]*domain.TimerSession, error)
	Update(ctx context.Context, s *domain.TimerSession) error
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
}
