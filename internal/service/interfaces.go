package service

import (
	"context"

	"github.com/alexanderramin/timekeep/internal/app"
)

type TimerService interface {
	app.TimerUseCase
	// Restore reloads open and closed-pending sessions from the durable store
	// into the registry.
	Restore(ctx context.Context) (int, error)
	RegistrySyncer
}

// RegistrySyncer brings the in-memory registry up to date with sessions
// other processes wrote to the durable store.
type RegistrySyncer interface {
	Sync(ctx context.Context) error
}

type ActivityService interface {
	app.ActivityUseCase
}

type AggregateService interface {
	app.AggregateUseCase
}

type ExportService interface {
	app.ExportUseCase
}

type TaskService interface {
	app.TaskUseCase
}
