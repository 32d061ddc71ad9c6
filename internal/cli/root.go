package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alexanderramin/timekeep/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Timer     service.TimerService
	Activity  service.ActivityService
	Aggregate service.AggregateService
	Export    service.ExportService
	Tasks     service.TaskService

	// UserID is the caller for timer commands unless --user is given.
	UserID string
	// IsInteractive enables huh forms and the live activity table.
	IsInteractive bool
	Clock         func() time.Time

	Server ServerConfig
	Logger *slog.Logger
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	ListenAddr    string
	FlushInterval time.Duration
}

func (a *App) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRootCmd creates the top-level "timekeep" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	// Flags bind to a copy; app itself is never mutated.
	a := *app

	root := &cobra.Command{
		Use:           "timekeep",
		Short:         "Work timers and time reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.UserID, "user", defaultUser(app.UserID), "User the command acts for")

	root.AddCommand(
		newTimerCmd(&a),
		newActiveCmd(&a),
		newReportCmd(&a),
		newExportCmd(&a),
		newTaskCmd(&a),
		newServeCmd(&a),
	)

	return root
}

func defaultUser(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("USER")
}
