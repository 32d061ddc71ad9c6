package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/alexanderramin/timekeep/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newActiveCmd(a *App) *cobra.Command {
	var (
		filter   app.ActiveFilter
		priority string
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show who is tracking time right now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority != "" {
				if !domain.ValidTaskPriorities[priority] {
					return fmt.Errorf("unknown priority %q", priority)
				}
				filter.Priority = domain.TaskPriority(priority)
			}

			if watch {
				if !a.IsInteractive {
					return fmt.Errorf("--watch needs an interactive terminal")
				}
				m := newActiveModel(cmd.Context(), a.Activity, filter, a.now, interval)
				_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
				return err
			}

			views, err := a.Activity.ListActive(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatActiveSessions(views, a.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.TaskType, "type", "", "Only tasks of this type")
	cmd.Flags().StringVar(&priority, "priority", "", "Only tasks of this priority")
	cmd.Flags().StringVar(&filter.ProjectID, "project", "", "Only tasks of this project")
	cmd.Flags().StringVar(&filter.UserID, "member", "", "Only this member")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep the table open and refresh it")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Refresh interval for --watch")
	return cmd
}
