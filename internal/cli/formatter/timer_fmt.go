package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// FormatSession renders one timer session with its elapsed time as of now.
func FormatSession(s *domain.TimerSession, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", StateIndicator(s.State), Bold(FormatSeconds(s.ElapsedSeconds(now))))
	fmt.Fprintf(&b, "%s %s\n", Dim("Session:"), s.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("Task:   "), s.TaskID)
	fmt.Fprintf(&b, "%s %s\n", Dim("Started:"), Clock(s.CreatedAt))
	if s.Description != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Note:   "), s.Description)
	}
	if s.IsPendingLog() {
		b.WriteString("\n" + StyleYellow.Render("Stopped, waiting for the store to accept the time log.") + "\n")
	}
	return RenderBox("Timer", strings.TrimRight(b.String(), "\n"))
}

// FormatTimeLog renders the time log produced by a stop.
func FormatTimeLog(l *domain.TimeLog) string {
	billable := StyleGreen.Render("billable")
	if !l.IsBillable {
		billable = Dim("non-billable")
	}
	line := fmt.Sprintf("Logged %s on %s (%s)", Bold(FormatSeconds(l.DurationSeconds)), l.TaskID, billable)
	if l.Description != "" {
		line += "\n" + Dim(l.Description)
	}
	return line + "\n"
}

// FormatTasks renders task directory rows.
func FormatTasks(tasks []*domain.Task) string {
	headers := []string{"ID", "TITLE", "TYPE", "PRIORITY", "PROJECT", "STATUS"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			Bold(Truncate(t.Title, 40)),
			t.Type,
			PriorityBadge(t.Priority),
			t.ProjectID,
			TaskStatusPill(t.Status),
		})
	}
	return RenderBox("Tasks", RenderTable(headers, rows))
}
