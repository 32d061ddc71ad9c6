package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
)

// ActiveTable returns the headers and rows of the live activity table.
// The rows are plain text so a TUI table can size them.
func ActiveTable(views []app.ActiveSessionView) ([]string, [][]string) {
	headers := []string{"USER", "TASK", "STATE", "ELAPSED", "TYPE", "PRIORITY", "PROJECT"}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		task := v.TaskID
		if v.TaskTitle != "" {
			task = Truncate(v.TaskTitle, 32)
		}
		rows = append(rows, []string{
			v.UserID,
			task,
			string(v.State),
			FormatSeconds(v.ElapsedSeconds),
			v.TaskType,
			string(v.Priority),
			v.ProjectID,
		})
	}
	return headers, rows
}

// FormatActiveSessions renders the activity view as of now.
func FormatActiveSessions(views []app.ActiveSessionView, now time.Time) string {
	if len(views) == 0 {
		return RenderBox("Active timers", Dim("Nobody is tracking time right now."))
	}
	headers, rows := ActiveTable(views)
	for i, v := range views {
		rows[i][0] = Bold(rows[i][0])
		rows[i][2] = StateIndicator(v.State)
		rows[i][5] = PriorityBadge(v.Priority)
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("%d active · as of %s", len(views), now.Local().Format("15:04:05"))))
	return RenderBox("Active timers", b.String())
}
