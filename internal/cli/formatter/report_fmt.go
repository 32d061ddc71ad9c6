package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timekeep/internal/aggregate"
)

const ratioBarWidth = 10

// FormatSnapshot renders an aggregate snapshot as totals followed by the
// ranked member table.
func FormatSnapshot(snap *aggregate.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", Dim(HumanRange(snap.Start, snap.End)))
	if scope := describeScope(snap.Scope); scope != "" {
		fmt.Fprintf(&b, "%s\n", Dim(scope))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s (%s)\n", Dim("Total:   "), Bold(FormatSeconds(snap.TotalSeconds)), FormatHours(snap.TotalSeconds))
	fmt.Fprintf(&b, "%s %s %s\n", Dim("Billable:"), FormatSeconds(snap.BillableSeconds), RenderProgress(snap.BillableRatio(), ratioBarWidth))
	fmt.Fprintf(&b, "%s %d\n", Dim("Tasks:   "), snap.TasksCompletedCount)
	fmt.Fprintf(&b, "%s %s\n", Dim("Per task:"), FormatSeconds(snap.AvgSecondsPerTask))
	fmt.Fprintf(&b, "%s %d\n", Dim("Logs:    "), snap.LogCount)

	if len(snap.Members) > 0 {
		b.WriteString("\n")
		headers := []string{"#", "MEMBER", "TOTAL", "BILLABLE", "TASKS", "PER TASK", "EFFICIENCY", "MEDIAN LOG"}
		rows := make([][]string, 0, len(snap.Members))
		for i, m := range snap.Members {
			rows = append(rows, []string{
				Dim(fmt.Sprintf("%d", i+1)),
				Bold(m.UserID),
				FormatSeconds(m.TotalSeconds),
				FormatSeconds(m.BillableSeconds),
				fmt.Sprintf("%d", m.TasksCompletedCount),
				FormatSeconds(m.AvgSecondsPerTask),
				efficiency(m.EfficiencyScore),
				FormatSeconds(int64(m.MedianLogSeconds)),
			})
		}
		b.WriteString(Table{Headers: headers, Rows: rows, Right: []int{0, 2, 3, 4, 5, 6, 7}}.Render())
	}

	return RenderBox("Report", strings.TrimRight(b.String(), "\n"))
}

func describeScope(s aggregate.Scope) string {
	var parts []string
	if s.MemberID != "" {
		parts = append(parts, "member "+s.MemberID)
	}
	if s.TaskID != "" {
		parts = append(parts, "task "+s.TaskID)
	}
	if s.ProjectID != "" {
		parts = append(parts, "project "+s.ProjectID)
	}
	return strings.Join(parts, ", ")
}

// efficiency colors a score against the reference rate of 1.0.
func efficiency(score float64) string {
	text := fmt.Sprintf("%.2f", score)
	switch {
	case score == 0:
		return Dim(text)
	case score >= 1:
		return StyleGreen.Render(text)
	case score >= 0.5:
		return StyleYellow.Render(text)
	default:
		return StyleRed.Render(text)
	}
}
