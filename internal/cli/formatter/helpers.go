package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatSeconds renders a whole-second duration as "1h 02m 03s", dropping
// leading zero units.
func FormatSeconds(sec int64) string {
	if sec <= 0 {
		return "0s"
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatHours renders seconds as decimal hours, e.g. "7.50h".
func FormatHours(sec int64) string {
	return fmt.Sprintf("%.2fh", float64(sec)/3600)
}

// Clock renders t as a local wall-clock timestamp.
func Clock(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// HumanRange renders a half-open range with an inclusive end date when it
// covers whole days.
func HumanRange(start, end time.Time) string {
	if isMidnight(start) && isMidnight(end) {
		last := end.AddDate(0, 0, -1)
		if last.Equal(start) {
			return start.Format("Mon Jan 2, 2006")
		}
		return start.Format("Jan 2") + " – " + last.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2 15:04") + " – " + end.Format("Jan 2 15:04, 2006")
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// Truncate shortens s to at most n visible runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}
