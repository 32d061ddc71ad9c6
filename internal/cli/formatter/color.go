package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateIndicator returns a colored session state marker such as "● RUNNING".
func StateIndicator(state domain.SessionState) string {
	switch state {
	case domain.SessionRunning:
		return StyleGreen.Render("● RUNNING")
	case domain.SessionPaused:
		return StyleYellow.Render("○ PAUSED")
	case domain.SessionClosed:
		return StyleDim.Render("✔ CLOSED")
	default:
		return StyleDim.Render(string(state))
	}
}

// PriorityBadge colors a task priority by urgency.
func PriorityBadge(p domain.TaskPriority) string {
	switch p {
	case domain.PriorityUrgent:
		return StyleRed.Render("urgent")
	case domain.PriorityHigh:
		return StyleYellow.Render("high")
	case domain.PriorityMedium:
		return StyleFg.Render("medium")
	case domain.PriorityLow:
		return StyleDim.Render("low")
	case "":
		return Dim("--")
	default:
		return StyleDim.Render(string(p))
	}
}

// TaskStatusPill returns a colored status indicator for a directory task.
func TaskStatusPill(status domain.TaskStatus) string {
	switch status {
	case domain.TaskTodo:
		return StyleBlue.Render("○ Todo")
	case domain.TaskInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.TaskDone:
		return StyleDim.Render("✔ Done")
	case domain.TaskCancelled:
		return StyleDim.Render("✖ Cancelled")
	default:
		return StyleDim.Render(string(status))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
