package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Change styles
	ChangeAdded = lipgloss.NewStyle().
			Foreground(Secondary)

	ChangeModified = lipgloss.NewStyle().
			Foreground(Info)

	ChangeDeleted = lipgloss.NewStyle().
			Foreground(Warning)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	StatusKey = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Padding(0, 1).
			MarginRight(1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// ChangeStyle returns the style for a change type
func ChangeStyle(kind string) lipgloss.Style {
	switch kind {
	case "added":
		return ChangeAdded
	case "modified":
		return ChangeModified
	case "deleted":
		return ChangeDeleted
	default:
		return MutedText
	}
}
