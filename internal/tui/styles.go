package tui

import "github.com/charmbracelet/lipgloss"

var (
	// GitHub-ish palette
	Primary  = lipgloss.Color("#58A6FF") // link blue
	Accent   = lipgloss.Color("#D2A8FF") // purple
	Success  = lipgloss.Color("#3FB950") // green
	ErrorCol = lipgloss.Color("#F85149") // red
	Text     = lipgloss.Color("#E6EDF3")
	Muted    = lipgloss.Color("#8B949E")

	HeaderStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(1, 1).
			MarginLeft(1)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(Muted).
			PaddingLeft(2).
			MarginBottom(1)

	CardStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Muted).
			MarginLeft(2).
			Width(72)

	InfoKeyStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(14)

	InfoValueStyle = lipgloss.NewStyle().
			Foreground(Text)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Primary)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorCol)

	FooterStyle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1).
			PaddingLeft(4).
			Faint(true)
)
