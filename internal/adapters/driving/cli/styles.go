package cli

import "github.com/charmbracelet/lipgloss"

var (
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	keyStyle  = lipgloss.NewStyle().Bold(true)
)
