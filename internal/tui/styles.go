package tui

import "github.com/charmbracelet/lipgloss"

// Shared styles.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	LabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Bold(true)
	SubtleStyle = lipgloss.NewStyle().Faint(true)
	InfoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Status and approval colors.
var (
	PendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	InProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	CompletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	HighStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	LowStyle        = lipgloss.NewStyle().Faint(true)
)
