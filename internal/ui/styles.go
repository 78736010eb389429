package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#35d9b3")
	muted  = lipgloss.Color("#8a8a8a")
	alert  = lipgloss.Color("#e06c75")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle    = lipgloss.NewStyle().Foreground(muted)
	statusStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(alert)
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(muted)
	sectionStyle  = lipgloss.NewStyle().Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(muted)

	chipStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeChipStyle = chipStyle.Foreground(lipgloss.Color("#0c2924")).Background(accent)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(accent)
	cardTitleStyle    = lipgloss.NewStyle().Bold(true)
)
