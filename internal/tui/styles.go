package tui

import "github.com/charmbracelet/lipgloss"

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("62")).
	Padding(0, 1)

var userLabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("62"))

var assistantLabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("36"))

var userBubbleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("62")).
	Padding(0, 1)

var assistantBubbleStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder(), true).
	BorderForeground(lipgloss.Color("240"))

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("244"))

var noticeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("214"))
