package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary = lipgloss.Color("#f472b6")
	green   = lipgloss.Color("#10B981")
	amber   = lipgloss.Color("#F59E0B")
	red     = lipgloss.Color("#EF4444")
	gray    = lipgloss.Color("#6B7280")

	// ProgressStart and ProgressEnd are the ends of the download bar gradient.
	ProgressStart = "#f472b6"
	ProgressEnd   = "#a855f7"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(gray)
	SuccessStyle = BoldStyle.Foreground(green)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)

	errorStyle   = BoldStyle.Foreground(red)
	warningStyle = lipgloss.NewStyle().Foreground(amber)

	TableHeaderStyle = BoldStyle.Foreground(Primary).Align(lipgloss.Center)
	TableRowStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("255"))
	TableRowAltStyle = TableRowStyle.Foreground(lipgloss.Color("245"))
)

const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconCopy    = "📋"
	IconWeb     = "🌐"
	IconVideo   = "🎬"
	IconHost    = "👑"
	IconPeer    = "👤"
	IconPlay    = "▶"
	IconPause   = "⏸"
	IconWatch   = "🍿"
)

func PrintError(msg string) {
	fmt.Println(errorStyle.Render(IconError + " " + msg))
}

func PrintWarning(msg string) {
	fmt.Println(warningStyle.Render(IconWarning + " " + msg))
}

func PrintSuccess(msg string) {
	fmt.Println(SuccessStyle.Render(IconSuccess), msg)
}
