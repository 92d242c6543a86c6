package tui

import "github.com/charmbracelet/lipgloss"

var (
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	savedMarkerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	savingMarkerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166")).Italic(true)
	currentLineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	statusBarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	taglineStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#908caa")).Italic(true)
	popupBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	fieldErrorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true)
	tldrBoxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("81")).Padding(0, 1)
	folderSelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	logoStyle            = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6c177")).Padding(0, 1)
)

const heroTagline = "Search, save, and cite academic papers."

const logoArt = `  ▄▄▄▄  ▄▄▄  ▄▄▄▄  ▄▄▄▄
  █   █ █ █  █   █ █   █
  █▀▀▀  █▀█  █▀▀▀  █▀▀▄
  ▀     ▀ ▀  ▀     ▀  ▀▀`
