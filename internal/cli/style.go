package cli

import "github.com/charmbracelet/lipgloss"

const (
	iconCheck = "✓"
	iconArrow = "→"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	keyColumn    = lipgloss.NewStyle().Width(26)
)

func header(text string) string  { return headerStyle.Render(text) }
func success(text string) string { return successStyle.Render(text) }
func warning(text string) string { return warningStyle.Render(text) }
func muted(text string) string   { return mutedStyle.Render(text) }
func keyword(text string) string { return keywordStyle.Render(text) }
func value(text string) string   { return valueStyle.Render(text) }
func column(text string) string  { return keyColumn.Render(text) }
