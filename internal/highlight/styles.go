package highlight

import "github.com/charmbracelet/lipgloss"

// Token colors, assigned to lexer ids in the order they are registered.
var colors = []lipgloss.AdaptiveColor{
	{Light: "#7D56F4", Dark: "#B19CD9"}, // purple
	{Light: "#2E7D32", Dark: "#73F59F"}, // green
	{Light: "#C2185B", Dark: "#FF8FB1"}, // pink
	{Light: "#0277BD", Dark: "#54C7EC"}, // blue
	{Light: "#EF6C00", Dark: "#FFB86C"}, // orange
	{Light: "#00838F", Dark: "#8BE9FD"}, // cyan
}

var (
	// KeywordStyle is used for lexers registered as keywords.
	KeywordStyle = lipgloss.NewStyle().Bold(true)

	// NoiseStyle renders text that no named lexer matched.
	NoiseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#6C6C6C"})

	// DefaultStyle for ids without an assigned color.
	DefaultStyle = lipgloss.NewStyle()
)
