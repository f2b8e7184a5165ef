package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#58a6ff")).
			MarginBottom(1)

	labelStyle   = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("#8b949e"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")).Italic(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#238636"))

	disabledButtonStyle = buttonStyle.
				Background(lipgloss.Color("#21262d")).
				Foreground(lipgloss.Color("#8b949e"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#30363d")).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f85149")).
			Padding(1, 3)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// copyButton paints the copy control in its current look.
func copyButton(label, background string) string {
	return buttonStyle.Background(lipgloss.Color(background)).Render(label)
}
