package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette("#FF0000", "#626262")

// palette holds the few [lipgloss.Style] values the leaderboard needs:
// errors and the help footer.
type palette struct {
	err  lipgloss.Style
	help lipgloss.Style
}

func newPalette(errColor, help string) *palette {
	return &palette{
		err:  foreground(errColor).Bold(true),
		help: foreground(help).Italic(true),
	}
}

func foreground(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}
