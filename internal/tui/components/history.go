package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/tui/styles"
)

// History displays the recently played list.
type History struct{}

// NewHistory creates a new History component.
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel.
func (h *History) Render(entries []history.Entry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("Nothing played yet")
	} else {
		content = h.renderEntries(entries, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderEntries(entries []history.Entry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		timeAgo := humanize.Time(entry.PlayedAt)

		// marker + spacing + right-aligned time
		available := width - 4 - len(timeAgo)
		title, artist := fitColumns(entry.Title, entry.Artist, available)

		trackInfo := fmt.Sprintf("%s — %s", title, artist)
		padding := width - 2 - len(title) - 3 - len(artist) - len(timeAgo)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%s%s",
			styles.Dim.Render("♪"),
			trackInfo,
			styles.Repeat(" ", padding),
			styles.Dim.Render(timeAgo))

		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
