package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/tui/styles"
)

// Queue displays the playback queue with a movable cursor.
type Queue struct {
	offset, cursor int
}

// NewQueue creates a new Queue component.
func NewQueue() *Queue {
	return &Queue{}
}

// CursorDown moves the cursor down one row.
func (q *Queue) CursorDown(count int) {
	if q.cursor < count-1 {
		q.cursor++
	}
}

// CursorUp moves the cursor up one row.
func (q *Queue) CursorUp() {
	if q.cursor > 0 {
		q.cursor--
	}
}

// Cursor returns the cursor index.
func (q *Queue) Cursor() int {
	return q.cursor
}

// Render renders the queue panel.
func (q *Queue) Render(tracks []core.Track, currentID string, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Queue (%d)", len(tracks)), focused)

	var content string
	if len(tracks) == 0 {
		content = styles.Muted.Render("Queue is empty")
	} else {
		content = q.renderTracks(tracks, currentID, width-4, height-4, focused)
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

func (q *Queue) renderTracks(tracks []core.Track, currentID string, width, maxLines int, focused bool) string {
	if q.cursor >= len(tracks) {
		q.cursor = len(tracks) - 1
	}

	visibleCount := maxLines - 1 // room for the "more" indicator
	if visibleCount < 1 {
		visibleCount = 1
	}

	// Keep the cursor in view
	if q.cursor < q.offset {
		q.offset = q.cursor
	}
	if q.cursor >= q.offset+visibleCount {
		q.offset = q.cursor - visibleCount + 1
	}

	start := q.offset
	end := start + visibleCount
	if end > len(tracks) {
		end = len(tracks)
	}

	lines := make([]string, 0, end-start+1)

	// "XX. " + marker + " — " between title and artist
	const overhead = 9

	for i := start; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%2d.", i+1)
		title, artist := fitColumns(track.Title, track.Artist, width-overhead)

		var line string
		switch {
		case track.ID == currentID:
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s — %s", num, title, artist))
		case focused && i == q.cursor:
			line = styles.Highlight.Render(fmt.Sprintf("%s ▸ %s — %s", num, title, artist))
		default:
			line = fmt.Sprintf("%s   %s — %s",
				styles.Dim.Render(num),
				title,
				styles.Muted.Render(artist))
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// fitColumns truncates a title and artist pair to the available width.
// The artist keeps at least a third of the space.
func fitColumns(title, artist string, available int) (string, string) {
	if len(title)+len(artist) <= available {
		return title, artist
	}

	minArtist := available / 3
	if minArtist < 10 {
		minArtist = 10
	}
	if minArtist > available-10 {
		minArtist = available - 10
	}

	artistSpace := minArtist
	if len(artist) < artistSpace {
		artistSpace = len(artist)
	}
	titleSpace := available - artistSpace

	return truncate(title, titleSpace), truncate(artist, artistSpace)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
