package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/tui/styles"
)

// NowPlaying displays the current track and transport position.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component.
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel.
func (n *NowPlaying) Render(snap *core.Snapshot, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if snap == nil || !snap.HasTrack() {
		content = styles.Muted.Render("Nothing playing. Press / to find a track.")
	} else {
		content = n.renderTrack(snap, width-4)
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

func (n *NowPlaying) renderTrack(snap *core.Snapshot, width int) string {
	track := snap.Track

	icon := styles.StatusIcon(snap.State)
	titleStyle := styles.Title.Width(width - 4)
	title := titleStyle.Render(track.Title)

	artist := styles.Subtitle.Render(track.Artist)
	album := styles.Dim.Render(track.Album)

	// Times on either side of the bar
	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	progressBar := styles.ProgressBar(snap.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		FormatDuration(snap.Position),
		progressBar,
		FormatDuration(snap.Duration))

	session := fmt.Sprintf("🔊 %d%%  %s",
		snap.Volume,
		styles.ModeIndicator(snap.Shuffle, snap.Repeat))

	lines := []string{
		icon + " " + title,
		"  " + artist,
		"  " + album,
		"",
		progress,
		"",
		styles.Muted.Render(session),
	}

	if snap.Err != nil {
		lines = append(lines, styles.ErrText.Render("! "+snap.Err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatDuration renders a duration as m:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
