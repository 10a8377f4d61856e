// Package wizard provides interactive prompts for ambiguous commands.
package wizard

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/strumhq/strum/internal/core"
)

// maxPickerOptions keeps the select form scannable; huh's built-in
// filtering covers the rest.
const maxPickerOptions = 30

// PickTrack prompts the user to choose one track from matches.
func PickTrack(matches []core.Track, query string) (core.Track, error) {
	shown := matches
	if len(shown) > maxPickerOptions {
		shown = shown[:maxPickerOptions]
	}

	options := make([]huh.Option[string], 0, len(shown))
	for _, t := range shown {
		label := t.Display()
		if t.Album != "" {
			label = fmt.Sprintf("%s (%s)", label, t.Album)
		}
		options = append(options, huh.NewOption(label, t.ID))
	}

	title := fmt.Sprintf("%d tracks match %q", len(matches), query)
	description := "Pick the one to play"
	if len(matches) > len(shown) {
		description = fmt.Sprintf("Showing the first %d; refine the query to narrow down", len(shown))
	}

	var selectedID string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Description(description).
				Options(options...).
				Value(&selectedID),
		),
	)

	if err := form.Run(); err != nil {
		return core.Track{}, fmt.Errorf("selection cancelled: %w", err)
	}

	for _, t := range matches {
		if t.ID == selectedID {
			return t, nil
		}
	}
	return core.Track{}, fmt.Errorf("selection cancelled")
}
