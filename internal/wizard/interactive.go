package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/strumhq/strum/internal/core"
	apperrors "github.com/strumhq/strum/internal/errors"
)

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ChooseTrack resolves a multi-match query result to a single track.
// With a terminal attached it prompts; otherwise the first match wins,
// which keeps scripted use deterministic.
func ChooseTrack(matches []core.Track, query string) (core.Track, error) {
	if len(matches) == 0 {
		return core.Track{}, apperrors.ErrTrackNotFound
	}
	if len(matches) == 1 || !IsTerminal() {
		return matches[0], nil
	}
	return PickTrack(matches, query)
}
