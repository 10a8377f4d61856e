package wizard

import (
	"errors"
	"testing"

	"github.com/strumhq/strum/internal/core"
	apperrors "github.com/strumhq/strum/internal/errors"
)

func TestChooseTrackSingleMatch(t *testing.T) {
	want := core.Track{ID: "only", Title: "Only One", Locator: "/m/only.mp3"}

	got, err := ChooseTrack([]core.Track{want}, "only")
	if err != nil {
		t.Fatalf("ChooseTrack() error = %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("ChooseTrack() = %v, want %v", got, want)
	}
}

func TestChooseTrackNoMatches(t *testing.T) {
	if _, err := ChooseTrack(nil, "anything"); !errors.Is(err, apperrors.ErrTrackNotFound) {
		t.Errorf("ChooseTrack(none) error = %v, want ErrTrackNotFound", err)
	}
}

func TestChooseTrackNonInteractiveTakesFirst(t *testing.T) {
	// Test binaries run without a terminal on stdout, so the prompt is
	// skipped and the first match wins.
	if IsTerminal() {
		t.Skip("stdout is a terminal")
	}

	matches := []core.Track{
		{ID: "first", Title: "First", Locator: "/m/1.mp3"},
		{ID: "second", Title: "Second", Locator: "/m/2.mp3"},
	}

	got, err := ChooseTrack(matches, "ambiguous")
	if err != nil {
		t.Fatalf("ChooseTrack() error = %v", err)
	}
	if got.ID != "first" {
		t.Errorf("ChooseTrack() = %v, want first match", got)
	}
}
