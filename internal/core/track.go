package core

import "time"

// Track represents a playable audio track.
type Track struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Artwork  string        `json:"artwork,omitempty"`
	Locator  string        `json:"locator"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Playable returns true if the track carries enough information to be
// loaded into an output. Tracks without a locator are rejected before
// any device call is made.
func (t Track) Playable() bool {
	return t.ID != "" && t.Locator != ""
}

// Display returns a human-readable "Artist - Title" label, falling back
// to whichever fields are present.
func (t Track) Display() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return t.Locator
	}
}
