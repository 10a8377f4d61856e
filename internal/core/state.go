package core

import "time"

// TransportState describes what the playback engine is doing with the
// current track, if any.
type TransportState string

const (
	// StateEmpty means no track is loaded.
	StateEmpty TransportState = "empty"
	// StateLoading means a track is loaded but the output has not
	// confirmed a start yet.
	StateLoading TransportState = "loading"
	// StatePlaying means audio is audibly progressing.
	StatePlaying TransportState = "playing"
	// StatePaused means a track is loaded and halted, including the
	// case where the output refused to start.
	StatePaused TransportState = "paused"
	// StateAdvancing is the transient hop between a finished track and
	// the next one.
	StateAdvancing TransportState = "advancing"
)

// RepeatMode controls what happens when the current track finishes.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Cycle returns the next mode in the off -> all -> one -> off rotation.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode maps user input to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch RepeatMode(s) {
	case RepeatOff, RepeatAll, RepeatOne:
		return RepeatMode(s), true
	}
	return RepeatOff, false
}

// Snapshot is an immutable view of the whole playback session at one
// instant. Subscribers receive a fresh Snapshot after every observable
// change; the slices it carries are copies and safe to retain.
type Snapshot struct {
	Track    *Track         `json:"track"`
	State    TransportState `json:"state"`
	Position time.Duration  `json:"position"`
	Duration time.Duration  `json:"duration"`
	Volume   int            `json:"volume"`
	Shuffle  bool           `json:"shuffle"`
	Repeat   RepeatMode     `json:"repeat"`
	Queue    []Track        `json:"queue"`
	History  []Track        `json:"history"`
	// Err holds the most recent advisory failure, if any. It never
	// reflects a condition the engine did not already resolve into a
	// state above.
	Err error `json:"-"`
}

// HasTrack returns true if there is an active track.
func (s *Snapshot) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *Snapshot) ProgressPercent() float64 {
	if s == nil || s.Duration == 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration) * 100
}
