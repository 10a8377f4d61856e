// Package audio adapts the host audio device behind a small Output
// interface. The real implementation streams through the beep speaker;
// tests substitute a mock. Outputs are asynchronous: commands return
// quickly and progress arrives as generation-stamped events.
package audio

import "time"

// EventKind discriminates output events.
type EventKind int

const (
	// EventTime reports playback position progress.
	EventTime EventKind = iota
	// EventMetadata reports that the source was decoded and its
	// duration is known.
	EventMetadata
	// EventEnded reports natural end of the current source.
	EventEnded
	// EventError reports an asynchronous media failure.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTime:
		return "time"
	case EventMetadata:
		return "metadata"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is an asynchronous notification from the output. Gen carries
// the load generation the event belongs to; consumers drop events whose
// generation is not the one they last loaded.
type Event struct {
	Kind     EventKind
	Position time.Duration // EventTime
	Duration time.Duration // EventMetadata
	Err      error         // EventError
	Gen      uint64
}

// Output is a single-source audio sink. Load replaces the source and
// bumps the generation; Start, Pause and SetPosition act on the loaded
// source. Implementations are safe for concurrent use.
type Output interface {
	// Load replaces the current source with the media behind locator
	// and returns the new generation. It never starts playback.
	Load(locator string) (uint64, error)

	// Start begins or resumes playback of the loaded source. It
	// returns ErrPlaybackBlocked when the device is not willing to
	// produce audio yet; the source stays loaded in that case.
	Start() error

	// Pause halts playback, keeping the source and its position.
	Pause()

	// SetPosition moves the play head. Implementations clamp to the
	// valid range of the source.
	SetPosition(to time.Duration)

	Position() time.Duration
	Duration() time.Duration

	// SetVolume applies a 0-100 level through the active volume
	// strategy. On touch-capable hosts this has no effect until
	// EnsureGraph has attached the gain stage.
	SetVolume(level int)

	// EnsureGraph performs the user-gesture-bound device unlock and,
	// on touch-capable hosts, attaches the gain stage to the chain.
	// It must only be called from inside a command the user issued.
	// Idempotent; a no-op on pointer hosts.
	EnsureGraph() error

	// Events returns the stream of asynchronous notifications. The
	// channel is never closed; after Close no further events arrive.
	Events() <-chan Event

	Close() error
}
