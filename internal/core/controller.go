package core

import "time"

// Controller is the single entry point for driving playback. Commands
// never return errors: anything that can go wrong mid-flight is
// resolved into a state transition, and the resulting Snapshot carries
// an advisory Err for surfaces that want to explain it. Call sites
// therefore fire commands and watch snapshots.
type Controller interface {
	// Playback control
	Play(track Track)
	TogglePlay()
	Next()
	Previous()
	Seek(to time.Duration)

	// Volume and modes
	SetVolume(level int)
	ToggleShuffle() bool
	CycleRepeat() RepeatMode

	// Queue manipulation
	Enqueue(track Track)
	EnqueueAll(tracks []Track)
	Remove(trackID string)
	ClearQueue()
	ReplaceQueue(tracks []Track, startIndex int)

	// State
	Snapshot() Snapshot
	Subscribe() <-chan Snapshot
	Unsubscribe(ch <-chan Snapshot)

	Close() error
}
