// Package watch turns the engine's snapshot stream into discrete
// playback events suitable for logging or following from a terminal.
package watch

import (
	"context"
	"time"

	"github.com/strumhq/strum/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventStop
	EventVolumeChange
	EventModeChange
	EventQueueChange
)

// completionThreshold separates a natural finish from a skip: a track
// that left the deck past this share of its duration counted as played.
const completionThreshold = 0.95

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.Snapshot
	Current   *core.Snapshot
}

// Watcher diffs successive snapshots and emits events.
type Watcher struct {
	snapshots <-chan core.Snapshot
	events    chan Event
	done      chan struct{}
}

// NewWatcher creates a watcher over a snapshot subscription.
func NewWatcher(snapshots <-chan core.Snapshot) *Watcher {
	return &Watcher{
		snapshots: snapshots,
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start consumes snapshots until ctx is cancelled or the subscription
// closes.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	var prev *core.Snapshot

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case snap, ok := <-w.snapshots:
			if !ok {
				return nil
			}

			curr := &snap
			for _, e := range diffSnapshots(prev, curr) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffSnapshots compares two snapshots and returns detected events.
func diffSnapshots(prev, curr *core.Snapshot) []Event {
	if curr == nil {
		return nil
	}

	now := time.Now()
	var events []Event

	// First snapshot, nothing to diff against
	if prev == nil {
		if curr.HasTrack() {
			events = append(events, Event{
				Type:      EventTrackChange,
				Timestamp: now,
				Current:   curr,
			})
		}
		return events
	}

	if trackChanged(prev, curr) {
		eventType := EventTrackChange

		if prev.HasTrack() && !curr.HasTrack() {
			eventType = EventStop
		} else if prev.HasTrack() && wasCompleted(prev) {
			eventType = EventTrackComplete
		} else if prev.HasTrack() {
			eventType = EventTrackSkip
		}

		events = append(events, Event{
			Type:      eventType,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})

		// A completion or skip is immediately followed by the next
		// track starting, which deserves its own line.
		if (eventType == EventTrackComplete || eventType == EventTrackSkip) && curr.HasTrack() {
			events = append(events, Event{
				Type:      EventTrackChange,
				Timestamp: now,
				Previous:  prev,
				Current:   curr,
			})
		}
	} else {
		// Pause and resume only make sense while the track is stable;
		// loading and advancing states fire no events.
		switch {
		case prev.State == core.StatePlaying && curr.State == core.StatePaused:
			events = append(events, Event{
				Type:      EventPause,
				Timestamp: now,
				Previous:  prev,
				Current:   curr,
			})
		case prev.State == core.StatePaused && curr.State == core.StatePlaying:
			events = append(events, Event{
				Type:      EventResume,
				Timestamp: now,
				Previous:  prev,
				Current:   curr,
			})
		}
	}

	if prev.Volume != curr.Volume {
		events = append(events, Event{
			Type:      EventVolumeChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.Shuffle != curr.Shuffle || prev.Repeat != curr.Repeat {
		events = append(events, Event{
			Type:      EventModeChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if queueChanged(prev, curr) {
		events = append(events, Event{
			Type:      EventQueueChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	return events
}

// queueChanged returns true if the queue contents changed.
func queueChanged(prev, curr *core.Snapshot) bool {
	if len(prev.Queue) != len(curr.Queue) {
		return true
	}
	for i := range curr.Queue {
		if prev.Queue[i].ID != curr.Queue[i].ID {
			return true
		}
	}
	return false
}

// trackChanged returns true if the active track changed.
func trackChanged(prev, curr *core.Snapshot) bool {
	if prev.Track == nil && curr.Track == nil {
		return false
	}
	if prev.Track == nil || curr.Track == nil {
		return true
	}
	return prev.Track.ID != curr.Track.ID
}

// wasCompleted returns true if the track likely finished naturally.
func wasCompleted(snap *core.Snapshot) bool {
	if snap.Track == nil || snap.Duration == 0 {
		return false
	}
	threshold := float64(snap.Duration) * completionThreshold
	return float64(snap.Position) >= threshold
}
