// Package queue maintains the upcoming-track list and the selection
// rules for moving through it.
package queue

import (
	"math/rand/v2"

	"github.com/strumhq/strum/internal/core"
)

// Queue is an ordered list of tracks, unique by ID. It is not safe for
// concurrent use; the engine serializes access to it.
type Queue struct {
	tracks []core.Track
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Tracks returns a copy of the queued tracks in order.
func (q *Queue) Tracks() []core.Track {
	out := make([]core.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// IndexOf returns the position of a track, or -1 when absent.
func (q *Queue) IndexOf(trackID string) int {
	for i, t := range q.tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// Enqueue appends a track. Adding an ID that is already queued is a
// no-op; it reports whether the queue changed.
func (q *Queue) Enqueue(t core.Track) bool {
	if q.IndexOf(t.ID) >= 0 {
		return false
	}
	q.tracks = append(q.tracks, t)
	return true
}

// EnqueueAll appends tracks in order, skipping IDs already queued. It
// returns how many were added.
func (q *Queue) EnqueueAll(tracks []core.Track) int {
	added := 0
	for _, t := range tracks {
		if q.Enqueue(t) {
			added++
		}
	}
	return added
}

// Remove deletes a track by ID; it reports whether the queue changed.
func (q *Queue) Remove(trackID string) bool {
	i := q.IndexOf(trackID)
	if i < 0 {
		return false
	}
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
	return true
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.tracks = nil
}

// Replace swaps the whole queue for the given tracks, keeping the
// first occurrence of each ID.
func (q *Queue) Replace(tracks []core.Track) {
	q.tracks = nil
	for _, t := range tracks {
		q.Enqueue(t)
	}
}

// Next picks the track that follows current under the active modes.
// ok=false means the queue is exhausted. A nil rng falls back to the
// shared source.
//
// Shuffle picks uniformly from the whole queue and may legitimately
// land on the current track again. Sequential selection steps to the
// following index; a current track that is no longer queued resolves
// to the head of the queue.
func (q *Queue) Next(currentID string, shuffle bool, repeat core.RepeatMode, rng *rand.Rand) (core.Track, bool) {
	if len(q.tracks) == 0 {
		return core.Track{}, false
	}

	if shuffle {
		if rng != nil {
			return q.tracks[rng.IntN(len(q.tracks))], true
		}
		return q.tracks[rand.IntN(len(q.tracks))], true
	}

	next := q.IndexOf(currentID) + 1
	if next < len(q.tracks) {
		return q.tracks[next], true
	}
	if repeat == core.RepeatAll {
		return q.tracks[0], true
	}
	return core.Track{}, false
}

// Prev picks the track before current in queue order. ok=false means
// there is nothing before it (first in queue, or not queued at all);
// the caller restarts the current track in that case.
func (q *Queue) Prev(currentID string) (core.Track, bool) {
	i := q.IndexOf(currentID)
	if i <= 0 {
		return core.Track{}, false
	}
	return q.tracks[i-1], true
}
