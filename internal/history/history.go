// Package history keeps the recently-played list.
package history

import (
	"time"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/store"
)

// Capacity is the maximum number of remembered tracks. The oldest
// entry falls off once it is exceeded.
const Capacity = 20

// Entry is one recently-played record.
type Entry struct {
	core.Track
	PlayedAt time.Time `json:"played_at"`
}

// Tracker keeps the most-recent-first play history and persists it on
// every change. It is not safe for concurrent use; the engine
// serializes access to it.
type Tracker struct {
	st      *store.Store
	entries []Entry
}

// New creates a tracker, restoring whatever history the store holds.
// A missing or damaged record restores as empty.
func New(st *store.Store) *Tracker {
	t := &Tracker{st: st}
	st.GetJSON(store.KeyRecentlyPlayed, &t.entries)
	if len(t.entries) > Capacity {
		t.entries = t.entries[:Capacity]
	}
	return t
}

// Record notes that a track was asked to play. A track already present
// moves to the front instead of duplicating; the list is trimmed to
// Capacity. The updated list is persisted before returning; the
// returned error is advisory and the in-memory list is updated
// regardless.
func (t *Tracker) Record(track core.Track) error {
	for i, e := range t.entries {
		if e.ID == track.ID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}

	entry := Entry{Track: track, PlayedAt: time.Now()}
	t.entries = append([]Entry{entry}, t.entries...)
	if len(t.entries) > Capacity {
		t.entries = t.entries[:Capacity]
	}

	return t.st.SetJSON(store.KeyRecentlyPlayed, t.entries)
}

// Clear forgets the whole history, in memory and in the store.
func (t *Tracker) Clear() error {
	t.entries = nil
	return t.st.RemoveItem(store.KeyRecentlyPlayed)
}

// Len returns the number of remembered tracks.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the history, most recent first.
func (t *Tracker) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Tracks returns the remembered tracks without timestamps, most recent
// first.
func (t *Tracker) Tracks() []core.Track {
	out := make([]core.Track, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Track
	}
	return out
}
