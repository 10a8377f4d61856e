package engine

import (
	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/store"
)

// SetVolume applies a 0-100 level, clamping out-of-range requests. On
// pointer hosts the level is persisted; on touch hosts the OS owns the
// real level, so nothing is written.
func (e *Engine) SetVolume(level int) {
	level = clampVolume(level)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.volume = level
	e.out.SetVolume(level)
	if !e.profile.TouchCapable {
		e.persistLocked(store.KeyVolume, level)
	}
	e.publishLocked()
}

// ToggleShuffle flips shuffle and returns the new value.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.shuffle = !e.shuffle
	e.persistLocked(store.KeyShuffle, e.shuffle)
	e.publishLocked()
	return e.shuffle
}

// CycleRepeat rotates off -> all -> one -> off and returns the new
// mode.
func (e *Engine) CycleRepeat() core.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.repeat = e.repeat.Cycle()
	e.persistLocked(store.KeyRepeat, string(e.repeat))
	e.publishLocked()
	return e.repeat
}

// SetRepeat sets an explicit repeat mode.
func (e *Engine) SetRepeat(mode core.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.repeat = mode
	e.persistLocked(store.KeyRepeat, string(e.repeat))
	e.publishLocked()
}

// SetShuffle sets an explicit shuffle value.
func (e *Engine) SetShuffle(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.shuffle = on
	e.persistLocked(store.KeyShuffle, e.shuffle)
	e.publishLocked()
}

// Enqueue appends a track to the queue. Duplicates by ID are dropped
// silently; nothing about the current playback changes.
func (e *Engine) Enqueue(t core.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	if e.q.Enqueue(t) {
		e.persistLocked(store.KeyQueue, e.q.Tracks())
	}
	e.publishLocked()
}

// EnqueueAll appends tracks in order, dropping IDs already queued.
func (e *Engine) EnqueueAll(tracks []core.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	if e.q.EnqueueAll(tracks) > 0 {
		e.persistLocked(store.KeyQueue, e.q.Tracks())
	}
	e.publishLocked()
}

// Remove deletes a track from the queue. The current track keeps
// playing even when it is the one removed; it just will not come up
// again.
func (e *Engine) Remove(trackID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	if e.q.Remove(trackID) {
		e.persistLocked(store.KeyQueue, e.q.Tracks())
	}
	e.publishLocked()
}

// ClearQueue empties the queue without touching current playback.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.q.Clear()
	e.persistLocked(store.KeyQueue, e.q.Tracks())
	e.publishLocked()
}

// ReplaceQueue atomically swaps the queue for the given tracks and
// starts playback at startIndex. An out-of-range index starts at the
// head; an empty track list just clears the queue.
func (e *Engine) ReplaceQueue(tracks []core.Track, startIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.q.Replace(tracks)
	e.persistLocked(store.KeyQueue, e.q.Tracks())

	if len(tracks) == 0 {
		e.publishLocked()
		return
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}
	e.playLocked(tracks[startIndex])
	e.publishLocked()
}
