package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/store"
)

// reloadDelay coalesces the burst of file writes a single command
// produces into one reload.
const reloadDelay = 200 * time.Millisecond

// Follower reconstructs playback events from the persisted session
// files, so a second process can follow what the player does. Only
// what the files record is visible: track starts, volume, modes, and
// the queue. Play and pause are not.
type Follower struct {
	st     *store.Store
	events chan Event
	done   chan struct{}
}

// NewFollower creates a follower over the given session store.
func NewFollower(st *store.Store) *Follower {
	return &Follower{
		st:     st,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of reconstructed events.
func (f *Follower) Events() <-chan Event {
	return f.events
}

// Stop stops the follower.
func (f *Follower) Stop() {
	close(f.done)
}

// Start watches the session files until ctx is cancelled.
func (f *Follower) Start(ctx context.Context) error {
	defer close(f.events)

	// The player creates the directory lazily; make sure it exists so
	// the watch can attach before the first write.
	if err := os.MkdirAll(f.st.Dir(), 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.st.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", f.st.Dir(), err)
	}

	reload := make(chan struct{}, 1)

	var debounceMu sync.Mutex
	var debounceTimer *time.Timer

	trigger := func() {
		debounceMu.Lock()
		defer debounceMu.Unlock()

		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(reloadDelay, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
	}

	prev := f.readSession()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err // transient; next event still triggers a reload

		case <-reload:
			curr := f.readSession()
			for _, e := range f.diffSession(prev, curr) {
				select {
				case f.events <- e:
				default:
				}
			}
			prev = curr
		}
	}
}

// readSession assembles a snapshot from the persisted fields. The
// transport state is unknowable from files and stays empty.
func (f *Follower) readSession() *core.Snapshot {
	snap := &core.Snapshot{
		State:   core.StateEmpty,
		Volume:  f.st.GetInt(store.KeyVolume, 70),
		Shuffle: f.st.GetBool(store.KeyShuffle, false),
	}

	mode, _ := core.ParseRepeatMode(f.st.GetString(store.KeyRepeat, string(core.RepeatOff)))
	snap.Repeat = mode

	f.st.GetJSON(store.KeyQueue, &snap.Queue)

	var entries []history.Entry
	if f.st.GetJSON(store.KeyRecentlyPlayed, &entries) && len(entries) > 0 {
		track := entries[0].Track
		snap.Track = &track
		for _, e := range entries {
			snap.History = append(snap.History, e.Track)
		}
	}

	return snap
}

// diffSession detects changes between two reconstructed sessions. Track
// transitions always report as a plain change: the files carry no
// progress, so completion versus skip cannot be told apart.
func (f *Follower) diffSession(prev, curr *core.Snapshot) []Event {
	now := time.Now()
	var events []Event

	if trackChanged(prev, curr) && curr.HasTrack() {
		events = append(events, Event{
			Type:      EventTrackChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
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
