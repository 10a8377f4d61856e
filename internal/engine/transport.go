package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/strumhq/strum/internal/core"
	strumerr "github.com/strumhq/strum/internal/errors"
)

// restartThreshold is how far into a track Previous restarts it
// instead of stepping back through the queue.
const restartThreshold = 3 * time.Second

// Play loads the given track and asks the output to start it. The
// track is recorded to history up front, so a refused start still
// counts as played. A refused start parks the track in paused; a
// media failure drops back to empty.
func (e *Engine) Play(t core.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.playLocked(t)
	e.publishLocked()
}

// TogglePlay flips between playing and paused. With nothing loaded it
// starts the queue from the top.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	switch e.state {
	case core.StatePlaying, core.StateLoading:
		e.out.Pause()
		e.state = core.StatePaused

	case core.StatePaused:
		// This call carries a user gesture, so it may unlock the
		// device before the start attempt.
		e.ensureGraphLocked()
		e.startLocked()

	case core.StateEmpty:
		if tracks := e.q.Tracks(); len(tracks) > 0 {
			e.playLocked(tracks[0])
		}
	}
	e.publishLocked()
}

// Next advances to the following track under the active modes. At the
// end of the queue it leaves the current track alone.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	e.advanceLocked(true)
	e.publishLocked()
}

// Previous steps back through the queue, or restarts the current
// track when more than a few seconds have played or there is nothing
// to step back to.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	if e.track == nil {
		e.publishLocked()
		return
	}

	if e.position > restartThreshold {
		e.seekLocked(0)
		e.publishLocked()
		return
	}

	if prev, ok := e.q.Prev(e.track.ID); ok {
		e.playLocked(prev)
	} else {
		e.seekLocked(0)
	}
	e.publishLocked()
}

// Seek moves the play head, clamped to the track bounds. It only
// applies while a track is playing or paused.
func (e *Engine) Seek(to time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil
	if e.state == core.StatePlaying || e.state == core.StatePaused {
		e.seekLocked(to)
	}
	e.publishLocked()
}

// playLocked is the one path that loads a track into the output.
func (e *Engine) playLocked(t core.Track) {
	if !t.Playable() {
		e.adviseLocked(fmt.Errorf("%w: %q", strumerr.ErrInvalidTrack, t.ID))
		return
	}

	// History first: asking for a track counts as playing it, even if
	// the device then refuses to start.
	if err := e.hist.Record(t); err != nil {
		e.lastErr = fmt.Errorf("%w: %v", strumerr.ErrStorageUnavailable, err)
		e.log.Warn("history persistence skipped", "error", err)
	}

	e.track = &t
	e.state = core.StateLoading
	e.position = 0
	e.duration = t.Duration // hint until the output reports metadata
	e.publishLocked()

	e.ensureGraphLocked()

	gen, err := e.out.Load(t.Locator)
	e.gen = gen
	if err != nil {
		e.mediaFailureLocked(err)
		return
	}

	e.startLocked()
}

// startLocked asks the output to start and resolves the answer into a
// state. A blocked start is recoverable: the track stays loaded,
// paused, ready for the next attempt.
func (e *Engine) startLocked() {
	err := e.out.Start()
	switch {
	case err == nil:
		e.state = core.StatePlaying
	case errors.Is(err, strumerr.ErrPlaybackBlocked):
		e.state = core.StatePaused
		e.adviseLocked(err)
	default:
		e.mediaFailureLocked(err)
	}
}

// advanceLocked moves on after the current track, either because it
// ended naturally or because the user skipped.
func (e *Engine) advanceLocked(manual bool) {
	// Repeat-one only captures natural completion; a manual skip
	// still moves forward.
	if !manual && e.repeat == core.RepeatOne && e.track != nil {
		e.playLocked(*e.track)
		return
	}

	currentID := ""
	if e.track != nil {
		currentID = e.track.ID
	}

	next, ok := e.q.Next(currentID, e.shuffle, e.repeat, e.rng)
	if !ok {
		if manual {
			return // nothing after this one, keep what is playing
		}
		e.stopLocked() // queue exhausted
		return
	}

	e.state = core.StateAdvancing
	e.playLocked(next)
}

func (e *Engine) seekLocked(to time.Duration) {
	if to < 0 {
		to = 0
	}
	if e.duration > 0 && to > e.duration {
		to = e.duration
	}
	e.position = to
	e.out.SetPosition(to)
}

// ensureGraphLocked forwards the user gesture carried by the calling
// command to the output. Failures are advisory; the start attempt
// that follows will surface anything fatal.
func (e *Engine) ensureGraphLocked() {
	if !e.profile.TouchCapable {
		return
	}
	if err := e.out.EnsureGraph(); err != nil {
		e.log.Warn("output graph construction failed", "error", err)
	}
}
