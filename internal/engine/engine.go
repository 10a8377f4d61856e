// Package engine owns the playback session: the transport state
// machine, the queue and history, volume and modes, and their
// persistence. All mutation funnels through one engine so state can
// only change under its lock, and every observable change is published
// as a core.Snapshot to subscribers.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/strumhq/strum/internal/audio"
	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/device"
	strumerr "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/queue"
	"github.com/strumhq/strum/internal/store"
)

// Defaults are the session values used when the store has nothing
// persisted, or nothing readable.
type Defaults struct {
	Volume  int
	Shuffle bool
	Repeat  core.RepeatMode
}

// Options configure engine construction.
type Options struct {
	Defaults Defaults
	Logger   *slog.Logger
	// Rand overrides the shuffle source, mainly for tests.
	Rand *rand.Rand
}

// Engine drives an audio.Output and implements core.Controller.
type Engine struct {
	out     audio.Output
	st      *store.Store
	profile device.Profile
	log     *slog.Logger
	rng     *rand.Rand

	mu       sync.Mutex
	track    *core.Track
	state    core.TransportState
	position time.Duration
	duration time.Duration
	volume   int
	shuffle  bool
	repeat   core.RepeatMode
	lastErr  error
	gen      uint64
	q        *queue.Queue
	hist     *history.Tracker
	subs     map[<-chan core.Snapshot]chan core.Snapshot

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ core.Controller = (*Engine)(nil)

// New builds an engine over the given output and store, restoring the
// persisted session. Unreadable fields restore to their defaults; the
// volume level is only restored on pointer hosts, since touch hosts
// leave the level to the OS.
func New(out audio.Output, st *store.Store, profile device.Profile, opts Options) *Engine {
	if opts.Defaults.Volume == 0 {
		opts.Defaults.Volume = 70
	}
	if opts.Defaults.Repeat == "" {
		opts.Defaults.Repeat = core.RepeatOff
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rand == nil {
		now := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(now, now>>17))
	}

	e := &Engine{
		out:     out,
		st:      st,
		profile: profile,
		log:     opts.Logger,
		rng:     opts.Rand,
		state:   core.StateEmpty,
		q:       queue.New(),
		hist:    history.New(st),
		subs:    make(map[<-chan core.Snapshot]chan core.Snapshot),
		done:    make(chan struct{}),
	}

	e.restore(opts.Defaults)

	e.wg.Add(1)
	go e.run()
	return e
}

func (e *Engine) restore(defs Defaults) {
	e.volume = defs.Volume
	if !e.profile.TouchCapable {
		e.volume = clampVolume(e.st.GetInt(store.KeyVolume, defs.Volume))
	}
	e.shuffle = e.st.GetBool(store.KeyShuffle, defs.Shuffle)

	e.repeat = defs.Repeat
	if mode, ok := core.ParseRepeatMode(e.st.GetString(store.KeyRepeat, string(defs.Repeat))); ok {
		e.repeat = mode
	}

	var tracks []core.Track
	if e.st.GetJSON(store.KeyQueue, &tracks) {
		e.q.Replace(tracks)
	}

	e.out.SetVolume(e.volume)

	e.log.Debug("session restored",
		"queue", e.q.Len(),
		"history", e.hist.Len(),
		"volume", e.volume,
		"shuffle", e.shuffle,
		"repeat", e.repeat)
}

// run consumes output events until Close.
func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.out.Events():
			e.handle(ev)
		}
	}
}

// handle applies one output event. Events from abandoned loads are
// dropped wholesale: no state change and no publication.
func (e *Engine) handle(ev audio.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Gen != e.gen {
		e.log.Debug("dropping stale output event", "kind", ev.Kind, "gen", ev.Gen, "want", e.gen)
		return
	}

	switch ev.Kind {
	case audio.EventTime:
		if e.state != core.StatePlaying {
			return
		}
		e.position = ev.Position
		if e.duration > 0 && e.position > e.duration {
			e.position = e.duration
		}
		e.publishLocked()

	case audio.EventMetadata:
		e.duration = ev.Duration
		if e.duration > 0 && e.position > e.duration {
			e.position = e.duration
		}
		if e.track != nil && e.track.Duration == 0 {
			e.track.Duration = ev.Duration
		}
		e.publishLocked()

	case audio.EventEnded:
		if e.duration > 0 {
			e.position = e.duration
		}
		e.advanceLocked(false)
		e.publishLocked()

	case audio.EventError:
		e.mediaFailureLocked(ev.Err)
		e.publishLocked()
	}
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() core.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// HistoryEntries returns the recently-played list with timestamps,
// most recent first.
func (e *Engine) HistoryEntries() []history.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Entries()
}

// ClearHistory forgets the recently-played list.
func (e *Engine) ClearHistory() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.hist.Clear()
	e.publishLocked()
	return err
}

// Subscribe registers a snapshot channel. The current state is
// delivered immediately; later snapshots follow every observable
// change. Slow subscribers miss intermediate snapshots rather than
// blocking the engine.
func (e *Engine) Subscribe() <-chan core.Snapshot {
	ch := make(chan core.Snapshot, 16)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[ch] = ch
	ch <- e.snapshotLocked()
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (e *Engine) Unsubscribe(ch <-chan core.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sub, ok := e.subs[ch]; ok {
		delete(e.subs, ch)
		close(sub)
	}
}

// Close stops the event loop, the output, and all subscriptions.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		err = e.out.Close()

		e.mu.Lock()
		for _, sub := range e.subs {
			close(sub)
		}
		e.subs = make(map[<-chan core.Snapshot]chan core.Snapshot)
		e.mu.Unlock()
	})
	return err
}

func (e *Engine) snapshotLocked() core.Snapshot {
	snap := core.Snapshot{
		State:    e.state,
		Position: e.position,
		Duration: e.duration,
		Volume:   e.volume,
		Shuffle:  e.shuffle,
		Repeat:   e.repeat,
		Queue:    e.q.Tracks(),
		History:  e.hist.Tracks(),
		Err:      e.lastErr,
	}
	if e.track != nil {
		t := *e.track
		snap.Track = &t
	}
	return snap
}

func (e *Engine) publishLocked() {
	snap := e.snapshotLocked()
	for _, sub := range e.subs {
		select {
		case sub <- snap:
		default: // subscriber is behind, it will catch up on the next one
		}
	}
}

// adviseLocked records a failure the engine already absorbed into a
// state. It surfaces on the next snapshot and clears on the next
// command.
func (e *Engine) adviseLocked(err error) {
	e.lastErr = err
	e.log.Warn("playback advisory", "error", err)
}

// persistLocked writes one session field, fire and forget. Storage
// trouble never affects playback; it is logged and surfaced as an
// advisory.
func (e *Engine) persistLocked(key string, v any) {
	if err := e.st.SetJSON(key, v); err != nil {
		e.lastErr = fmt.Errorf("%w: %v", strumerr.ErrStorageUnavailable, err)
		e.log.Warn("session persistence skipped", "key", key, "error", err)
	}
}

// mediaFailureLocked resolves a fatal source failure: the track is
// dropped and the engine returns to empty. No automatic retry.
func (e *Engine) mediaFailureLocked(err error) {
	if err == nil {
		err = strumerr.ErrMediaFailure
	} else if !isMediaErr(err) {
		err = fmt.Errorf("%w: %v", strumerr.ErrMediaFailure, err)
	}

	e.track = nil
	e.state = core.StateEmpty
	e.position = 0
	e.duration = 0
	e.adviseLocked(err)
}

func (e *Engine) stopLocked() {
	e.out.Pause()
	e.track = nil
	e.state = core.StateEmpty
	e.position = 0
	e.duration = 0
}

func isMediaErr(err error) bool {
	return errors.Is(err, strumerr.ErrMediaFailure) || errors.Is(err, strumerr.ErrUnsupportedFormat)
}

func clampVolume(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
