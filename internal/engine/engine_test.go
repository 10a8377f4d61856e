package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/strumhq/strum/internal/audio"
	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/device"
	strumerr "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/store"
)

func track(id string) core.Track {
	return core.Track{ID: id, Title: "Track " + id, Artist: "Artist", Locator: "/music/" + id + ".mp3"}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	return st
}

func newTestEngine(t *testing.T, profile device.Profile) (*Engine, *audio.MockOutput, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	out := audio.NewMock()
	e := New(out, st, profile, Options{
		Rand: rand.New(rand.NewPCG(1, 2)),
	})
	out.ResetCalls() // drop the construction-time volume call
	t.Cleanup(func() { e.Close() })
	return e, out, st
}

// waitFor polls snapshots until cond holds, for event-driven
// transitions that cross the engine's event loop.
func waitFor(t *testing.T, e *Engine, cond func(core.Snapshot) bool) core.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := e.Snapshot()
		if cond(snap) {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	snap := e.Snapshot()
	t.Fatalf("condition not reached, last state=%s track=%+v", snap.State, snap.Track)
	return snap
}

func TestPlayStartsTrack(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))

	snap := e.Snapshot()
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s", snap.State, core.StatePlaying)
	}
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want a", snap.Track)
	}
	if out.Loaded() != "/music/a.mp3" {
		t.Errorf("Loaded() = %q, want /music/a.mp3", out.Loaded())
	}
	if !out.Started() {
		t.Error("Started() = false, want true")
	}
	if got := snap.History; len(got) != 1 || got[0].ID != "a" {
		t.Errorf("History = %v, want [a]", got)
	}
}

func TestPlayRejectsUnplayableTrack(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(core.Track{ID: "ghost"}) // no locator

	snap := e.Snapshot()
	if snap.State != core.StateEmpty {
		t.Errorf("State = %s, want %s", snap.State, core.StateEmpty)
	}
	if snap.Err == nil {
		t.Error("Err = nil, want an advisory")
	}
	if len(out.Calls()) != 0 {
		t.Errorf("output calls = %v, want none for an unplayable track", out.Calls())
	}
	if len(snap.History) != 0 {
		t.Error("unplayable track was recorded to history")
	}
}

func TestPlayBlockedFallsBackToPaused(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})
	out.StartErr = strumerr.ErrPlaybackBlocked

	e.Play(track("a"))

	snap := e.Snapshot()
	if snap.State != core.StatePaused {
		t.Errorf("State = %s, want %s (blocked start is recoverable)", snap.State, core.StatePaused)
	}
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Error("blocked start dropped the loaded track")
	}
	// The play attempt still counts as played
	if len(snap.History) != 1 || snap.History[0].ID != "a" {
		t.Errorf("History = %v, want [a] even when start is blocked", snap.History)
	}

	// A later toggle with a willing device recovers to playing
	out.StartErr = nil
	e.TogglePlay()
	if got := e.Snapshot().State; got != core.StatePlaying {
		t.Errorf("State after recovery = %s, want %s", got, core.StatePlaying)
	}
}

func TestPlayMediaFailureGoesEmpty(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})
	out.LoadErr = strumerr.ErrMediaFailure

	e.Play(track("a"))

	snap := e.Snapshot()
	if snap.State != core.StateEmpty {
		t.Errorf("State = %s, want %s", snap.State, core.StateEmpty)
	}
	if snap.HasTrack() {
		t.Error("failed track still loaded, want dropped")
	}
	if snap.Err == nil {
		t.Error("Err = nil, want media failure advisory")
	}

	// No automatic retry: exactly one load attempt
	loads := 0
	for _, c := range out.Calls() {
		if c == "load" {
			loads++
		}
	}
	if loads != 1 {
		t.Errorf("load attempts = %d, want 1 (no retry)", loads)
	}
}

func TestAsyncMediaErrorGoesEmpty(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	out.EmitError(strumerr.ErrMediaFailure)

	snap := waitFor(t, e, func(s core.Snapshot) bool { return s.State == core.StateEmpty })
	if snap.HasTrack() {
		t.Error("track still loaded after async media error")
	}
	if snap.Err == nil {
		t.Error("Err = nil, want media failure advisory")
	}
}

func TestTogglePlayPausesAndResumes(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	e.TogglePlay()
	if got := e.Snapshot().State; got != core.StatePaused {
		t.Fatalf("State after pause = %s, want %s", got, core.StatePaused)
	}
	if !out.Paused() {
		t.Error("output not paused")
	}

	e.TogglePlay()
	if got := e.Snapshot().State; got != core.StatePlaying {
		t.Errorf("State after resume = %s, want %s", got, core.StatePlaying)
	}
}

func TestTogglePlayFromEmptyStartsQueue(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.TogglePlay()

	snap := e.Snapshot()
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s", snap.State, core.StatePlaying)
	}
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want the queue head", snap.Track)
	}
}

func TestTogglePlayFromEmptyWithoutQueue(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.TogglePlay()

	if got := e.Snapshot().State; got != core.StateEmpty {
		t.Errorf("State = %s, want %s", got, core.StateEmpty)
	}
	if len(out.Calls()) != 0 {
		t.Errorf("output calls = %v, want none", out.Calls())
	}
}

func TestNaturalEndAdvancesInOrder(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b"), track("c")})
	e.Play(track("a"))

	out.EmitEnded()

	snap := waitFor(t, e, func(s core.Snapshot) bool {
		return s.HasTrack() && s.Track.ID == "b"
	})
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s", snap.State, core.StatePlaying)
	}
	if out.Loaded() != "/music/b.mp3" {
		t.Errorf("Loaded() = %q, want /music/b.mp3", out.Loaded())
	}
}

func TestNaturalEndAtQueueTailStops(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("b")) // tail of the queue, repeat off

	out.EmitEnded()

	snap := waitFor(t, e, func(s core.Snapshot) bool { return s.State == core.StateEmpty })
	if snap.HasTrack() {
		t.Error("track still loaded after queue exhausted")
	}
	// The queue itself survives; only playback stops
	if len(snap.Queue) != 2 {
		t.Errorf("Queue len = %d, want 2", len(snap.Queue))
	}
}

func TestNaturalEndWrapsWithRepeatAll(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.SetRepeat(core.RepeatAll)
	e.Play(track("b"))

	out.EmitEnded()

	snap := waitFor(t, e, func(s core.Snapshot) bool {
		return s.HasTrack() && s.Track.ID == "a"
	})
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s after wrap", snap.State, core.StatePlaying)
	}
}

func TestNaturalEndRepeatOneRestartsWithoutQueue(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Enqueue(track("a"))
	e.SetRepeat(core.RepeatOne)
	e.Play(track("a"))
	gen := out.Gen()

	out.EmitEnded()

	waitFor(t, e, func(s core.Snapshot) bool {
		return out.Gen() > gen && s.State == core.StatePlaying
	})

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want a restarted", snap.Track)
	}
	if snap.Position != 0 {
		t.Errorf("Position = %v, want 0 after restart", snap.Position)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != "a" {
		t.Errorf("Queue = %v, want untouched [a]", snap.Queue)
	}
}

func TestNaturalEndShuffleSingleTrackReselects(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Enqueue(track("a"))
	e.SetShuffle(true)
	e.Play(track("a"))
	gen := out.Gen()

	out.EmitEnded()

	snap := waitFor(t, e, func(s core.Snapshot) bool {
		return out.Gen() > gen && s.State == core.StatePlaying
	})
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want a reselected under shuffle", snap.Track)
	}
}

func TestManualNextAtQueueTailKeepsPlaying(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("b"))

	e.Next()

	snap := e.Snapshot()
	if snap.State != core.StatePlaying || !snap.HasTrack() || snap.Track.ID != "b" {
		t.Errorf("State/Track = %s/%+v, want b still playing", snap.State, snap.Track)
	}
}

func TestManualNextAdvances(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("a"))

	e.Next()

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "b" {
		t.Errorf("Track = %+v, want b", snap.Track)
	}
}

func TestStaleEndedEventIsDiscarded(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b"), track("c")})
	e.Play(track("a"))
	staleGen := out.Gen()
	e.Play(track("b")) // abandons generation 1

	// The old track's end must not advance the new one
	out.Emit(audio.Event{Kind: audio.EventEnded, Gen: staleGen})
	// Follow with a live event as an ordering fence
	out.EmitTime(5 * time.Second)

	snap := waitFor(t, e, func(s core.Snapshot) bool { return s.Position == 5*time.Second })
	if !snap.HasTrack() || snap.Track.ID != "b" {
		t.Errorf("Track = %+v, want b untouched by stale event", snap.Track)
	}
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s", snap.State, core.StatePlaying)
	}
}

func TestStaleEventPublishesNoSnapshot(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	staleGen := out.Gen()
	e.Play(track("b"))

	sub := e.Subscribe()
	defer e.Unsubscribe(sub)
	<-sub // prime snapshot

	out.Emit(audio.Event{Kind: audio.EventTime, Position: 99 * time.Second, Gen: staleGen})
	out.EmitTime(3 * time.Second)

	// The first snapshot after the prime must be the live event; the
	// stale one produced none.
	select {
	case snap := <-sub:
		if snap.Position != 3*time.Second {
			t.Errorf("published Position = %v, want 3s (stale event must not publish)", snap.Position)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot for the live event")
	}
}

func TestPreviousRestartsAfterThreshold(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("b"))
	out.EmitTime(10 * time.Second)
	waitFor(t, e, func(s core.Snapshot) bool { return s.Position == 10*time.Second })

	e.Previous()

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "b" {
		t.Errorf("Track = %+v, want b restarted, not a", snap.Track)
	}
	if snap.Position != 0 {
		t.Errorf("Position = %v, want 0", snap.Position)
	}
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want still %s", snap.State, core.StatePlaying)
	}
}

func TestPreviousStepsBackEarlyInTrack(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("b"))
	out.EmitTime(2 * time.Second)
	waitFor(t, e, func(s core.Snapshot) bool { return s.Position == 2*time.Second })

	e.Previous()

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want a", snap.Track)
	}
}

func TestPreviousAtQueueHeadRestarts(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("a"))

	e.Previous()

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want a restarted", snap.Track)
	}
	if snap.Position != 0 {
		t.Errorf("Position = %v, want 0", snap.Position)
	}
}

func TestSeekClamps(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	out.EmitMetadata(100 * time.Second)
	waitFor(t, e, func(s core.Snapshot) bool { return s.Duration == 100*time.Second })

	e.Seek(250 * time.Second)
	if got := e.Snapshot().Position; got != 100*time.Second {
		t.Errorf("Position after over-seek = %v, want clamp to 100s", got)
	}
	if got := out.Position(); got != 100*time.Second {
		t.Errorf("output position = %v, want 100s", got)
	}

	e.Seek(-5 * time.Second)
	if got := e.Snapshot().Position; got != 0 {
		t.Errorf("Position after negative seek = %v, want 0", got)
	}
}

func TestSeekIgnoredWithoutTrack(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Seek(30 * time.Second)

	if got := e.Snapshot().Position; got != 0 {
		t.Errorf("Position = %v, want 0", got)
	}
	for _, c := range out.Calls() {
		if c == "setposition" {
			t.Error("Seek reached the output with no track loaded")
		}
	}
}

func TestVolumeClampsAndPersists(t *testing.T) {
	e, out, st := newTestEngine(t, device.Profile{})

	e.SetVolume(130)
	if got := e.Snapshot().Volume; got != 100 {
		t.Errorf("Volume = %d, want clamp to 100", got)
	}
	if out.Level() != 100 {
		t.Errorf("output level = %d, want 100", out.Level())
	}

	e.SetVolume(-10)
	if got := e.Snapshot().Volume; got != 0 {
		t.Errorf("Volume = %d, want clamp to 0", got)
	}

	e.SetVolume(45)
	if got := st.GetInt(store.KeyVolume, -1); got != 45 {
		t.Errorf("persisted volume = %d, want 45 on a pointer host", got)
	}
}

func TestVolumeNotPersistedOnTouchHosts(t *testing.T) {
	e, out, st := newTestEngine(t, device.Profile{TouchCapable: true})

	e.SetVolume(45)

	if got := st.GetInt(store.KeyVolume, -1); got != -1 {
		t.Errorf("persisted volume = %d, want none on a touch host", got)
	}
	// The request still flows to the output strategy
	if out.Level() != 45 {
		t.Errorf("output level = %d, want 45", out.Level())
	}
}

func TestTouchPlayUnlocksGraph(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{TouchCapable: true})

	e.Play(track("a"))

	if !out.GraphBuilt() {
		t.Error("EnsureGraph not called from the play command on a touch host")
	}
}

func TestPointerPlaySkipsGraph(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))

	for _, c := range out.Calls() {
		if c == "ensuregraph" {
			t.Error("EnsureGraph called on a pointer host")
		}
	}
}

func TestModesPersistAndRestore(t *testing.T) {
	st := newTestStore(t)

	out := audio.NewMock()
	e := New(out, st, device.Profile{}, Options{})
	e.SetVolume(33)
	e.ToggleShuffle()
	e.CycleRepeat() // off -> all
	e.EnqueueAll([]core.Track{track("a"), track("b"), track("a")})
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh engine over the same store restores the session
	again := New(audio.NewMock(), st, device.Profile{}, Options{})
	defer again.Close()

	snap := again.Snapshot()
	if snap.Volume != 33 {
		t.Errorf("restored Volume = %d, want 33", snap.Volume)
	}
	if !snap.Shuffle {
		t.Error("restored Shuffle = false, want true")
	}
	if snap.Repeat != core.RepeatAll {
		t.Errorf("restored Repeat = %s, want %s", snap.Repeat, core.RepeatAll)
	}
	if len(snap.Queue) != 2 {
		t.Errorf("restored Queue len = %d, want 2 (deduplicated)", len(snap.Queue))
	}
	if snap.State != core.StateEmpty {
		t.Errorf("restored State = %s, want %s (no autoplay)", snap.State, core.StateEmpty)
	}
}

func TestRestoreDefaultsWhenStoreEmpty(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	snap := e.Snapshot()
	if snap.Volume != 70 {
		t.Errorf("default Volume = %d, want 70", snap.Volume)
	}
	if snap.Shuffle {
		t.Error("default Shuffle = true, want false")
	}
	if snap.Repeat != core.RepeatOff {
		t.Errorf("default Repeat = %s, want %s", snap.Repeat, core.RepeatOff)
	}
	if len(snap.Queue) != 0 {
		t.Errorf("default Queue len = %d, want 0", len(snap.Queue))
	}
}

func TestCycleRepeatRotation(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	if got := e.CycleRepeat(); got != core.RepeatAll {
		t.Errorf("CycleRepeat() = %s, want %s", got, core.RepeatAll)
	}
	if got := e.CycleRepeat(); got != core.RepeatOne {
		t.Errorf("CycleRepeat() = %s, want %s", got, core.RepeatOne)
	}
	if got := e.CycleRepeat(); got != core.RepeatOff {
		t.Errorf("CycleRepeat() = %s, want %s", got, core.RepeatOff)
	}
}

func TestRemoveCurrentTrackKeepsPlaying(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("a"))

	e.Remove("a")

	snap := e.Snapshot()
	if snap.State != core.StatePlaying || !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("State/Track = %s/%+v, want a still playing", snap.State, snap.Track)
	}
	if len(snap.Queue) != 1 {
		t.Errorf("Queue len = %d, want 1", len(snap.Queue))
	}
}

func TestNaturalEndAfterCurrentRemovedResumesAtHead(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.EnqueueAll([]core.Track{track("a"), track("b")})
	e.Play(track("a"))
	e.Remove("a")

	out.EmitEnded()

	// The departed current track resolves to the queue head
	snap := waitFor(t, e, func(s core.Snapshot) bool {
		return s.HasTrack() && s.Track.ID == "b"
	})
	if snap.State != core.StatePlaying {
		t.Errorf("State = %s, want %s", snap.State, core.StatePlaying)
	}
}

func TestReplaceQueueStartsAtIndex(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.Enqueue(track("x"))
	e.ReplaceQueue([]core.Track{track("a"), track("b"), track("c")}, 1)

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "b" {
		t.Errorf("Track = %+v, want b", snap.Track)
	}
	if len(snap.Queue) != 3 || snap.Queue[0].ID != "a" {
		t.Errorf("Queue = %v, want [a b c]", snap.Queue)
	}
}

func TestReplaceQueueOutOfRangeIndexStartsAtHead(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.ReplaceQueue([]core.Track{track("a"), track("b")}, 7)

	snap := e.Snapshot()
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Errorf("Track = %+v, want the head for an out-of-range index", snap.Track)
	}
}

func TestReplaceQueueEmptyClearsOnly(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	e.ReplaceQueue(nil, 0)

	snap := e.Snapshot()
	if len(snap.Queue) != 0 {
		t.Errorf("Queue len = %d, want 0", len(snap.Queue))
	}
	if !snap.HasTrack() || snap.Track.ID != "a" {
		t.Error("clearing the queue interrupted current playback")
	}
}

func TestSubscribeSeesLoadingThenPlaying(t *testing.T) {
	e, _, _ := newTestEngine(t, device.Profile{})

	sub := e.Subscribe()
	defer e.Unsubscribe(sub)
	<-sub // prime snapshot

	e.Play(track("a"))

	var states []core.TransportState
	timeout := time.After(2 * time.Second)
	for len(states) < 2 {
		select {
		case snap := <-sub:
			states = append(states, snap.State)
		case <-timeout:
			t.Fatalf("saw states %v, want loading then playing", states)
		}
	}
	if states[0] != core.StateLoading || states[1] != core.StatePlaying {
		t.Errorf("states = %v, want [%s %s]", states, core.StateLoading, core.StatePlaying)
	}
}

func TestTimeUpdatesIgnoredWhilePaused(t *testing.T) {
	e, out, _ := newTestEngine(t, device.Profile{})

	e.Play(track("a"))
	e.TogglePlay() // paused

	out.EmitTime(42 * time.Second)
	// Fence: a metadata event is always applied
	out.EmitMetadata(90 * time.Second)

	snap := waitFor(t, e, func(s core.Snapshot) bool { return s.Duration == 90*time.Second })
	if snap.Position == 42*time.Second {
		t.Error("position moved from a time event while paused")
	}
}
