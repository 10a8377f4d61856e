package watch

import (
	"strings"
	"testing"
	"time"

	"github.com/strumhq/strum/internal/core"
)

func snap(state core.TransportState, track *core.Track) *core.Snapshot {
	return &core.Snapshot{
		Track:  track,
		State:  state,
		Volume: 70,
		Repeat: core.RepeatOff,
	}
}

func trackA() *core.Track {
	return &core.Track{ID: "a", Title: "Alpha", Artist: "Artist", Locator: "/m/a.mp3"}
}

func trackB() *core.Track {
	return &core.Track{ID: "b", Title: "Beta", Artist: "Artist", Locator: "/m/b.mp3"}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestDiffFirstSnapshot(t *testing.T) {
	events := diffSnapshots(nil, snap(core.StatePlaying, trackA()))
	if len(events) != 1 || events[0].Type != EventTrackChange {
		t.Errorf("diffSnapshots(nil, playing) = %v, want single track change", eventTypes(events))
	}

	if events := diffSnapshots(nil, snap(core.StateEmpty, nil)); len(events) != 0 {
		t.Errorf("diffSnapshots(nil, empty) = %v, want none", eventTypes(events))
	}
}

func TestDiffSkipThenChange(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())
	prev.Position = 10 * time.Second
	prev.Duration = 3 * time.Minute

	events := diffSnapshots(prev, snap(core.StatePlaying, trackB()))
	types := eventTypes(events)
	if len(types) != 2 || types[0] != EventTrackSkip || types[1] != EventTrackChange {
		t.Errorf("early track switch produced %v, want [skip, change]", types)
	}
}

func TestDiffCompleteThenChange(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())
	prev.Duration = 3 * time.Minute
	prev.Position = prev.Duration

	events := diffSnapshots(prev, snap(core.StatePlaying, trackB()))
	types := eventTypes(events)
	if len(types) != 2 || types[0] != EventTrackComplete || types[1] != EventTrackChange {
		t.Errorf("finished track switch produced %v, want [complete, change]", types)
	}
}

func TestDiffStop(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())
	events := diffSnapshots(prev, snap(core.StateEmpty, nil))
	if len(events) != 1 || events[0].Type != EventStop {
		t.Errorf("track removal produced %v, want [stop]", eventTypes(events))
	}
}

func TestDiffPauseAndResume(t *testing.T) {
	playing := snap(core.StatePlaying, trackA())
	paused := snap(core.StatePaused, trackA())

	if events := diffSnapshots(playing, paused); len(events) != 1 || events[0].Type != EventPause {
		t.Errorf("playing->paused produced %v, want [pause]", eventTypes(events))
	}
	if events := diffSnapshots(paused, playing); len(events) != 1 || events[0].Type != EventResume {
		t.Errorf("paused->playing produced %v, want [resume]", eventTypes(events))
	}
}

func TestDiffTransientStatesAreQuiet(t *testing.T) {
	playing := snap(core.StatePlaying, trackA())
	loading := snap(core.StateLoading, trackA())
	advancing := snap(core.StateAdvancing, trackA())

	if events := diffSnapshots(playing, loading); len(events) != 0 {
		t.Errorf("playing->loading produced %v, want none", eventTypes(events))
	}
	if events := diffSnapshots(advancing, playing); len(events) != 0 {
		t.Errorf("advancing->playing produced %v, want none", eventTypes(events))
	}
}

func TestDiffVolumeChange(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())
	curr := snap(core.StatePlaying, trackA())
	curr.Volume = 30

	events := diffSnapshots(prev, curr)
	if len(events) != 1 || events[0].Type != EventVolumeChange {
		t.Errorf("volume change produced %v, want [volume]", eventTypes(events))
	}
}

func TestDiffModeChange(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())

	shuffled := snap(core.StatePlaying, trackA())
	shuffled.Shuffle = true
	if events := diffSnapshots(prev, shuffled); len(events) != 1 || events[0].Type != EventModeChange {
		t.Errorf("shuffle flip produced %v, want [mode]", eventTypes(events))
	}

	repeating := snap(core.StatePlaying, trackA())
	repeating.Repeat = core.RepeatAll
	if events := diffSnapshots(prev, repeating); len(events) != 1 || events[0].Type != EventModeChange {
		t.Errorf("repeat change produced %v, want [mode]", eventTypes(events))
	}
}

func TestDiffQueueChange(t *testing.T) {
	prev := snap(core.StatePlaying, trackA())
	prev.Queue = []core.Track{*trackB()}

	grew := snap(core.StatePlaying, trackA())
	grew.Queue = []core.Track{*trackB(), {ID: "c", Locator: "/m/c.mp3"}}
	if events := diffSnapshots(prev, grew); len(events) != 1 || events[0].Type != EventQueueChange {
		t.Errorf("queue growth produced %v, want [queue]", eventTypes(events))
	}

	swapped := snap(core.StatePlaying, trackA())
	swapped.Queue = []core.Track{{ID: "c", Locator: "/m/c.mp3"}}
	if events := diffSnapshots(prev, swapped); len(events) != 1 || events[0].Type != EventQueueChange {
		t.Errorf("queue swap produced %v, want [queue]", eventTypes(events))
	}

	same := snap(core.StatePlaying, trackA())
	same.Queue = []core.Track{*trackB()}
	if events := diffSnapshots(prev, same); len(events) != 0 {
		t.Errorf("unchanged queue produced %v, want none", eventTypes(events))
	}
}

func TestFormatterDescriptions(t *testing.T) {
	f := NewFormatter(WithEmoji(false))
	prev := snap(core.StatePlaying, trackA())
	curr := snap(core.StatePlaying, trackB())

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"track change", Event{Type: EventTrackChange, Current: curr}, "Now playing: Artist - Beta"},
		{"complete", Event{Type: EventTrackComplete, Previous: prev, Current: curr}, "Finished: Artist - Alpha"},
		{"skip", Event{Type: EventTrackSkip, Previous: prev, Current: curr}, "Skipped: Artist - Alpha"},
		{"pause", Event{Type: EventPause}, "Paused"},
		{"resume", Event{Type: EventResume}, "Resumed"},
		{"stop", Event{Type: EventStop}, "Stopped"},
		{"volume", Event{Type: EventVolumeChange, Current: curr}, "Volume: 70%"},
		{"queue", Event{Type: EventQueueChange, Current: curr}, "Queue: 0 tracks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Format(tt.event); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatterModeDescription(t *testing.T) {
	f := NewFormatter(WithEmoji(false))

	prev := snap(core.StatePlaying, trackA())
	curr := snap(core.StatePlaying, trackA())
	curr.Shuffle = true

	if got := f.Format(Event{Type: EventModeChange, Previous: prev, Current: curr}); got != "Shuffle on" {
		t.Errorf("Format(shuffle on) = %q", got)
	}

	curr2 := snap(core.StatePlaying, trackA())
	curr2.Repeat = core.RepeatOne
	if got := f.Format(Event{Type: EventModeChange, Previous: prev, Current: curr2}); got != "Repeat one" {
		t.Errorf("Format(repeat one) = %q", got)
	}
}

func TestFormatterTimestamp(t *testing.T) {
	f := NewFormatter(WithEmoji(false), WithTimestamp(true))
	ts := time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)

	got := f.Format(Event{Type: EventPause, Timestamp: ts})
	if !strings.HasPrefix(got, "09:30:15 ") {
		t.Errorf("Format() = %q, want timestamp prefix", got)
	}
}

func TestFormatterTemplate(t *testing.T) {
	f := NewFormatter(WithTemplate("{{.Type}}: {{.Title}}"))
	curr := snap(core.StatePlaying, trackB())

	if got := f.Format(Event{Type: EventTrackChange, Current: curr}); got != "track_change: Beta" {
		t.Errorf("Format() = %q, want template output", got)
	}
}
