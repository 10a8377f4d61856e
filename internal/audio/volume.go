package audio

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// minGain is the gain (base-2 exponent) applied at level 1. Level 0
// mutes outright via Silent.
const minGain = -4.0

// levelToGain maps a 0-100 level onto a logarithmic gain so equal
// level steps sound roughly equal.
func levelToGain(level int) float64 {
	if level >= 100 {
		return 0
	}
	if level <= 0 {
		return minGain
	}
	return minGain * (1 - float64(level)/100)
}

// volumeController is the strategy for applying a 0-100 level to the
// output chain. The strategy is picked once per session from the
// device profile and never switches mid-session, except for the
// documented fallback when graph construction fails.
type volumeController interface {
	// wrap inserts the strategy's volume stage around the control
	// streamer when building a playback chain.
	wrap(s beep.Streamer) beep.Streamer
	// apply sets the level on the stage, if one is attached.
	apply(level int)
	// attached reports whether apply currently has any effect.
	attached() bool
}

// directVolume drives a volume stage that exists for the whole
// session. Used on pointer hosts, where the application owns the
// level.
type directVolume struct {
	node *effects.Volume
}

func newDirectVolume(level int) *directVolume {
	return &directVolume{
		node: &effects.Volume{
			Base:   2,
			Volume: levelToGain(level),
			Silent: level == 0,
		},
	}
}

func (d *directVolume) wrap(s beep.Streamer) beep.Streamer {
	d.node.Streamer = s
	return d.node
}

func (d *directVolume) apply(level int) {
	speaker.Lock()
	d.node.Volume = levelToGain(level)
	d.node.Silent = level == 0
	speaker.Unlock()
}

func (d *directVolume) attached() bool { return true }

// graphGain drives a gain stage that only exists once the session's
// first user-gesture command constructs it. Until then level changes
// are dropped and the OS owns the volume. Used on touch hosts.
type graphGain struct {
	node *effects.Volume
}

func (g *graphGain) wrap(s beep.Streamer) beep.Streamer {
	if g.node == nil {
		return s
	}
	g.node.Streamer = s
	return g.node
}

func (g *graphGain) apply(level int) {
	if g.node == nil {
		return // no gain stage yet, OS owns the volume
	}
	speaker.Lock()
	g.node.Volume = levelToGain(level)
	g.node.Silent = level == 0
	speaker.Unlock()
}

func (g *graphGain) attached() bool { return g.node != nil }

// attach constructs the gain stage. Idempotent.
func (g *graphGain) attach(level int) {
	if g.node != nil {
		return
	}
	g.node = &effects.Volume{
		Base:   2,
		Volume: levelToGain(level),
		Silent: level == 0,
	}
}
