package audio

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/strumhq/strum/internal/device"
	strumerr "github.com/strumhq/strum/internal/errors"
)

const resampleQuality = 4

// Options configure the speaker output.
type Options struct {
	SampleRate int           // output sample rate, default 44100
	BufferLen  time.Duration // device buffer length, default 100ms
	Tick       time.Duration // position event interval, default 500ms
}

// Speaker is the real Output over the beep speaker. The underlying
// device is initialized lazily on the first start and, on touch
// hosts, only after EnsureGraph has unlocked it.
type Speaker struct {
	mu         sync.Mutex
	profile    device.Profile
	sampleRate beep.SampleRate
	bufferLen  time.Duration
	tick       time.Duration

	initialized bool // device opened
	unlocked    bool // touch hosts: a user gesture reached us

	gen      uint64
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	playing  bool
	level    int

	vol volumeController

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

var _ Output = (*Speaker)(nil)

// NewSpeaker creates a speaker output for the given host profile.
func NewSpeaker(profile device.Profile, opts Options) *Speaker {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.BufferLen <= 0 {
		opts.BufferLen = 100 * time.Millisecond
	}
	if opts.Tick <= 0 {
		opts.Tick = 500 * time.Millisecond
	}

	s := &Speaker{
		profile:    profile,
		sampleRate: beep.SampleRate(opts.SampleRate),
		bufferLen:  opts.BufferLen,
		tick:       opts.Tick,
		level:      70,
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
	}

	// Pointer hosts get an always-attached volume stage; touch hosts
	// get one only once a gesture constructs the graph.
	if profile.TouchCapable {
		s.vol = &graphGain{}
	} else {
		s.vol = newDirectVolume(s.level)
	}

	s.wg.Add(1)
	go s.tickLoop()
	return s
}

// Load replaces the current source. It never starts playback.
func (s *Speaker) Load(locator string) (uint64, error) {
	streamer, format, err := open(locator)

	s.mu.Lock()
	s.stopLocked()
	s.gen++
	gen := s.gen
	if err != nil {
		s.mu.Unlock()
		return gen, err
	}
	s.streamer = streamer
	s.format = format
	ev := Event{
		Kind:     EventMetadata,
		Duration: format.SampleRate.D(streamer.Len()),
		Gen:      gen,
	}
	s.mu.Unlock()

	// Deliver off the caller's goroutine: the caller may hold its own
	// lock around Load, and the consumer may be waiting on that lock.
	go s.emit(ev)
	return gen, nil
}

// Start begins or resumes playback of the loaded source.
func (s *Speaker) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return fmt.Errorf("%w: no source loaded", strumerr.ErrMediaFailure)
	}
	if s.profile.TouchCapable && !s.unlocked {
		return strumerr.ErrPlaybackBlocked
	}
	if err := s.ensureDeviceLocked(); err != nil {
		return err
	}

	if s.ctrl != nil {
		// Source already submitted, just unpause.
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	s.submitLocked()
	return nil
}

// Pause halts playback, keeping the source and position.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil || !s.initialized {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// SetPosition moves the play head, clamped to the source bounds.
func (s *Speaker) SetPosition(to time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return
	}
	n := s.format.SampleRate.N(to)
	if n < 0 {
		n = 0
	}
	if max := s.streamer.Len(); n > max {
		n = max
	}

	if s.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	// A failed seek leaves the play head where it was.
	_ = s.streamer.Seek(n)
}

// Position returns the current play head position.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	if s.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return s.format.SampleRate.D(s.streamer.Position())
}

// Duration returns the total length of the loaded source.
func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// SetVolume applies a 0-100 level through the active strategy.
func (s *Speaker) SetVolume(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = level
	s.vol.apply(level)
}

// EnsureGraph unlocks the device on touch hosts and attaches the gain
// stage once a source is present. A no-op on pointer hosts.
func (s *Speaker) EnsureGraph() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.profile.TouchCapable {
		return nil
	}
	s.unlocked = true

	if err := s.ensureDeviceLocked(); err != nil {
		// Could not bring the device up from this gesture. Fall back
		// to the always-attached stage so level changes still land
		// once the device recovers.
		s.vol = newDirectVolume(s.level)
		return err
	}

	g, ok := s.vol.(*graphGain)
	if !ok || g.attached() {
		return nil
	}
	if s.streamer == nil {
		return nil // graph attaches only once a source exists
	}

	g.attach(s.level)
	if s.playing && s.ctrl != nil {
		s.resubmitLocked()
	}
	return nil
}

// Events returns the notification stream. It is never closed; consumers
// stop reading when they shut down.
func (s *Speaker) Events() <-chan Event {
	return s.events
}

// Close stops playback and releases the source and the device.
func (s *Speaker) Close() error {
	close(s.done)
	s.wg.Wait()

	s.mu.Lock()
	s.stopLocked()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	s.mu.Unlock()
	return nil
}

func (s *Speaker) ensureDeviceLocked() error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(s.bufferLen)); err != nil {
		return fmt.Errorf("%w: %v", strumerr.ErrPlaybackBlocked, err)
	}
	s.initialized = true
	return nil
}

// submitLocked builds the playback chain for the loaded source and
// hands it to the speaker.
func (s *Speaker) submitLocked() {
	var src beep.Streamer = s.streamer
	if s.format.SampleRate != s.sampleRate {
		src = beep.Resample(resampleQuality, s.format.SampleRate, s.sampleRate, s.streamer)
	}
	s.ctrl = &beep.Ctrl{Streamer: src}
	s.playLocked()
}

// resubmitLocked reroutes the live chain, e.g. after a gain stage was
// attached mid-playback. The streamer keeps its position.
func (s *Speaker) resubmitLocked() {
	speaker.Clear()
	s.playLocked()
}

func (s *Speaker) playLocked() {
	gen := s.gen
	chain := s.vol.wrap(s.ctrl)
	speaker.Play(beep.Seq(chain, beep.Callback(func() {
		// Runs on the speaker goroutine; hop off before emitting so a
		// slow consumer cannot stall audio.
		go s.emit(Event{Kind: EventEnded, Gen: gen})
	})))
	s.playing = true
}

func (s *Speaker) stopLocked() {
	if s.ctrl != nil && s.initialized {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.playing = false
}

func (s *Speaker) tickLoop() {
	defer s.wg.Done()

	t := time.NewTicker(s.tick)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.mu.Lock()
			if !s.playing || s.ctrl == nil || s.streamer == nil || !s.initialized {
				s.mu.Unlock()
				continue
			}
			speaker.Lock()
			paused := s.ctrl.Paused
			pos := s.streamer.Position()
			speaker.Unlock()
			ev := Event{
				Kind:     EventTime,
				Position: s.format.SampleRate.D(pos),
				Gen:      s.gen,
			}
			s.mu.Unlock()

			if !paused {
				s.emit(ev)
			}
		}
	}
}

// emit delivers an event unless the output is shutting down. Never
// call it while holding s.mu.
func (s *Speaker) emit(ev Event) {
	select {
	case <-s.done:
	case s.events <- ev:
	}
}

// open fetches and decodes the media behind a locator. Local paths and
// file:// locators stream from disk; http(s) locators are fetched
// fully into memory so the result is seekable.
func open(locator string) (beep.StreamSeekCloser, beep.Format, error) {
	var rc io.ReadCloser
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		resp, err := http.Get(locator)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: %v", strumerr.ErrMediaFailure, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, beep.Format{}, fmt.Errorf("%w: unexpected status %s", strumerr.ErrMediaFailure, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: %v", strumerr.ErrMediaFailure, err)
		}
		rc = nopCloser{bytes.NewReader(data)}
	default:
		f, err := os.Open(strings.TrimPrefix(locator, "file://"))
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: %v", strumerr.ErrMediaFailure, err)
		}
		rc = f
	}

	streamer, format, err := decode(locator, rc)
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}

func decode(locator string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext(locator) {
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	case ".flac":
		streamer, format, err = flac.Decode(rc)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", strumerr.ErrUnsupportedFormat, ext(locator))
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", strumerr.ErrMediaFailure, err)
	}
	return streamer, format, nil
}

// ext returns the lowercase extension of a locator, ignoring any URL
// query suffix.
func ext(locator string) string {
	if i := strings.IndexByte(locator, '?'); i >= 0 {
		locator = locator[:i]
	}
	return strings.ToLower(filepath.Ext(locator))
}

// nopCloser adapts an in-memory reader to the decoder interfaces.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
