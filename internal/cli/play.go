package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/audio"
	"github.com/strumhq/strum/internal/config"
	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/device"
	"github.com/strumhq/strum/internal/engine"
	strumerr "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/library"
	"github.com/strumhq/strum/internal/store"
	"github.com/strumhq/strum/internal/watch"
	"github.com/strumhq/strum/internal/wizard"
)

var (
	playShuffle bool
	playRepeat  string
	playAlbum   bool
	playArtist  bool
	playAll     bool
	playRescan  bool
)

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Start or resume playback",
	Long: `Play from your library and keep running until the queue ends.

Without arguments, resumes the saved queue. A plain query plays the
best match now and then falls back to the queue; --album, --artist and
--all replace the queue with the matching tracks.

While playing, volume/shuffle/repeat changes made by other strum
commands are picked up live.

Examples:
  strum play                      # Resume the saved queue
  strum play "holiday"            # Play the best match for "holiday"
  strum play --album "abbey road" # Queue and play a whole album
  strum play --artist "case"      # Queue everything by matching artists
  strum play --all --shuffle      # Shuffle the entire library`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "Enable shuffle mode")
	playCmd.Flags().StringVar(&playRepeat, "repeat", "", "Repeat mode (off, all, one)")
	playCmd.Flags().BoolVar(&playAlbum, "album", false, "Treat the query as an album name")
	playCmd.Flags().BoolVar(&playArtist, "artist", false, "Treat the query as an artist name")
	playCmd.Flags().BoolVar(&playAll, "all", false, "Play the entire library")
	playCmd.Flags().BoolVar(&playRescan, "rescan", false, "Rescan library folders first")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")

	// Resolve what to play before any audio is touched, so the
	// interactive picker runs on a quiet terminal.
	var lib *library.Library
	var startQueue []core.Track
	var startTrack *core.Track

	switch {
	case playAll, playAlbum, playArtist, query != "":
		lib, err = loadLibrary(st, playRescan)
		if err != nil {
			return err
		}

		switch {
		case playAll:
			startQueue = lib.Tracks()
		case playAlbum:
			startQueue = filterTracks(lib.Tracks(), func(t core.Track) string { return t.Album }, query)
			if len(startQueue) == 0 {
				return fmt.Errorf("%w: no album matching %q", strumerr.ErrTrackNotFound, query)
			}
		case playArtist:
			startQueue = filterTracks(lib.Tracks(), func(t core.Track) string { return t.Artist }, query)
			if len(startQueue) == 0 {
				return fmt.Errorf("%w: no artist matching %q", strumerr.ErrTrackNotFound, query)
			}
		default:
			matches, err := lib.Resolve(query)
			if err != nil {
				return err
			}
			track, err := wizard.ChooseTrack(matches, query)
			if err != nil {
				return err
			}
			startTrack = &track
		}
	}

	eng := buildEngine(st)
	defer func() { _ = eng.Close() }()

	if playShuffle {
		eng.SetShuffle(true)
	}
	if playRepeat != "" {
		mode, ok := core.ParseRepeatMode(playRepeat)
		if !ok {
			return fmt.Errorf("invalid repeat mode %q (off, all, one)", playRepeat)
		}
		eng.SetRepeat(mode)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// The watcher turns the snapshot stream into printable events; it
	// subscribes before the first command so nothing is missed.
	watcher := watch.NewWatcher(eng.Subscribe())
	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	// Other strum invocations edit the saved session; follow the state
	// directory and apply live-safe changes to the running engine.
	followSession(ctx, st, eng)

	if cfg.Library.Watch && lib != nil {
		folders := libraryFolders()
		go func() { _ = lib.Watch(ctx, folders, nil) }()
	}

	// Kick off playback.
	switch {
	case startTrack != nil:
		eng.Play(*startTrack)
	case len(startQueue) > 0:
		start := 0
		if eng.Snapshot().Shuffle {
			start = rand.IntN(len(startQueue))
		}
		eng.ReplaceQueue(startQueue, start)
	default:
		if len(eng.Snapshot().Queue) == 0 {
			return strumerr.WithSuggestion(
				errors.New("nothing to resume"),
				"try 'strum play <query>' or 'strum play --all'")
		}
		eng.TogglePlay()
	}

	// Play and Toggle resolve synchronously, so a refused or failed
	// start is already on the snapshot.
	if snap := eng.Snapshot(); snap.Err != nil {
		if snap.State == core.StateEmpty || errors.Is(snap.Err, strumerr.ErrPlaybackBlocked) {
			return errors.New(strumerr.Format(snap.Err))
		}
	}

	formatter := watch.NewFormatter()
	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			fmt.Println(formatter.Format(event))

			if event.Type == watch.EventStop {
				if event.Current != nil && event.Current.Err != nil {
					return errors.New(strumerr.Format(event.Current.Err))
				}
				return nil
			}

		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// followSession mirrors session-file edits from other processes into
// the running engine. Only volume and mode changes are applied; queue
// and history edits wait for the next start so they cannot fight the
// engine's own writes.
func followSession(ctx context.Context, st *store.Store, eng *engine.Engine) {
	follower := watch.NewFollower(st)
	go func() { _ = follower.Start(ctx) }()
	go func() {
		for ev := range follower.Events() {
			if ev.Current == nil {
				continue
			}
			switch ev.Type {
			case watch.EventVolumeChange:
				eng.SetVolume(ev.Current.Volume)
			case watch.EventModeChange:
				eng.SetShuffle(ev.Current.Shuffle)
				eng.SetRepeat(ev.Current.Repeat)
			}
		}
	}()
}

// openStore opens the session state directory from config.
func openStore() (*store.Store, error) {
	st, err := store.New(config.ExpandPath(cfg.State.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory: %w", err)
	}
	return st, nil
}

// libraryFolders returns the configured library folders with ~ expanded.
func libraryFolders() []string {
	return lo.Map(cfg.Library.Folders, func(f string, _ int) string {
		return config.ExpandPath(f)
	})
}

// loadLibrary restores the saved library index, scanning the
// configured folders when the index is empty or a rescan is forced.
func loadLibrary(st *store.Store, rescan bool) (*library.Library, error) {
	lib := library.New(st, logger)

	if rescan || lib.Len() == 0 {
		res := lib.Scan(libraryFolders())
		if res.HasErrors() {
			fmt.Fprintln(os.Stderr, res.ErrorSummary())
		}
	}

	if lib.Len() == 0 {
		return nil, strumerr.WithSuggestion(strumerr.ErrLibraryEmpty,
			"set folders under [library] in your config, then run 'strum library scan'")
	}
	return lib, nil
}

// buildEngine wires the audio output and playback engine from config.
func buildEngine(st *store.Store) *engine.Engine {
	profile := device.Detect(cfg.Audio.ForceTouch)
	out := audio.NewSpeaker(profile, audio.Options{
		SampleRate: cfg.Audio.SampleRate,
		BufferLen:  time.Duration(cfg.Audio.BufferMs) * time.Millisecond,
	})

	repeat, _ := core.ParseRepeatMode(cfg.Defaults.Repeat)
	return engine.New(out, st, profile, engine.Options{
		Defaults: engine.Defaults{
			Volume:  cfg.Defaults.Volume,
			Shuffle: cfg.Defaults.Shuffle,
			Repeat:  repeat,
		},
		Logger: logger,
	})
}

// filterTracks keeps tracks whose field contains the query,
// case-insensitively.
func filterTracks(tracks []core.Track, field func(core.Track) string, query string) []core.Track {
	q := strings.ToLower(query)
	return lo.Filter(tracks, func(t core.Track, _ int) bool {
		return strings.Contains(strings.ToLower(field(t)), q)
	})
}
