// Package library maintains the index of playable tracks found under
// the configured music folders. The index is persisted between runs so
// commands can resolve tracks without a rescan.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/strumhq/strum/internal/core"
	apperrors "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/store"
)

// Library holds the scanned track index. It is safe for concurrent use.
type Library struct {
	st     *store.Store
	logger *slog.Logger

	mu     sync.RWMutex
	tracks []core.Track
	byID   map[string]int
}

// New creates a library backed by st and restores the previously
// persisted index, if any.
func New(st *store.Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Library{
		st:     st,
		logger: logger,
		byID:   make(map[string]int),
	}

	var tracks []core.Track
	if st != nil && st.GetJSON(store.KeyLibraryIndex, &tracks) {
		l.replace(tracks)
		logger.Debug("restored library index", "tracks", len(tracks))
	}

	return l
}

// TrackID derives the stable identifier for a file path. Rescans of an
// unchanged file always produce the same ID, so queue and history
// references survive a rescan.
func TrackID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

// Scan walks the given folders, reads metadata from every supported
// audio file, and replaces the index with the result. Unreadable files
// are reported as partial errors; they do not abort the scan.
func (l *Library) Scan(folders []string) *apperrors.PartialResult[[]core.Track] {
	result := &apperrors.PartialResult[[]core.Track]{}

	var tracks []core.Track
	seen := make(map[string]bool)

	for _, folder := range folders {
		if _, err := os.Stat(folder); err != nil {
			result.AddError(fmt.Errorf("folder %s: %w", folder, err))
			continue
		}

		paths, err := findAudioFiles(folder)
		if err != nil {
			result.AddError(fmt.Errorf("walk %s: %w", folder, err))
		}

		for _, path := range paths {
			if seen[path] {
				continue
			}
			seen[path] = true

			track, err := readTrack(path)
			if err != nil {
				result.AddError(fmt.Errorf("read %s: %w", path, err))
				continue
			}
			tracks = append(tracks, track)
		}
	}

	slices.SortFunc(tracks, func(a, b core.Track) int {
		if c := strings.Compare(strings.ToLower(a.Artist), strings.ToLower(b.Artist)); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.Album), strings.ToLower(b.Album)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})

	l.replace(tracks)

	if l.st != nil {
		if err := l.st.SetJSON(store.KeyLibraryIndex, tracks); err != nil {
			result.AddError(fmt.Errorf("persist index: %w", err))
		}
	}

	l.logger.Info("library scan complete", "tracks", len(tracks), "errors", len(result.Errors))
	result.Data = tracks
	return result
}

// Tracks returns a copy of the full index.
func (l *Library) Tracks() []core.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.tracks)
}

// Len returns the number of indexed tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Get looks up a track by its ID.
func (l *Library) Get(id string) (core.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byID[id]
	if !ok {
		return core.Track{}, false
	}
	return l.tracks[i], true
}

// Search returns every track whose title, artist, or album contains the
// query, case-insensitively. An empty query matches everything.
func (l *Library) Search(query string) []core.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(l.tracks)
	}

	return lo.Filter(l.tracks, func(t core.Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q)
	})
}

// Resolve finds the tracks matching a user query for playback. It tries
// an exact ID match first, then falls back to a metadata search.
func (l *Library) Resolve(query string) ([]core.Track, error) {
	if l.Len() == 0 {
		return nil, apperrors.ErrLibraryEmpty
	}

	if track, ok := l.Get(query); ok {
		return []core.Track{track}, nil
	}

	matches := l.Search(query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrTrackNotFound, query)
	}
	return matches, nil
}

func (l *Library) replace(tracks []core.Track) {
	byID := make(map[string]int, len(tracks))
	for i, t := range tracks {
		byID[t.ID] = i
	}

	l.mu.Lock()
	l.tracks = tracks
	l.byID = byID
	l.mu.Unlock()
}
