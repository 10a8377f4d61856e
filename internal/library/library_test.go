package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/strumhq/strum/internal/core"
	apperrors "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	return st
}

func writeFakeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestScanIndexesSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, "Blue Train.mp3")
	writeFakeAudio(t, dir, "albums/Kind of Blue.flac")
	writeFakeAudio(t, dir, "notes.txt")

	lib := New(newTestStore(t), nil)
	result := lib.Scan([]string{dir})

	if result.HasErrors() {
		t.Fatalf("Scan() errors = %v", result.Errors)
	}
	if lib.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lib.Len())
	}

	for _, track := range lib.Tracks() {
		if track.ID == "" {
			t.Error("indexed track has empty ID")
		}
		if !filepath.IsAbs(track.Locator) {
			t.Errorf("Locator = %q, want absolute path", track.Locator)
		}
		if !track.Playable() {
			t.Errorf("track %q not playable", track.Title)
		}
	}
}

func TestScanFallsBackToFilenameTitle(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, "So What.mp3")

	lib := New(newTestStore(t), nil)
	lib.Scan([]string{dir})

	tracks := lib.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("len(Tracks()) = %d, want 1", len(tracks))
	}
	if tracks[0].Title != "So What" {
		t.Errorf("Title = %q, want filename-derived %q", tracks[0].Title, "So What")
	}
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, ".trash/deleted.mp3")
	writeFakeAudio(t, dir, "kept.mp3")

	lib := New(newTestStore(t), nil)
	lib.Scan([]string{dir})

	if lib.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (hidden directory skipped)", lib.Len())
	}
}

func TestScanReportsMissingFolderButKeepsGoing(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, "song.mp3")

	lib := New(newTestStore(t), nil)
	result := lib.Scan([]string{filepath.Join(dir, "does-not-exist"), dir})

	if !result.HasErrors() {
		t.Error("Scan() reported no errors, want missing-folder error")
	}
	if lib.Len() != 1 {
		t.Errorf("Len() = %d, want 1 from the good folder", lib.Len())
	}
}

func TestScanPersistsIndex(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, "one.mp3")
	writeFakeAudio(t, dir, "two.flac")

	st := newTestStore(t)
	New(st, nil).Scan([]string{dir})

	restored := New(st, nil)
	if restored.Len() != 2 {
		t.Errorf("restored Len() = %d, want 2", restored.Len())
	}
}

func TestTrackIDStableAcrossScans(t *testing.T) {
	dir := t.TempDir()
	writeFakeAudio(t, dir, "anchor.mp3")

	lib := New(newTestStore(t), nil)
	lib.Scan([]string{dir})
	first := lib.Tracks()[0].ID

	lib.Scan([]string{dir})
	second := lib.Tracks()[0].ID

	if first != second {
		t.Errorf("track ID changed across rescans: %q != %q", first, second)
	}
}

func TestTrackIDDiffersPerPath(t *testing.T) {
	if TrackID("/music/a.mp3") == TrackID("/music/b.mp3") {
		t.Error("TrackID() identical for different paths")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.ogg", true},
		{"song.wav", true},
		{"song.m4a", false},
		{"cover.jpg", false},
		{"no-extension", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func seedIndex(t *testing.T, tracks []core.Track) *Library {
	t.Helper()
	st := newTestStore(t)
	if err := st.SetJSON(store.KeyLibraryIndex, tracks); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	return New(st, nil)
}

func TestSearchMatchesTitleArtistAlbum(t *testing.T) {
	lib := seedIndex(t, []core.Track{
		{ID: "1", Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Locator: "/m/1.mp3"},
		{ID: "2", Title: "Blue in Green", Artist: "Miles Davis", Album: "Kind of Blue", Locator: "/m/2.mp3"},
		{ID: "3", Title: "Giant Steps", Artist: "John Coltrane", Album: "Giant Steps", Locator: "/m/3.mp3"},
	})

	if got := len(lib.Search("miles")); got != 2 {
		t.Errorf("Search(miles) returned %d tracks, want 2", got)
	}
	if got := len(lib.Search("GIANT")); got != 1 {
		t.Errorf("Search(GIANT) returned %d tracks, want 1", got)
	}
	if got := len(lib.Search("kind of blue")); got != 2 {
		t.Errorf("Search(kind of blue) returned %d tracks, want 2", got)
	}
	if got := len(lib.Search("")); got != 3 {
		t.Errorf("Search(empty) returned %d tracks, want all 3", got)
	}
	if got := len(lib.Search("zeppelin")); got != 0 {
		t.Errorf("Search(zeppelin) returned %d tracks, want 0", got)
	}
}

func TestResolve(t *testing.T) {
	lib := seedIndex(t, []core.Track{
		{ID: "id-1", Title: "So What", Artist: "Miles Davis", Locator: "/m/1.mp3"},
		{ID: "id-2", Title: "So Long", Artist: "Someone Else", Locator: "/m/2.mp3"},
	})

	matches, err := lib.Resolve("id-1")
	if err != nil {
		t.Fatalf("Resolve(id-1) error = %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "id-1" {
		t.Errorf("Resolve(id-1) = %v, want exact ID match", matches)
	}

	matches, err = lib.Resolve("so")
	if err != nil {
		t.Fatalf("Resolve(so) error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Resolve(so) returned %d matches, want 2", len(matches))
	}

	if _, err := lib.Resolve("nothing here"); !errors.Is(err, apperrors.ErrTrackNotFound) {
		t.Errorf("Resolve(miss) error = %v, want ErrTrackNotFound", err)
	}
}

func TestResolveEmptyLibrary(t *testing.T) {
	lib := New(newTestStore(t), nil)
	if _, err := lib.Resolve("anything"); !errors.Is(err, apperrors.ErrLibraryEmpty) {
		t.Errorf("Resolve() on empty library error = %v, want ErrLibraryEmpty", err)
	}
}

func TestGet(t *testing.T) {
	lib := seedIndex(t, []core.Track{
		{ID: "abc", Title: "Track", Locator: "/m/t.mp3"},
	})

	if track, ok := lib.Get("abc"); !ok || track.Title != "Track" {
		t.Errorf("Get(abc) = (%v, %v), want the seeded track", track, ok)
	}
	if _, ok := lib.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}
