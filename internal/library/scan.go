package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/strumhq/strum/internal/core"
)

// Formats the playback decoder understands.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// Supported reports whether the file at path has a playable extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// findAudioFiles walks root and collects every supported audio file.
// Hidden directories are skipped.
func findAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if Supported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// readTrack builds a track from the file's embedded metadata. Files
// without readable tags still index: the title falls back to the file
// name so every discovered file stays playable.
func readTrack(path string) (core.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	track := core.Track{
		ID:      TrackID(abs),
		Title:   titleFromPath(abs),
		Locator: abs,
	}

	f, err := os.Open(abs)
	if err != nil {
		return core.Track{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// No usable tags. Keep the filename-derived title.
		return track, nil
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		track.Title = t
	}
	track.Artist = strings.TrimSpace(m.Artist())
	track.Album = strings.TrimSpace(m.Album())
	if m.Picture() != nil {
		track.Artwork = abs
	}

	return track, nil
}

// titleFromPath derives a display title from the file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
