package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/core"
	strumerr "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the music library index",
	Long:  `Commands for scanning and browsing the indexed music library.`,
}

var libraryScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the configured folders",
	Long: `Walk the folders under [library] in the config, read tags from every
playable file, and save the index. Folders that cannot be read are
reported and skipped; the rest of the scan still completes.`,
	RunE: runLibraryScan,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed tracks",
	RunE:  runLibraryList,
}

var librarySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed tracks",
	Long:  `Case-insensitive substring search over title, artist, and album.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLibrarySearch,
}

func init() {
	libraryCmd.AddCommand(libraryScanCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(librarySearchCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryScan(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	folders := libraryFolders()
	if len(folders) == 0 {
		return strumerr.WithSuggestion(strumerr.ErrInvalidConfig,
			"set folders under [library] in your config, e.g. folders = [\"~/Music\"]")
	}

	lib := library.New(st, logger)
	res := lib.Scan(folders)

	if res.HasErrors() {
		fmt.Fprintln(os.Stderr, res.ErrorSummary())
	}

	tracks := res.Data
	size := totalSize(tracks)

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"tracks":   len(tracks),
			"bytes":    size,
			"folders":  folders,
			"warnings": len(res.Errors),
		})
	}

	fmt.Printf("Indexed %s tracks (%s)\n", humanize.Comma(int64(len(tracks))), humanize.Bytes(uint64(size)))
	return nil
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	lib, err := loadLibrary(st, false)
	if err != nil {
		return err
	}

	return printTracks(lib.Tracks())
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	lib, err := loadLibrary(st, false)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	matches := lib.Search(query)
	if len(matches) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode([]interface{}{})
		}
		fmt.Printf("No matches for %q\n", query)
		return nil
	}

	return printTracks(matches)
}

func printTracks(tracks []core.Track) error {
	if JSONOutput() {
		output := make([]map[string]interface{}, len(tracks))
		for i, t := range tracks {
			output[i] = map[string]interface{}{
				"id":      t.ID,
				"title":   t.Title,
				"artist":  t.Artist,
				"album":   t.Album,
				"locator": t.Locator,
			}
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	table := NewTable("TITLE", "ARTIST", "ALBUM")
	for _, t := range tracks {
		table.Row(
			TruncateString(t.Title, 40),
			TruncateString(t.Artist, 30),
			TruncateString(t.Album, 30),
		)
	}
	table.Flush()

	fmt.Printf("\n%s tracks\n", humanize.Comma(int64(len(tracks))))
	return nil
}

// totalSize sums the on-disk size of local tracks. Unreadable files
// just do not count.
func totalSize(tracks []core.Track) int64 {
	var size int64
	for _, t := range tracks {
		if info, err := os.Stat(t.Locator); err == nil {
			size += info.Size()
		}
	}
	return size
}
