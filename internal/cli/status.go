package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/reveal"
	"github.com/strumhq/strum/internal/store"
)

var (
	statusCopy   bool
	statusReveal bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved playback session",
	Long: `Shows the saved session: the last played track, the queue, and the
volume/shuffle/repeat settings a player will start with.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusCopy, "copy", false, "Copy the last played track to the clipboard")
	statusCmd.Flags().BoolVar(&statusReveal, "reveal", false, "Show the last played track in the file manager")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	entries := history.New(st).Entries()

	var queue []core.Track
	st.GetJSON(store.KeyQueue, &queue)

	volume := st.GetInt(store.KeyVolume, cfg.Defaults.Volume)
	shuffle := st.GetBool(store.KeyShuffle, cfg.Defaults.Shuffle)
	repeat, _ := core.ParseRepeatMode(st.GetString(store.KeyRepeat, cfg.Defaults.Repeat))

	if len(entries) == 0 && len(queue) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"session": false,
				"message": "No saved session",
			})
		}
		fmt.Println("No saved session. Run 'strum play <query>' to start one.")
		return nil
	}

	var last *history.Entry
	if len(entries) > 0 {
		last = &entries[0]
	}

	if statusCopy || statusReveal {
		if last == nil {
			return fmt.Errorf("no last played track")
		}
		if statusCopy {
			if err := clipboard.WriteAll(last.Display()); err != nil {
				return fmt.Errorf("failed to copy: %w", err)
			}
			if !JSONOutput() {
				fmt.Printf("Copied: %s\n", last.Display())
			}
		}
		if statusReveal {
			if err := reveal.Reveal(last.Locator); err != nil {
				return fmt.Errorf("failed to reveal: %w", err)
			}
		}
		if !JSONOutput() {
			return nil
		}
	}

	if JSONOutput() {
		return outputSessionJSON(last, queue, volume, shuffle, repeat)
	}

	if last != nil {
		fmt.Printf("♪ %s\n", last.Title)
		if last.Artist != "" || last.Album != "" {
			fmt.Printf("  %s — %s\n", last.Artist, last.Album)
		}
		fmt.Printf("  played %s\n", humanize.Time(last.PlayedAt))
	}

	if len(queue) > 0 {
		fmt.Printf("Queue: %d tracks (next: %s)\n", len(queue), queue[0].Display())
	} else {
		fmt.Println("Queue: empty")
	}

	fmt.Printf("🔊 %d%%  Shuffle %s  Repeat %s\n", volume, onOff(shuffle), repeat)
	return nil
}

func outputSessionJSON(last *history.Entry, queue []core.Track, volume int, shuffle bool, repeat core.RepeatMode) error {
	item := map[string]interface{}{
		"session": true,
		"volume":  volume,
		"shuffle": shuffle,
		"repeat":  string(repeat),
		"queue":   len(queue),
	}

	if last != nil {
		item["track"] = map[string]interface{}{
			"title":     last.Title,
			"artist":    last.Artist,
			"album":     last.Album,
			"locator":   last.Locator,
			"played_at": last.PlayedAt,
		}
	}
	if len(queue) > 0 {
		item["next"] = queue[0].Display()
	}

	return json.NewEncoder(os.Stdout).Encode(item)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
