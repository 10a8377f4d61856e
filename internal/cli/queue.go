package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/queue"
	"github.com/strumhq/strum/internal/store"
	"github.com/strumhq/strum/internal/wizard"
)

var queueLimit int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the playback queue",
	Long: `View and manage the saved playback queue.

Queue edits are picked up the next time a player starts.`,
	RunE: runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Add a track to the queue",
	Long: `Search the library for a track and append it to the queue. A track
already queued is left where it is.

Examples:
  strum queue add "holiday"
  strum queue add "the din of"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQueueAdd,
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <position>",
	Short: "Remove a track from the queue",
	Long:  `Remove the track at the given position (as shown by 'strum queue').`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueRemove,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the queue",
	RunE:  runQueueClear,
}

func init() {
	queueCmd.Flags().IntVarP(&queueLimit, "limit", "l", 20, "Maximum number of tracks to show")

	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRemoveCmd)
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

// loadQueue restores the saved queue into a Queue so edits keep its
// uniqueness rules.
func loadQueue(st *store.Store) *queue.Queue {
	var tracks []core.Track
	st.GetJSON(store.KeyQueue, &tracks)

	q := queue.New()
	q.EnqueueAll(tracks)
	return q
}

func saveQueue(st *store.Store, q *queue.Queue) error {
	if err := st.SetJSON(store.KeyQueue, q.Tracks()); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	tracks := loadQueue(st).Tracks()

	if len(tracks) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"queue":   []interface{}{},
				"message": "Queue is empty",
			})
		}
		fmt.Println("Queue is empty")
		return nil
	}

	shown := tracks
	if queueLimit > 0 && len(shown) > queueLimit {
		shown = shown[:queueLimit]
	}

	if JSONOutput() {
		output := make([]map[string]interface{}, len(shown))
		for i, t := range shown {
			output[i] = map[string]interface{}{
				"position": i + 1,
				"title":    t.Title,
				"artist":   t.Artist,
				"album":    t.Album,
				"locator":  t.Locator,
			}
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"queue": output,
			"total": len(tracks),
		})
	}

	fmt.Println("Queue:")
	for i, t := range shown {
		prefix := "  "
		if i == 0 {
			prefix = "▶ "
		}
		line := fmt.Sprintf("%s%d. %s", prefix, i+1, t.Display())
		if t.Duration > 0 {
			line += fmt.Sprintf(" (%s)", FormatDuration(t.Duration))
		}
		fmt.Println(line)
	}

	if len(tracks) > len(shown) {
		fmt.Printf("\n... and %d more tracks\n", len(tracks)-len(shown))
	}

	return nil
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	lib, err := loadLibrary(st, false)
	if err != nil {
		return err
	}

	query := args[0]
	matches, err := lib.Resolve(query)
	if err != nil {
		return err
	}

	track, err := wizard.ChooseTrack(matches, query)
	if err != nil {
		return err
	}

	q := loadQueue(st)
	added := q.Enqueue(track)
	if added {
		if err := saveQueue(st, q); err != nil {
			return err
		}
	}

	if JSONOutput() {
		status := "added"
		if !added {
			status = "already_queued"
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status": status,
			"track":  track.Display(),
			"total":  q.Len(),
		})
	}

	if added {
		fmt.Printf("Added to queue: %s (%d queued)\n", track.Display(), q.Len())
	} else {
		fmt.Printf("Already queued: %s\n", track.Display())
	}
	return nil
}

func runQueueRemove(cmd *cobra.Command, args []string) error {
	position, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid position: %s", args[0])
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	q := loadQueue(st)
	tracks := q.Tracks()
	if position < 1 || position > len(tracks) {
		return fmt.Errorf("position %d out of range (queue has %d tracks)", position, len(tracks))
	}

	removed := tracks[position-1]
	q.Remove(removed.ID)
	if err := saveQueue(st, q); err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status": "removed",
			"track":  removed.Display(),
			"total":  q.Len(),
		})
	}
	fmt.Printf("Removed from queue: %s\n", removed.Display())
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	q := loadQueue(st)
	count := q.Len()
	q.Clear()
	if err := saveQueue(st, q); err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":  "cleared",
			"removed": count,
		})
	}
	fmt.Printf("Cleared %d tracks from the queue\n", count)
	return nil
}
