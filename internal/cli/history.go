package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	Long:  `Shows the recently played tracks, most recent first.`,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the playback history",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", history.Capacity, "Maximum number of entries to show")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	entries := history.New(st).Entries()
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if len(entries) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"history": []interface{}{},
				"message": "No playback history",
			})
		}
		fmt.Println("No playback history")
		return nil
	}

	if JSONOutput() {
		output := make([]map[string]interface{}, len(entries))
		for i, e := range entries {
			output[i] = map[string]interface{}{
				"title":     e.Title,
				"artist":    e.Artist,
				"album":     e.Album,
				"played_at": e.PlayedAt,
			}
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	for _, e := range entries {
		fmt.Printf("♪ %s  %s\n", e.Display(), humanize.Time(e.PlayedAt))
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	tracker := history.New(st)
	count := tracker.Len()
	if err := tracker.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":  "cleared",
			"removed": count,
		})
	}
	fmt.Printf("Cleared %d tracks from history\n", count)
	return nil
}
