package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/store"
	"github.com/strumhq/strum/internal/watch"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow session changes in real-time",
	Long: `Watch the saved session and print changes as they happen.

The session reflects what a running player (or another strum command)
writes: track changes, volume changes, shuffle/repeat changes, and
queue edits.`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	formatter := watch.NewFormatter(
		watch.WithEmoji(!tailNoEmoji),
		watch.WithTimestamp(tailTimestamp),
		watch.WithTemplate(tailFormat),
	)

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	showRecentlyPlayed(st)

	follower := watch.NewFollower(st)

	errCh := make(chan error, 1)
	go func() {
		errCh <- follower.Start(ctx)
	}()

	for {
		select {
		case event, ok := <-follower.Events():
			if !ok {
				return nil
			}
			fmt.Println(formatter.Format(event))

		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// showRecentlyPlayed prints the last few session tracks so the tail
// starts with context.
func showRecentlyPlayed(st *store.Store) {
	entries := history.New(st).Entries()
	if len(entries) > 5 {
		entries = entries[:5]
	}

	// Oldest first so the newest sits at the bottom
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		timestamp := ""
		if tailTimestamp {
			timestamp = entry.PlayedAt.Local().Format("15:04:05") + " "
		}
		emoji := ""
		if !tailNoEmoji {
			emoji = "⏪ "
		}
		fmt.Printf("%s%s%s\n", timestamp, emoji, entry.Display())
	}
}
