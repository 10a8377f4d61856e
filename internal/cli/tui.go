package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive player",
	Long: `Launch the interactive terminal player.

The player provides a live view with:
  • Now Playing - current track, progress, volume, modes
  • Queue - upcoming tracks
  • History - recently played tracks

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search library
  Space        Play/Pause
  n            Next track
  p            Previous track
  +/-          Volume up/down
  s            Toggle shuffle
  r            Cycle repeat
  Tab          Switch panel`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	lib, err := loadLibrary(st, false)
	if err != nil {
		return err
	}

	eng := buildEngine(st)
	defer func() { _ = eng.Close() }()

	if cfg.Library.Watch {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		folders := libraryFolders()
		go func() { _ = lib.Watch(ctx, folders, nil) }()
	}

	return tui.Run(&tui.App{
		Controller: eng,
		Library:    lib,
		History:    eng.HistoryEntries,
		Theme:      cfg.TUI.Theme,
	})
}
