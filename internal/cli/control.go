package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strumhq/strum/internal/core"
	strumerr "github.com/strumhq/strum/internal/errors"
	"github.com/strumhq/strum/internal/store"
)

var (
	volumeUp   bool
	volumeDown bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust the session volume",
	Long: `Set the session volume (0-100) or adjust it up/down.

The change is written to the saved session: a running player picks it
up live, and the next player starts with it.

Examples:
  strum volume          # Show current volume
  strum volume 50       # Set volume to 50%
  strum volume --up     # Increase volume by 10%
  strum volume --down   # Decrease volume by 10%`,
	RunE: runVolume,
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle [on|off]",
	Short: "Toggle or set shuffle",
	Long: `Toggle shuffle, or set it explicitly with on/off. A running player
picks the change up live.`,
	RunE: runShuffle,
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [off|all|one]",
	Short: "Cycle or set the repeat mode",
	Long: `Cycle the repeat mode (off -> all -> one), or set it explicitly.
A running player picks the change up live.`,
	RunE: runRepeat,
}

var seekCmd = &cobra.Command{
	Use:   "seek <seconds>",
	Short: "Seek within the current track",
	Long: `Seek within the current track.
The play position lives only inside a running player, so this command
cannot reach it from a separate process.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

func init() {
	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Increase volume by 10%")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Decrease volume by 10%")

	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(repeatCmd)
	rootCmd.AddCommand(seekCmd)
}

func runVolume(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	current := st.GetInt(store.KeyVolume, cfg.Defaults.Volume)

	if !volumeUp && !volumeDown && len(args) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]int{"volume": current})
		}
		fmt.Printf("🔊 Volume: %d%%\n", current)
		return nil
	}

	target := current
	switch {
	case volumeUp:
		target = current + 10
	case volumeDown:
		target = current - 10
	default:
		val, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid volume level: %s", args[0])
		}
		target = val
	}

	if target > 100 {
		target = 100
	}
	if target < 0 {
		target = 0
	}

	if err := st.SetInt(store.KeyVolume, target); err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]int{
			"volume":   target,
			"previous": current,
		})
	}
	fmt.Printf("🔊 Volume: %d%% (was %d%%)\n", target, current)
	return nil
}

func runShuffle(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	current := st.GetBool(store.KeyShuffle, cfg.Defaults.Shuffle)

	target := !current
	if len(args) > 0 {
		switch args[0] {
		case "on", "true", "1":
			target = true
		case "off", "false", "0":
			target = false
		default:
			return fmt.Errorf("invalid shuffle value %q (on, off)", args[0])
		}
	}

	if err := st.SetBool(store.KeyShuffle, target); err != nil {
		return fmt.Errorf("failed to save shuffle: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]bool{"shuffle": target})
	}
	fmt.Printf("🔀 Shuffle %s\n", onOff(target))
	return nil
}

func runRepeat(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	current, _ := core.ParseRepeatMode(st.GetString(store.KeyRepeat, cfg.Defaults.Repeat))

	target := current.Cycle()
	if len(args) > 0 {
		mode, ok := core.ParseRepeatMode(args[0])
		if !ok {
			return fmt.Errorf("invalid repeat mode %q (off, all, one)", args[0])
		}
		target = mode
	}

	if err := st.SetString(store.KeyRepeat, string(target)); err != nil {
		return fmt.Errorf("failed to save repeat mode: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"repeat": string(target)})
	}
	fmt.Printf("↻ Repeat %s\n", target)
	return nil
}

func runSeek(cmd *cobra.Command, args []string) error {
	if _, err := strconv.Atoi(args[0]); err != nil {
		return fmt.Errorf("invalid position: %s", args[0])
	}

	return strumerr.WithSuggestion(
		errors.New("seek needs a running player"),
		"use the arrow keys in 'strum ui' to seek")
}
