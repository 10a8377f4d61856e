// Package reveal shows a track's file in the system file manager.
package reveal

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Linux has no standard select-in-manager verb, so the parent
// directory opens instead.
var linuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}

// Reveal opens the file manager with the given file selected, where
// the platform supports selection. Remote locators cannot be revealed.
func Reveal(path string) error {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return fmt.Errorf("cannot reveal a remote track: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("file does not exist: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", "-R", abs).Run()
	case "windows":
		return exec.Command("explorer", "/select,", abs).Run()
	case "linux":
		return revealLinux(abs)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func revealLinux(path string) error {
	dir := filepath.Dir(path)

	if err := exec.Command("xdg-open", dir).Run(); err == nil {
		return nil
	}

	for _, fm := range linuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}
