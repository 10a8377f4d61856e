// Package styles holds the shared lipgloss styles for the TUI. The
// palette comes from catppuccin: Mocha for dark terminals, Latte for
// light ones.
package styles

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"

	"github.com/strumhq/strum/internal/core"
)

// Palette colors, rebuilt by Apply.
var (
	Primary   lipgloss.TerminalColor
	Success   lipgloss.TerminalColor
	Warning   lipgloss.TerminalColor
	Error     lipgloss.TerminalColor
	Text      lipgloss.TerminalColor
	TextMuted lipgloss.TerminalColor
	TextDim   lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
)

// Text styles, rebuilt by Apply.
var (
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	ErrText   lipgloss.Style
)

// Border styles, rebuilt by Apply.
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	Apply("auto")
}

// Apply rebuilds every style for the given theme ("auto", "dark", or
// "light"). Call it once at startup, before the program renders.
func Apply(theme string) {
	light := catppuccin.Latte
	dark := catppuccin.Mocha

	pick := func(l, d string) lipgloss.TerminalColor {
		switch theme {
		case "light":
			return lipgloss.Color(l)
		case "dark":
			return lipgloss.Color(d)
		default:
			return lipgloss.AdaptiveColor{Light: l, Dark: d}
		}
	}

	Primary = pick(light.Mauve().Hex, dark.Mauve().Hex)
	Success = pick(light.Green().Hex, dark.Green().Hex)
	Warning = pick(light.Peach().Hex, dark.Peach().Hex)
	Error = pick(light.Red().Hex, dark.Red().Hex)
	Text = pick(light.Text().Hex, dark.Text().Hex)
	TextMuted = pick(light.Subtext0().Hex, dark.Subtext0().Hex)
	TextDim = pick(light.Overlay0().Hex, dark.Overlay0().Hex)
	Border = pick(light.Surface1().Hex, dark.Surface1().Hex)

	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(Success)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	ErrText = lipgloss.NewStyle().Foreground(Error)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel creates a styled panel with optional focus.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title.
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string.
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(Repeat("━", filled)) +
		emptyStyle.Render(Repeat("─", width-filled))
}

// StatusIcon returns an icon for the transport state.
func StatusIcon(state core.TransportState) string {
	switch state {
	case core.StatePlaying:
		return Playing.Render("▶")
	case core.StatePaused:
		return Paused.Render("⏸")
	case core.StateLoading, core.StateAdvancing:
		return Muted.Render("…")
	default:
		return Dim.Render("■")
	}
}

// ModeIndicator renders the shuffle and repeat flags.
func ModeIndicator(shuffle bool, repeat core.RepeatMode) string {
	shuffleIcon := Dim.Render("⇄")
	if shuffle {
		shuffleIcon = Playing.Render("⇄")
	}

	var repeatIcon string
	switch repeat {
	case core.RepeatAll:
		repeatIcon = Playing.Render("↻")
	case core.RepeatOne:
		repeatIcon = Playing.Render("↻¹")
	default:
		repeatIcon = Dim.Render("↻")
	}

	return shuffleIcon + " " + repeatIcon
}

// Repeat repeats a string n times.
func Repeat(s string, n int) string {
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}
