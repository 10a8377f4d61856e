// Package tui renders the interactive player over a playback
// controller. The model never polls: it follows the controller's
// snapshot subscription, so everything visible is one published
// snapshot behind the engine at worst.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strumhq/strum/internal/core"
	"github.com/strumhq/strum/internal/history"
	"github.com/strumhq/strum/internal/library"
	"github.com/strumhq/strum/internal/reveal"
	"github.com/strumhq/strum/internal/tui/components"
	"github.com/strumhq/strum/internal/tui/styles"
)

// Panel represents which panel is focused.
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelHistory
)

const (
	volumeStep = 5
	seekStep   = 5 * time.Second
	noteTTL    = 4 * time.Second
)

// App wires the TUI to the rest of the player.
type App struct {
	Controller core.Controller
	Library    *library.Library
	// History supplies the timestamped recently-played list; the
	// snapshot alone carries bare tracks.
	History func() []history.Entry
	Theme   string
}

// Model is the main TUI model.
type Model struct {
	app          *App
	sub          <-chan core.Snapshot
	width        int
	height       int
	focusedPanel Panel

	snap    *core.Snapshot
	entries []history.Entry

	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	historyView *components.History

	showHelp bool

	showSearch    bool
	searchInput   textinput.Model
	searchResults []core.Track
	searchCursor  int

	// Transient feedback for yank and reveal
	note       string
	noteExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model over an existing subscription.
func NewModel(app *App, sub <-chan core.Snapshot) Model {
	ti := textinput.New()
	ti.Placeholder = "Search your library..."
	ti.CharLimit = 100
	ti.Width = 50

	return Model{
		app:         app,
		sub:         sub,
		nowPlaying:  components.NewNowPlaying(),
		queueView:   components.NewQueue(),
		historyView: components.NewHistory(),
		searchInput: ti,
	}
}

// Messages
type snapshotMsg core.Snapshot
type subClosedMsg struct{}
type noteMsg string

// waitForSnapshot blocks on the subscription and hands the next
// snapshot to Update. It re-arms itself there.
func waitForSnapshot(sub <-chan core.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return subClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// do wraps a controller command in a tea.Cmd so a slow load never
// freezes the UI. The resulting state arrives via the subscription.
func do(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForSnapshot(m.sub))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		snap := core.Snapshot(msg)
		m.snap = &snap
		if m.app.History != nil {
			m.entries = m.app.History()
		}
		return m, waitForSnapshot(m.sub)

	case subClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case noteMsg:
		m.note = string(msg)
		m.noteExpiry = time.Now().Add(noteTTL)
		return m, nil
	}

	// Forward other messages to the text input when search is active
	if m.showSearch {
		var inputCmd tea.Cmd
		m.searchInput, inputCmd = m.searchInput.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showSearch {
		return m.handleSearchKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		m.showSearch = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.searchResults = nil
		m.searchCursor = 0
		return m, textinput.Blink

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % 3
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + 2) % 3
		return m, nil
	}

	// Playback controls
	c := m.app.Controller
	switch msg.String() {
	case " ":
		return m, do(c.TogglePlay)
	case "n":
		return m, do(c.Next)
	case "p":
		return m, do(c.Previous)
	case "+", "=":
		if m.snap != nil {
			level := m.snap.Volume + volumeStep
			return m, do(func() { c.SetVolume(level) })
		}
	case "-":
		if m.snap != nil {
			level := m.snap.Volume - volumeStep
			return m, do(func() { c.SetVolume(level) })
		}
	case "s":
		return m, do(func() { c.ToggleShuffle() })
	case "r":
		return m, do(func() { c.CycleRepeat() })
	case "left":
		if m.snap != nil {
			to := m.snap.Position - seekStep
			return m, do(func() { c.Seek(to) })
		}
	case "right":
		if m.snap != nil {
			to := m.snap.Position + seekStep
			return m, do(func() { c.Seek(to) })
		}
	case "y":
		return m, m.yankTrack()
	case "o":
		return m, m.revealTrack()
	}

	// Panel-specific keys
	if m.focusedPanel == PanelQueue && m.snap != nil {
		queueLen := len(m.snap.Queue)
		switch msg.String() {
		case "j", "down":
			m.queueView.CursorDown(queueLen)
		case "k", "up":
			m.queueView.CursorUp()
		case "enter":
			if i := m.queueView.Cursor(); i < queueLen {
				track := m.snap.Queue[i]
				return m, do(func() { c.Play(track) })
			}
		case "x":
			if i := m.queueView.Cursor(); i < queueLen {
				id := m.snap.Queue[i].ID
				return m, do(func() { c.Remove(id) })
			}
		}
	}

	return m, nil
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.app.Controller

	switch msg.String() {
	case "esc":
		m.showSearch = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if len(m.searchResults) > 0 && m.searchCursor < len(m.searchResults) {
			track := m.searchResults[m.searchCursor]
			m.showSearch = false
			m.searchInput.Blur()
			return m, do(func() { c.Play(track) })
		}
		return m, nil

	case "ctrl+q":
		if len(m.searchResults) > 0 && m.searchCursor < len(m.searchResults) {
			track := m.searchResults[m.searchCursor]
			m.showSearch = false
			m.searchInput.Blur()
			return m, tea.Batch(
				do(func() { c.Enqueue(track) }),
				func() tea.Msg { return noteMsg("Queued: " + track.Display()) },
			)
		}
		return m, nil

	case "up", "ctrl+p":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil
	}

	// The library is local, so filtering on every keystroke is fine.
	var inputCmd tea.Cmd
	m.searchInput, inputCmd = m.searchInput.Update(msg)
	if m.app.Library != nil {
		if q := m.searchInput.Value(); q != "" {
			m.searchResults = m.app.Library.Search(q)
		} else {
			m.searchResults = nil
		}
		if m.searchCursor >= len(m.searchResults) {
			m.searchCursor = 0
		}
	}
	return m, inputCmd
}

func (m Model) yankTrack() tea.Cmd {
	if m.snap == nil || !m.snap.HasTrack() {
		return nil
	}
	text := m.snap.Track.Display()
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noteMsg("Copy failed: " + err.Error())
		}
		return noteMsg("Copied: " + text)
	}
}

func (m Model) revealTrack() tea.Cmd {
	if m.snap == nil || !m.snap.HasTrack() {
		return nil
	}
	locator := m.snap.Track.Locator
	return func() tea.Msg {
		if err := reveal.Reveal(locator); err != nil {
			return noteMsg("Reveal failed: " + err.Error())
		}
		return noteMsg("Opened in file manager")
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showSearch {
		return m.renderSearch()
	}

	// Layout: Now Playing across the top, queue and history below.
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2
	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth - 2

	currentID := ""
	var queueTracks []core.Track
	if m.snap != nil {
		if m.snap.HasTrack() {
			currentID = m.snap.Track.ID
		}
		queueTracks = m.snap.Queue
	}

	nowPlaying := m.nowPlaying.Render(m.snap, m.width-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	queueView := m.queueView.Render(queueTracks, currentID, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelQueue)
	historyView := m.historyView.Render(m.entries, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)

	bottom := lipgloss.JoinHorizontal(lipgloss.Top, queueView, historyView)
	main := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, bottom)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  n:next  p:prev  +/-:volume  tab:panel")

	if m.note != "" && time.Now().Before(m.noteExpiry) {
		status = styles.Muted.Render(m.note)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "strum - Keyboard Shortcuts"
	divider := styles.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search library
  Tab          Next panel
  Shift+Tab    Previous panel

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  p            Previous track
  +/=          Volume up
  -            Volume down
  s            Toggle shuffle
  r            Cycle repeat
  ←/→          Seek 5s

  Current Track
  ─────────────
  y            Copy title to clipboard
  o            Show file in file manager

  Queue Panel
  ───────────
  j/↓          Cursor down
  k/↑          Cursor up
  Enter        Play selected
  x            Remove selected

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderSearch() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if len(m.searchResults) == 0 && m.searchInput.Value() != "" {
		b.WriteString(styles.Muted.Render("No matches"))
	} else {
		maxResults := 10
		for i, track := range m.searchResults {
			if i >= maxResults {
				b.WriteString(styles.Dim.Render(fmt.Sprintf("  ...and %d more", len(m.searchResults)-maxResults)))
				break
			}

			line := track.Title
			if track.Artist != "" {
				line += " " + styles.Muted.Render(track.Artist)
			}
			if track.Album != "" {
				line += " " + styles.Dim.Render("("+track.Album+")")
			}

			if i == m.searchCursor {
				b.WriteString(styles.Highlight.Render("▸ " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓:nav  Enter:play  Ctrl+q:queue  Esc:close"))

	content := lipgloss.NewStyle().
		Width(60).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the TUI and blocks until it exits.
func Run(app *App) error {
	styles.Apply(app.Theme)

	sub := app.Controller.Subscribe()
	defer app.Controller.Unsubscribe(sub)

	model := NewModel(app, sub)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
