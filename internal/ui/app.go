package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/osuradio/internal/config"
	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/logtail"
	"github.com/five82/osuradio/internal/prefs"
	"github.com/five82/osuradio/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewNowPlaying View = iota
	ViewLibrary
	ViewLogs
)

var viewNames = map[View]string{
	ViewNowPlaying: "now",
	ViewLibrary:    "library",
	ViewLogs:       "logs",
}

// String returns the name persisted in the TUI preferences.
func (v View) String() string { return viewNames[v] }

func parseView(name string) View {
	for v, n := range viewNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return v
		}
	}
	return ViewNowPlaying
}

// Actions are the daemon calls the UI triggers from key presses.
type Actions interface {
	Rescan(ctx context.Context) ([]library.Song, error)
	Connect(ctx context.Context) error
	ToggleLike(ctx context.Context, songID string) (bool, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    Actions
	Store     *state.Store
	Config    *config.Config
	PollTick  time.Duration
	ThemeName string
	ViewName  string
	PrefsPath string
	Logger    zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Actions
	store     *state.Store
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	logger    zerolog.Logger
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Transient status line for actions
	flash      string
	flashError bool
	flashAt    time.Time

	libraryTable table.Model
	progressBar  progress.Model

	logViewport viewport.Model
	logEntries  []logtail.Entry
	logFollow   bool
	logErr      error
}

const (
	flashTTL    = 5 * time.Second
	maxLogLines = 400
	chromeLines = 2 // header + command bar
)

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.ThemeName)
	tbl := table.New(
		table.WithColumns(libraryColumns(80)),
		table.WithFocused(true),
	)
	tbl.SetStyles(theme.TableStyles())

	return Model{
		ctx:          ctx,
		client:       opts.Client,
		store:        opts.Store,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		logger:       opts.Logger,
		keys:         DefaultKeyMap(),
		theme:        theme,
		currentView:  parseView(opts.ViewName),
		libraryTable: tbl,
		progressBar:  newProgressBar(theme),
		logViewport:  viewport.New(80, 20),
		logFollow:    true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, m.refreshLogs())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.updateLibraryTable()
		return m, nil

	case logsMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil

	case actionMsg:
		return m.handleAction(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.libraryTable.SetStyles(m.theme.TableStyles())
		m.progressBar = newProgressBar(m.theme)
		m.resize()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % 3)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + 2) % 3)

	case key.Matches(msg, m.keys.ViewNowPlaying):
		return m.switchView(ViewNowPlaying)

	case key.Matches(msg, m.keys.ViewLibrary):
		return m.switchView(ViewLibrary)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.Rescan):
		m.setFlash("Rescanning library…", false)
		return m, m.rescanCmd()

	case key.Matches(msg, m.keys.Connect):
		m.setFlash("Connecting to presence service…", false)
		return m, m.connectCmd()

	case key.Matches(msg, m.keys.Like):
		id := m.likeTarget()
		if id == "" {
			m.setFlash("No song selected", true)
			return m, nil
		}
		return m, m.likeCmd(id)
	}

	switch m.currentView {
	case ViewLibrary:
		return m.handleLibraryKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.savePrefs()
	if v == ViewLogs {
		return m, m.refreshLogs()
	}
	return m, nil
}

// likeTarget is the selected library row, or the playing song elsewhere.
func (m Model) likeTarget() string {
	if m.currentView == ViewLibrary {
		if song, ok := m.selectedSong(); ok {
			return song.ID
		}
		return ""
	}
	if np := m.snapshot.Status.NowPlaying; np != nil {
		return np.ID
	}
	return ""
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, View: m.currentView.String()}); err != nil {
		m.logger.Warn().Err(err).Msg("save tui prefs")
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashError = isErr
	m.flashAt = time.Now()
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setFlash(msg.label+" failed: "+msg.err.Error(), true)
		m.logger.Warn().Err(msg.err).Str("action", msg.label).Msg("action failed")
		return m, nil
	}
	m.setFlash(msg.done, false)
	if m.store == nil {
		return m, nil
	}
	if msg.songs != nil {
		m.store.SetLibrary(msg.songs)
	}
	if msg.likeID != "" {
		m.store.MarkLiked(msg.likeID, msg.liked)
	}
	return m, fetchSnapshotCmd(m.store)
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.refreshLogs())
	}
	if m.flash != "" && time.Since(m.flashAt) > flashTTL {
		m.flash = ""
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// resize propagates the window size to the sized components.
func (m *Model) resize() {
	body := max(m.height-chromeLines, 3)
	m.libraryTable.SetColumns(libraryColumns(m.width))
	m.libraryTable.SetWidth(m.width)
	m.libraryTable.SetHeight(body - 1)
	m.progressBar.Width = max(min(m.width-24, 60), 10)
	m.logViewport.Width = m.width
	m.logViewport.Height = body
	m.updateLibraryTable()
	m.updateLogViewport()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLibrary:
		return m.renderLibrary()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderNowPlaying()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// actionMsg reports the outcome of a daemon call started from a key press.
type actionMsg struct {
	label  string
	done   string
	err    error
	songs  []library.Song
	likeID string
	liked  bool
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) rescanCmd() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if client == nil {
			return actionMsg{label: "Rescan", err: errNoClient}
		}
		songs, err := client.Rescan(ctx)
		if err != nil {
			return actionMsg{label: "Rescan", err: err}
		}
		if songs == nil {
			songs = []library.Song{}
		}
		return actionMsg{label: "Rescan", done: pluralSongs(len(songs)) + " in library", songs: songs}
	}
}

func (m Model) connectCmd() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if client == nil {
			return actionMsg{label: "Connect", err: errNoClient}
		}
		if err := client.Connect(ctx); err != nil {
			return actionMsg{label: "Connect", err: err}
		}
		return actionMsg{label: "Connect", done: "Connect requested"}
	}
}

func (m Model) likeCmd(id string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if client == nil {
			return actionMsg{label: "Like", err: errNoClient}
		}
		liked, err := client.ToggleLike(ctx, id)
		if err != nil {
			return actionMsg{label: "Like", err: err}
		}
		done := "Removed from liked songs"
		if liked {
			done = "Added to liked songs"
		}
		return actionMsg{label: "Like", done: done, likeID: id, liked: liked}
	}
}

func (m Model) refreshLogs() tea.Cmd {
	if m.config == nil {
		return nil
	}
	path := m.config.LogPath()
	return func() tea.Msg {
		entries, err := logtail.Tail(path, maxLogLines)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
