package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/playback"
	"github.com/desertthunder/lyricsphere/internal/tasks"
)

// Player drives playback from the UI goroutine. [playback.Session] implements it.
type Player interface {
	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	CycleMode(ctx context.Context) error
	Subscribe(ctx context.Context, fn func(playback.Snapshot)) (func(), error)
}

// Library is the playlists collection.
type Library interface {
	Playlists() []models.Playlist
	ToggleLike(trackID string) (bool, error)
	IsLiked(trackID string) bool
}

// Backup is the backup synchronizer.
type Backup interface {
	Upload(ctx context.Context, reason tasks.Reason) (tasks.Result, error)
	Status() string
	LastBackupAt() time.Time
	AutoBackupEnabled() bool
}

// Pane identifies the focused list.
type Pane int

const (
	UpcomingPane Pane = iota
	PlaylistsPane
)

const barWidth = 30

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	player    Player
	library   Library
	backup    Backup
	snapshots chan playback.Snapshot
	progress  <-chan tasks.ProgressUpdate

	unsubscribe  func()
	snapshot     playback.Snapshot
	upcoming     list.Model
	playlists    list.Model
	focus        Pane
	status       string
	backupStatus string
	backingUp    bool
	width        int
	height       int
	help         help.Model
	keys         keyMap
}

// NewModel creates the dashboard. progress may be nil.
func NewModel(ctx context.Context, player Player, library Library, backup Backup, progress <-chan tasks.ProgressUpdate) *Model {
	m := &Model{
		ctx:       ctx,
		player:    player,
		library:   library,
		backup:    backup,
		snapshots: make(chan playback.Snapshot, 1),
		progress:  progress,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.upcoming = newList("Up Next", nil)
	m.playlists = newList("Playlists", playlistItems(library.Playlists()))
	if backup != nil {
		m.backupStatus = backup.Status()
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 40, 12)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// Init subscribes to engine snapshots and starts listening for backup progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.subscribe(), m.waitForSnapshot(), m.waitForProgress())
}

// Close removes the engine subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Focus returns the focused pane.
func (m *Model) Focus() Pane { return m.focus }

// StatusLine returns the latest action or playback message.
func (m *Model) StatusLine() string { return m.status }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := max(msg.Width/2-4, 20)
		h := max(msg.Height-14, 5)
		m.upcoming.SetSize(w, h)
		m.playlists.SetSize(w, h)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case subscribedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Playback unavailable: %v", msg.err)
			return m, nil
		}
		m.unsubscribe = msg.unsubscribe
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.act("Play/pause", m.player.TogglePlay)
	case key.Matches(msg, m.keys.next):
		return m, m.act("Next", m.player.Next)
	case key.Matches(msg, m.keys.previous):
		return m, m.act("Previous", m.player.Previous)
	case key.Matches(msg, m.keys.mode):
		return m, m.act("Mode change", m.player.CycleMode)
	case key.Matches(msg, m.keys.like):
		return m, m.toggleLike()
	case key.Matches(msg, m.keys.backup):
		return m, m.startBackup()
	case key.Matches(msg, m.keys.focus):
		if m.focus == UpcomingPane {
			m.focus = PlaylistsPane
		} else {
			m.focus = UpcomingPane
		}
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		s := msg.data.(playback.Snapshot)
		m.snapshot = s
		m.upcoming.SetItems(trackItems(s.Queue.Upcoming))
		m.playlists.SetItems(playlistItems(m.library.Playlists()))
		if s.Status != "" {
			m.status = s.Status
		}
		return m, m.waitForSnapshot()

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.backupStatus = update.Message
		return m, m.waitForProgress()

	case MsgActionDone:
		data := msg.data.(struct {
			action string
			err    error
		})
		if data.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", data.action, data.err)
		}
		return m, nil

	case MsgLiked:
		data := msg.data.(struct {
			trackID string
			liked   bool
			err     error
		})
		switch {
		case data.err != nil:
			m.status = fmt.Sprintf("Like failed: %v", data.err)
		case data.liked:
			m.status = "Added to liked"
		default:
			m.status = "Removed from liked"
		}
		m.playlists.SetItems(playlistItems(m.library.Playlists()))
		return m, nil

	case MsgBackupDone:
		data := msg.data.(struct {
			result tasks.Result
			err    error
		})
		m.backingUp = false
		switch {
		case data.err != nil:
			m.backupStatus = fmt.Sprintf("Backup failed: %v", data.err)
		case data.result.Skipped:
			m.backupStatus = "Backup unchanged"
		default:
			m.backupStatus = "Backup uploaded: " + data.result.Message
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case UpcomingPane:
		m.upcoming, cmd = m.upcoming.Update(msg)
	case PlaylistsPane:
		m.playlists, cmd = m.playlists.Update(msg)
	}
	return m, cmd
}

type subscribedMsg struct {
	unsubscribe func()
	err         error
}

func (m *Model) subscribe() tea.Cmd {
	return func() tea.Msg {
		unsubscribe, err := m.player.Subscribe(m.ctx, m.offer)
		return subscribedMsg{unsubscribe: unsubscribe, err: err}
	}
}

// offer queues s, replacing a snapshot the UI has not consumed yet.
func (m *Model) offer(s playback.Snapshot) {
	for {
		select {
		case m.snapshots <- s:
			return
		default:
		}
		select {
		case <-m.snapshots:
		default:
		}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snapshots:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.progress:
			if !ok {
				return nil
			}
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) act(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(action, fn(m.ctx))
	}
}

func (m *Model) toggleLike() tea.Cmd {
	t := m.snapshot.Track
	if t == nil || m.snapshot.Passive {
		m.status = "Nothing to like"
		return nil
	}
	id := t.ID
	return func() tea.Msg {
		liked, err := m.library.ToggleLike(id)
		return likedMsg(id, liked, err)
	}
}

func (m *Model) startBackup() tea.Cmd {
	if m.backup == nil {
		m.backupStatus = "Backup is not configured"
		return nil
	}
	if m.backingUp {
		return nil
	}
	m.backingUp = true
	m.backupStatus = "Uploading backup..."
	return func() tea.Msg {
		result, err := m.backup.Upload(m.ctx, tasks.ReasonManual)
		return backupDoneMsg(result, err)
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	upcomingStyle, playlistsStyle := styles.focused, styles.pane
	if m.focus == PlaylistsPane {
		upcomingStyle, playlistsStyle = styles.pane, styles.focused
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		upcomingStyle.Render(m.upcoming.View()),
		playlistsStyle.Render(m.playlists.View()),
	)

	parts := []string{m.renderNowPlaying(), panes, m.renderBackup()}
	if m.status != "" {
		parts = append(parts, styles.warn.Render(m.status))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderNowPlaying() string {
	s := m.snapshot
	title, artists := "Nothing playing", ""
	liked := false
	switch {
	case s.Passive:
		title = s.PassiveTitle
		if title == "" {
			title = "Waiting for external player..."
		}
		artists = strings.Join(s.PassiveArtists, ", ")
	case s.Track != nil:
		title, artists = s.Track.DisplayTitle(), s.Track.ArtistLine()
		liked = m.library.IsLiked(s.Track.ID)
	}

	heading := title
	if liked {
		heading += " ♥"
	}

	state := "⏸ paused"
	if s.Playing {
		state = "▶ playing"
	}
	source := s.Mode.String()
	if s.Passive {
		source = "external"
	}

	lines := []string{
		styles.title.Render(heading),
		artists,
		fmt.Sprintf("%s %s / %s", progressBar(s.Position, s.Duration, barWidth),
			formatter.FormatDuration(s.Position), formatter.FormatDuration(s.Duration)),
		fmt.Sprintf("%s • %s", state, source),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBackup() string {
	if m.backup == nil {
		return styles.help.Render("Backup: not configured")
	}
	auto := "off"
	if m.backup.AutoBackupEnabled() {
		auto = "on"
	}
	last := "never"
	if at := m.backup.LastBackupAt(); !at.IsZero() {
		last = at.Local().Format("2006-01-02 15:04")
	}
	line := fmt.Sprintf("Backup: auto %s • last %s", auto, last)
	if m.backupStatus != "" {
		line += " • " + m.backupStatus
	}
	if strings.Contains(m.backupStatus, "failed") {
		return styles.err.Render(line)
	}
	return styles.ok.Render(line)
}

func progressBar(position, duration float64, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(min(max(position/duration, 0), 1) * float64(width))
	}
	return "[" + styles.bar.Render(strings.Repeat("=", filled)) + strings.Repeat("-", width-filled) + "]"
}
