package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/games/pong"
	"github.com/vovakirdan/netpong/internal/loop"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/relay"
	"github.com/vovakirdan/netpong/internal/storage"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// lobbyModes are the match modes the lobby cycles through with tab.
var lobbyModes = []multiplayer.MatchMode{
	multiplayer.MatchModeOnline,
	multiplayer.MatchModeLocal,
	multiplayer.MatchModeSyncTest,
}

// Model is the Bubble Tea model for netpong. It owns the pacing loop:
// every tick advances the driver, every key press feeds it.
type Model struct {
	ctx      context.Context
	driver   *loop.Driver
	store    *storage.Store // Optional, enables the history screen
	keys     *KeyMapper
	room     textinput.Model
	screen   *core.Screen
	history  *HistoryModel
	fps      int
	width    int
	height   int
	err      string
	quitting bool
}

// NewModel creates a model in the lobby. ctx bounds relay connections.
func NewModel(ctx context.Context, driver *loop.Driver, store *storage.Store, fps, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "room code, empty for random"
	ti.CharLimit = relay.RoomCodeLen
	ti.Width = 30
	ti.Prompt = "room> "
	ti.Focus()

	return Model{
		ctx:    ctx,
		driver: driver,
		store:  store,
		keys:   NewKeyMapper(),
		room:   ti,
		screen: core.NewScreen(width, height),
		fps:    fps,
		width:  width,
		height: height,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd(m.fps))
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		if m.history != nil {
			h, _ := m.history.Update(msg)
			hm := h.(HistoryModel) //nolint:forcetypeassert // HistoryModel.Update returns HistoryModel
			m.history = &hm
		}
		return m, nil

	case TickMsg:
		m.driver.Tick(time.Time(msg))
		return m, tickCmd(m.fps)
	}

	var cmd tea.Cmd
	m.room, cmd = m.room.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input for the current screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.MapAction(msg)
	if action == ActionQuit {
		m.driver.Abort()
		m.quitting = true
		return m, tea.Quit
	}

	if m.history != nil {
		h, cmd := m.history.Update(msg)
		hm := h.(HistoryModel) //nolint:forcetypeassert // HistoryModel.Update returns HistoryModel
		if hm.IsGoingBack() {
			m.history = nil
			return m, nil
		}
		if hm.IsQuitting() {
			m.quitting = true
			return m, tea.Quit
		}
		m.history = &hm
		return m, cmd
	}

	switch m.driver.Mode() {
	case loop.ModeLobby:
		return m.handleLobbyKey(msg, action)

	case loop.ModeConnecting:
		if action == ActionBack {
			m.driver.Abort()
		}

	case loop.ModePlaying:
		if action == ActionBack {
			m.driver.Abort()
			return m, nil
		}
		if k, ok := m.keys.MapPaddleKey(msg); ok {
			m.driver.Keys().Press(k)
		}
	}
	return m, nil
}

func (m Model) handleLobbyKey(msg tea.KeyMsg, action Action) (tea.Model, tea.Cmd) {
	switch action {
	case ActionBack:
		m.quitting = true
		return m, tea.Quit

	case ActionNextMode:
		m.driver.SetMatchMode(nextMode(m.driver.MatchMode()))
		return m, nil

	case ActionHistory:
		if m.store != nil {
			hm := NewHistoryModel(m.store, m.width, m.height)
			m.history = &hm
		}
		return m, nil

	case ActionConfirm:
		code, err := relay.NormalizeCode(m.room.Value())
		if err != nil {
			m.err = "room codes are letters and digits"
			return m, nil
		}
		m.err = ""
		if err := m.driver.Join(m.ctx, code); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.room.Reset()
		return m, nil
	}

	// Only room code characters reach the text input.
	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if !IsRoomCodeRune(r) {
				return m, nil
			}
		}
		msg.Runes = []rune(strings.ToUpper(string(msg.Runes)))
	}

	var cmd tea.Cmd
	m.room, cmd = m.room.Update(msg)
	return m, cmd
}

func nextMode(cur multiplayer.MatchMode) multiplayer.MatchMode {
	for i, mode := range lobbyModes {
		if mode == cur {
			return lobbyModes[(i+1)%len(lobbyModes)]
		}
	}
	return lobbyModes[0]
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.history != nil {
		return m.history.View()
	}

	switch m.driver.Mode() {
	case loop.ModeConnecting:
		return m.viewConnecting()
	case loop.ModePlaying:
		return m.viewPlaying()
	default:
		return m.viewLobby()
	}
}

func (m Model) viewLobby() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("N E T P O N G"))
	b.WriteString("\n\n")
	b.WriteString("mode: " + modeStyle.Render(m.driver.MatchMode().String()))
	b.WriteString("\n\n")
	if m.driver.MatchMode() == multiplayer.MatchModeOnline {
		b.WriteString(m.room.View())
	} else {
		b.WriteString("press enter to start")
	}
	b.WriteString("\n\n")

	if res, ok := m.driver.LastResult(); ok {
		b.WriteString(describeResult(res))
		b.WriteString("\n")
	}
	if status := m.driver.Status(); status != "" {
		b.WriteString(statusStyle.Render(status))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(statusStyle.Render(m.err))
		b.WriteString("\n")
	}

	help := "enter: play  tab: mode  esc: quit"
	if m.store != nil {
		help += "  ctrl+t: history"
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) viewConnecting() string {
	m.screen.Clear()
	room := m.driver.Room()
	if room == "" {
		room = "random"
	}
	status := m.driver.Status()
	if status == "" {
		status = "connecting"
	}
	pong.DrawMessage(m.screen, "room "+room, status+" - esc to cancel")
	return RenderScreen(m.screen)
}

func (m Model) viewPlaying() string {
	left, right := "W/S", "UP/DOWN"
	switch m.driver.Role() {
	case core.RoleLeft:
		left, right = "you", "them"
	case core.RoleRight:
		left, right = "them", "you"
	}

	pong.Render(m.driver.State(), m.screen, left, right)
	if status := m.driver.Status(); status != "" {
		pong.DrawMessage(m.screen, status, "esc to leave")
	}
	return RenderScreen(m.screen)
}

func describeResult(res multiplayer.MatchResult) string {
	score := fmt.Sprintf("%d - %d", res.LeftScore, res.RightScore)
	switch {
	case res.Winner != "":
		return fmt.Sprintf("last match: %s wins %s", res.Winner, score)
	default:
		return fmt.Sprintf("last match: %s at %s", res.Reason, score)
	}
}

// Run starts the Bubble Tea program and blocks until the player quits.
// width and height are the initial terminal size; resizes arrive as messages.
func Run(ctx context.Context, driver *loop.Driver, store *storage.Store, fps, width, height int) error {
	model := NewModel(ctx, driver, store, fps, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
