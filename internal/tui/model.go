package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"google.golang.org/grpc"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/models"
)

// panelTop is the first terminal row of the panel, below the header and a
// blank line.
const panelTop = 2

// Model is the root Bubbletea model for the live view.
type Model struct {
	// gRPC connection
	conn      *grpc.ClientConn
	client    *api.Client
	exec      executor
	connected bool

	// Latest payload
	display models.Display

	// UI state
	width    int
	height   int
	showHelp bool
	err      error

	// hovering is what this view last reported to the daemon, which owns
	// the debounced presentation state.
	hovering bool

	controls models.ControlsConfig

	// Program reference for goroutine Send()
	program *programRef

	// Streaming state
	streamCtx    context.Context
	streamCancel context.CancelFunc
}

// NewModel creates a new TUI model.
func NewModel(controls models.ControlsConfig, program *programRef) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		display:      models.Display{State: models.StateIdle},
		controls:     controls,
		program:      program,
		streamCtx:    ctx,
		streamCancel: cancel,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connectDaemonCmd(),
		tea.EnableMouseAllMotion,
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// ── Window resize ──────────────────────────────────────────────
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	// ── Input ──────────────────────────────────────────────────────
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.setHover(m.insidePanel(msg.X, msg.Y))

	case tea.BlurMsg:
		return m, m.setHover(false)

	// ── Daemon connection ──────────────────────────────────────────
	case DaemonConnectedMsg:
		m.conn = msg.Conn
		m.client = msg.Client
		m.exec = msg.Client
		m.connected = true
		m.err = nil
		return m, watchDisplayCmd(m.streamCtx, m.client, m.program)

	case DaemonDisconnectedMsg, StreamEndedMsg:
		m.dropConnection()
		return m, reconnectTick()

	case ReconnectMsg:
		if !m.connected {
			return m, connectDaemonCmd()
		}
		return m, nil

	case DisplayMsg:
		if msg.Display.Sequence >= m.display.Sequence || m.display.Sequence == 0 {
			m.display = msg.Display
		}
		return m, nil

	// ── Error handling ─────────────────────────────────────────────
	case ErrorMsg:
		m.err = msg.Err
		cmds := []tea.Cmd{clearErrorAfter(5 * time.Second)}
		if !m.connected {
			cmds = append(cmds, reconnectTick())
		}
		return m, tea.Batch(cmds...)

	case ClearErrorMsg:
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, globalKeys.Quit) {
		return m.doQuit()
	}
	if key.Matches(msg, globalKeys.Help) {
		m.showHelp = !m.showHelp
		return nil
	}
	if m.showHelp {
		if key.Matches(msg, globalKeys.Esc) {
			m.showHelp = false
		}
		return nil
	}

	c := commandForKey(msg, m.display, m.controls)
	if c == nil {
		return nil
	}
	return executeCmd(m.exec, c)
}

// commandForKey maps a key press to a daemon command, or nil.
func commandForKey(msg tea.KeyMsg, d models.Display, controls models.ControlsConfig) *api.Command {
	switch {
	case key.Matches(msg, controlKeys.PlayPause):
		return &api.Command{Action: api.ActionPlayPause}
	case key.Matches(msg, controlKeys.Next):
		return &api.Command{Action: api.ActionNext}
	case key.Matches(msg, controlKeys.Previous):
		return &api.Command{Action: api.ActionPrevious}
	case key.Matches(msg, controlKeys.VolumeUp):
		return &api.Command{Action: api.ActionAdjustVolume, Value: controls.VolumeStep}
	case key.Matches(msg, controlKeys.VolumeDown):
		return &api.Command{Action: api.ActionAdjustVolume, Value: -controls.VolumeStep}
	case key.Matches(msg, controlKeys.BrightnessUp):
		return &api.Command{Action: api.ActionAdjustBrightness, Value: controls.BrightnessStep}
	case key.Matches(msg, controlKeys.BrightnessDown):
		return &api.Command{Action: api.ActionAdjustBrightness, Value: -controls.BrightnessStep}
	case key.Matches(msg, controlKeys.Focus):
		return &api.Command{Action: api.ActionToggleFocus}
	case key.Matches(msg, controlKeys.StartTimer):
		return &api.Command{Action: api.ActionStartTimer}
	case key.Matches(msg, controlKeys.PauseTimer):
		return &api.Command{Action: api.ActionPauseTimer}
	case key.Matches(msg, controlKeys.ResetTimer):
		return &api.Command{Action: api.ActionResetTimer}
	case key.Matches(msg, controlKeys.Pomodoro):
		if p, ok := d.Provider(provider.IDPomodoro); ok && p.Active {
			return &api.Command{Action: api.ActionStopPomodoro}
		}
		return &api.Command{Action: api.ActionStartPomodoro}
	case key.Matches(msg, controlKeys.SkipPomodoro):
		return &api.Command{Action: api.ActionSkipPomodoro}
	case key.Matches(msg, controlKeys.Dismiss):
		return &api.Command{Action: api.ActionDismiss}
	case key.Matches(msg, controlKeys.Refresh):
		return &api.Command{Action: api.ActionRefresh}
	}
	return nil
}

// setHover reports a hover edge to the daemon. Repeated motion inside or
// outside the panel sends nothing.
func (m *Model) setHover(inside bool) tea.Cmd {
	if inside == m.hovering {
		return nil
	}
	m.hovering = inside
	action := api.ActionHoverExit
	if inside {
		action = api.ActionHoverEnter
	}
	return executeCmd(m.exec, &api.Command{Action: action})
}

// insidePanel reports whether the cell (x, y) falls on the rendered panel.
func (m *Model) insidePanel(x, y int) bool {
	if m.width == 0 {
		return false
	}
	w := panelWidth(m.width)
	h := lipgloss.Height(renderPanel(m.display, w))
	left := (m.width - w) / 2
	return x >= left && x < left+w && y >= panelTop && y < panelTop+h
}

func (m *Model) dropConnection() {
	m.connected = false
	m.client = nil
	m.exec = nil
	m.hovering = false
	m.display.Sequence = 0
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

func (m *Model) doQuit() tea.Cmd {
	// Leave the presentation state clean for other shells.
	var exit tea.Cmd
	if m.hovering {
		exit = m.setHover(false)
	}
	m.streamCancel()
	m.program.Clear()
	conn := m.conn
	return tea.Sequence(exit, func() tea.Msg {
		if conn != nil {
			_ = conn.Close()
		}
		return tea.Quit()
	})
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := renderHeader(m.display, m.connected, m.width)
	status := renderStatusBar(&m, m.width)

	w := panelWidth(m.width)
	panel := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, renderPanel(m.display, w))

	bodyHeight := m.height - 2
	lines := make([]string, 0, bodyHeight)
	lines = append(lines, "")
	lines = append(lines, strings.Split(panel, "\n")...)
	for len(lines) < bodyHeight {
		lines = append(lines, "")
	}
	body := strings.Join(lines[:bodyHeight], "\n")

	view := lipgloss.JoinVertical(lipgloss.Left, header, body, status)
	if m.showHelp {
		view = renderOverlay(view, renderHelp(m.width), m.width, m.height)
	}
	return view
}
