package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-tracker/midi"
	"go-tracker/sequencer"
	"go-tracker/theme"
	"go-tracker/tracker"
	"go-tracker/widgets"
)

// Model is a terminal stand-in for the device screen and keyboard. Cursor
// keys are fed to the control loop through Keys; edits go straight to the
// Manager. The screen is redrawn from Manager snapshots.
type Model struct {
	Manager   *sequencer.Manager
	Keys      *tracker.KeyState
	DeviceMgr *midi.DeviceManager // may be nil
	Theme     *theme.Theme

	keys keyMap
	help help.Model

	lastDevice string
	lastErr    string
	quitting   bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// devicesClosed is sent once the device manager has stopped
type devicesClosed struct{}

func NewModel(manager *sequencer.Manager, keys *tracker.KeyState, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Accent())
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	h.Styles.FullDesc = h.Styles.ShortDesc
	return Model{
		Manager:   manager,
		Keys:      keys,
		DeviceMgr: deviceMgr,
		Theme:     th,
		keys:      newKeyMap(),
		help:      h,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.Updates()
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return devicesClosed{}
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

// edit runs one Manager edit and keeps its error for the status line
func (m *Model) edit(fn func() error) {
	m.lastErr = ""
	if err := fn(); err != nil {
		m.lastErr = err.Error()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.TempoUp):
			m.Manager.SetTempo(m.Manager.Snapshot().Tempo + 5)

		case key.Matches(msg, m.keys.TempoDown):
			m.Manager.SetTempo(m.Manager.Snapshot().Tempo - 5)

		case key.Matches(msg, m.keys.NoteUp):
			m.edit(func() error { return m.Manager.EditNote(1) })

		case key.Matches(msg, m.keys.NoteDown):
			m.edit(func() error { return m.Manager.EditNote(-1) })

		case key.Matches(msg, m.keys.OctaveUp):
			m.edit(func() error { return m.Manager.EditNote(12) })

		case key.Matches(msg, m.keys.OctaveDown):
			m.edit(func() error { return m.Manager.EditNote(-12) })

		case key.Matches(msg, m.keys.Clear):
			m.edit(m.Manager.ClearNote)

		case key.Matches(msg, m.keys.Toggle):
			m.edit(m.Manager.TogglePlaying)

		default:
			for _, mv := range m.keys.moves() {
				if key.Matches(msg, mv.binding) {
					m.Keys.Press(mv.key, mv.modifiers...)
					break
				}
			}
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		verb := "connected"
		if event.Type == midi.DeviceDisconnected {
			verb = "disconnected"
		}
		m.lastDevice = fmt.Sprintf("%s %s", event.Name, verb)
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// cellDetail describes the command under the cursor, "" on a note cell
func cellDetail(snap sequencer.Snapshot) string {
	i := snap.CursorTrack()
	_, field := snap.Cursor.Field()
	if i < 0 || field == 0 {
		return ""
	}
	return snap.Tracks[i].CmdDetail(snap.CursorStep(), field-1)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Manager.Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	off, field := snap.Cursor.Field()
	grid := widgets.RenderGrid(m.Theme, widgets.Grid{
		Tracks:      snap.Tracks,
		Top:         snap.ViewTop,
		Left:        snap.ViewLeft,
		Rows:        tracker.CursorRows,
		Cols:        tracker.VisibleTracks,
		Playhead:    snap.Step,
		CursorRow:   snap.Cursor.Row,
		CursorTrack: off,
		CursorField: field,
	})

	header := headerStyle.Render(fmt.Sprintf("go-tracker  step:%02X", snap.Step))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderStatus(m.Theme, snap.Tempo, snap.BPQ, snap.Pulse, snap.Dropped))
	out.WriteString("\n")
	if d := cellDetail(snap); d != "" {
		out.WriteString(dimStyle.Render("cmd: " + d))
		out.WriteString("\n")
	}
	if m.lastErr != "" {
		out.WriteString(errStyle.Render(m.lastErr))
		out.WriteString("\n")
	}
	if len(snap.Devices) > 0 {
		out.WriteString(dimStyle.Render("host devs: " + strings.Join(snap.Devices, ", ")))
		out.WriteString("\n")
	}
	if snap.Bus != "" {
		out.WriteString(dimStyle.Render("bus: " + snap.Bus))
		out.WriteString("\n")
	}
	if m.lastDevice != "" {
		out.WriteString(dimStyle.Render("midi: " + m.lastDevice))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))

	return out.String()
}
