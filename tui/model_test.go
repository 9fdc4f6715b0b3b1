package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-tracker/sequencer"
	"go-tracker/tracker"
)

func newModel(t *testing.T, tracks ...*tracker.Track) (Model, *tracker.KeyState) {
	t.Helper()
	if len(tracks) == 0 {
		tracks = []*tracker.Track{tracker.NewMidiTrack(0), tracker.NewSf2Track(1)}
	}
	keys := tracker.NewKeyState()
	mgr, err := sequencer.NewManager(sequencer.Options{
		Tracks: tracks,
		Keys:   keys,
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(mgr, keys, nil, nil), keys
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msgs through Update and lets the Manager apply any cursor keys
func press(m Model, keys *tracker.KeyState, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
		m.Manager.Move(keys.Poll())
	}
	return m
}

func TestMovesReachTheLoop(t *testing.T) {
	tests := []struct {
		msg   tea.KeyMsg
		key   tracker.Key
		shift bool
	}{
		{runes("j"), tracker.KeyDown, false},
		{tea.KeyMsg{Type: tea.KeyLeft}, tracker.KeyLeft, false},
		{tea.KeyMsg{Type: tea.KeyShiftUp}, tracker.KeyUp, true},
		{runes("L"), tracker.KeyRight, true},
	}
	m, keys := newModel(t)
	for _, tt := range tests {
		m.Update(tt.msg)
		got := keys.Poll()
		if !got.JustPressed(tt.key) {
			t.Errorf("%s: key %d not pressed", tt.msg, tt.key)
		}
		if got.Held(tracker.KeyLShift) != tt.shift {
			t.Errorf("%s: shift held = %v", tt.msg, !tt.shift)
		}
	}
}

func TestEditKeysReachTheManager(t *testing.T) {
	m, keys := newModel(t)
	note := func() string {
		n, ok := m.Manager.Snapshot().Tracks[0].NoteAt(0)
		if !ok {
			return "---"
		}
		return n.String()
	}

	m = press(m, keys, runes("]"))
	if got := note(); got != "C-5" {
		t.Fatalf("after ]: %s", got)
	}
	m = press(m, keys, runes("}"), runes("["))
	if got := note(); got != "B-5" {
		t.Fatalf("after } [: %s", got)
	}
	m = press(m, keys, runes("{"), runes("x"))
	if got := note(); got != "---" {
		t.Fatalf("after { x: %s", got)
	}

	m = press(m, keys, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Manager.Snapshot().Tracks[0].Playing {
		t.Fatal("enter did not start the track")
	}

	// slot 0 of track 0, then its detail shows in the view
	m = press(m, keys, runes("l"), runes("]"))
	if got := m.Manager.Snapshot().Tracks[0].CmdLabel(0, 0); got != "Chrd" {
		t.Fatalf("slot 0 = %q", got)
	}
	if v := m.View(); !strings.Contains(v, "cmd: Chrd +0 +4 +7") {
		t.Errorf("view missing command detail:\n%s", v)
	}
}

func TestEditErrorIsShown(t *testing.T) {
	m, keys := newModel(t, tracker.NewMidiTrack(0))
	m = press(m, keys, runes("l"), runes("l"), runes("l"), runes("]"))
	if m.lastErr == "" {
		t.Fatal("no error kept")
	}
	if v := m.View(); !strings.Contains(v, sequencer.ErrNoTrack.Error()) {
		t.Errorf("view missing %q", sequencer.ErrNoTrack)
	}

	// a successful edit clears it
	m = press(m, keys, runes("h"), runes("h"), runes("h"), runes("]"))
	if m.lastErr != "" {
		t.Fatalf("stale error %q", m.lastErr)
	}
}

func TestTempoKeys(t *testing.T) {
	m, _ := newModel(t)
	m.Update(runes("+"))
	m.Update(runes("+"))
	m.Update(runes("-"))
	if got := m.Manager.Snapshot().Tempo; got != 125 {
		t.Fatalf("tempo %d", got)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if next.(Model).View() != "" {
		t.Fatal("view after quit")
	}
}

func TestViewShowsGridAndHelp(t *testing.T) {
	m, keys := newModel(t)
	v := m.View()
	for _, want := range []string{"go-tracker", "Midi", "Sf2", "120 bpm", "note/cmd up", "more keys"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(v, "octave up") {
		t.Error("full help shown before ?")
	}

	m = press(m, keys, runes("?"))
	if v := m.View(); !strings.Contains(v, "octave up") {
		t.Errorf("full help missing after ?:\n%s", v)
	}
}
