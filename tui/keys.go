package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"go-tracker/tracker"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	PageLeft   key.Binding
	PageRight  key.Binding
	NoteUp     key.Binding
	NoteDown   key.Binding
	OctaveUp   key.Binding
	OctaveDown key.Binding
	Clear      key.Binding
	Toggle     key.Binding
	TempoUp    key.Binding
	TempoDown  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev field")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next field")),
		PageUp:     key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "page steps up")),
		PageDown:   key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "page steps down")),
		PageLeft:   key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "prev tracks")),
		PageRight:  key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "next tracks")),
		NoteUp:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "note/cmd up")),
		NoteDown:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "note/cmd down")),
		OctaveUp:   key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "octave up")),
		OctaveDown: key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "octave down")),
		Clear:      key.NewBinding(key.WithKeys("x", "delete", "backspace"), key.WithHelp("x", "clear note")),
		Toggle:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/stop track")),
		TempoUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "tempo up")),
		TempoDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "tempo down")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NoteUp, k.NoteDown, k.Clear, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.PageUp, k.PageDown, k.PageLeft, k.PageRight},
		{k.NoteUp, k.NoteDown, k.OctaveUp, k.OctaveDown, k.Clear, k.Toggle},
		{k.TempoUp, k.TempoDown, k.Help, k.Quit},
	}
}

// move is a cursor binding forwarded to the control loop as device keys
type move struct {
	binding   key.Binding
	key       tracker.Key
	modifiers []tracker.Key
}

func (k keyMap) moves() []move {
	shift := []tracker.Key{tracker.KeyLShift}
	return []move{
		{k.Up, tracker.KeyUp, nil},
		{k.Down, tracker.KeyDown, nil},
		{k.Left, tracker.KeyLeft, nil},
		{k.Right, tracker.KeyRight, nil},
		{k.PageUp, tracker.KeyUp, shift},
		{k.PageDown, tracker.KeyDown, shift},
		{k.PageLeft, tracker.KeyLeft, shift},
		{k.PageRight, tracker.KeyRight, shift},
	}
}
