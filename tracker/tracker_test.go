package tracker_test

import (
	"errors"
	"fmt"
	"testing"

	"go-tracker/tracker"
)

func TestBoundedValues(t *testing.T) {
	if _, err := tracker.NewSwing(0); err != nil {
		t.Fatalf("NewSwing(0) failed: %v", err)
	}
	if s, err := tracker.NewSwing(127); err != nil || s.Amount() != 127 {
		t.Fatalf("NewSwing(127) = %v, %v", s.Amount(), err)
	}
	if _, err := tracker.NewSwing(128); !errors.Is(err, tracker.ErrOutOfRange) {
		t.Fatalf("NewSwing(128) should fail with ErrOutOfRange, got %v", err)
	}
	if _, err := tracker.NewSwing(-1); err == nil {
		t.Fatalf("NewSwing(-1) should fail")
	}
	if h, err := tracker.NewHoldFor(tracker.NSteps); err != nil || h.Steps() != tracker.NSteps {
		t.Fatalf("NewHoldFor(NSteps) = %v, %v", h.Steps(), err)
	}
	_, err := tracker.NewHoldFor(tracker.NSteps + 1)
	var be *tracker.BoundError
	if !errors.As(err, &be) {
		t.Fatalf("NewHoldFor(NSteps+1) should return *BoundError, got %v", err)
	}
	if be.Value != tracker.NSteps+1 || be.Bound != tracker.NSteps+1 {
		t.Errorf("unexpected bound error fields: %+v", be)
	}
	if got, want := err.Error(), "hold 33 was expected to be less than 33"; got != want {
		t.Errorf("error text %q, want %q", got, want)
	}
}

func TestNoteDisplay(t *testing.T) {
	cases := []struct {
		note int
		want string
	}{
		{0, "C-0"},
		{48, "C-4"},
		{60, "C-5"},
		{61, "C#5"},
		{127, "G-A"},
	}
	for _, c := range cases {
		n, err := tracker.NewNote(c.note)
		if err != nil {
			t.Fatalf("NewNote(%d): %v", c.note, err)
		}
		if got := n.String(); got != c.want {
			t.Errorf("Note(%d).String() = %q, want %q", c.note, got, c.want)
		}
	}
	if _, err := tracker.NewNote(128); err == nil {
		t.Errorf("NewNote(128) should fail")
	}
	if got := tracker.SomeNote(69).String(); got != "A-5" {
		t.Errorf("OptNote display %q", got)
	}
	if got := fmt.Sprintf("%v|%s", tracker.Note(12), tracker.OptNote{}); got != "C-1|---" {
		t.Errorf("formatted %q", got)
	}
	if got := (tracker.OptNote{}).String(); got != "---" {
		t.Errorf("empty note display = %q", got)
	}
}

func TestCmdLabels(t *testing.T) {
	swing, _ := tracker.NewSwing(10)
	hold, _ := tracker.NewHoldFor(4)
	cases := []struct {
		cmd  tracker.TrackerCmd[tracker.Sf2Cmd]
		want string
	}{
		{tracker.NoCmd[tracker.Sf2Cmd](), "----"},
		{tracker.ChordCmd[tracker.Sf2Cmd](tracker.Root, tracker.MajThird), "Chrd"},
		{tracker.RollCmd[tracker.Sf2Cmd](1), "Roll"},
		{tracker.SwingCmd[tracker.Sf2Cmd](swing), "Swng"},
		{tracker.HoldCmd[tracker.Sf2Cmd](hold), "Hold"},
		{tracker.PanicCmd[tracker.Sf2Cmd](), "Stop"},
		{tracker.CustomCmd(tracker.Sf2Cmd{Param: tracker.Sf2Volume, Value: 0.5}), "Vol-"},
		{tracker.CustomCmd(tracker.Sf2Cmd{Param: tracker.Sf2Dcy2}), "Dcy2"},
	}
	for _, c := range cases {
		if got := c.cmd.String(); got != c.want {
			t.Errorf("label %q, want %q", got, c.want)
		}
	}
	if got := tracker.CustomCmd(tracker.MidiCmd{CCParam: 7}).String(); got != "CC--" {
		t.Errorf("midi custom label %q", got)
	}
}

func TestTrackEditing(t *testing.T) {
	tr := tracker.NewMidiTrack(2)
	if tr.Len() != tracker.NSteps {
		t.Fatalf("track length %d, want %d", tr.Len(), tracker.NSteps)
	}
	if _, ok := tr.NoteAt(0); ok {
		t.Fatalf("default step should have no note")
	}
	if err := tr.SetNote(3, 60); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if n, ok := tr.NoteAt(3); !ok || n != 60 {
		t.Fatalf("NoteAt(3) = %v, %v", n, ok)
	}
	if err := tr.SetNote(tracker.NSteps, 60); !errors.Is(err, tracker.ErrStepIndex) {
		t.Fatalf("SetNote past the end should fail with ErrStepIndex, got %v", err)
	}
	if err := tr.SetMidiCmd(3, 1, tracker.PanicCmd[tracker.MidiCmd]()); err != nil {
		t.Fatalf("SetMidiCmd: %v", err)
	}
	if err := tr.SetMidiCmd(3, 2, tracker.PanicCmd[tracker.MidiCmd]()); err == nil {
		t.Fatalf("slot 2 should be rejected")
	}
	if err := tr.SetSf2Cmd(3, 0, tracker.NoCmd[tracker.Sf2Cmd]()); err == nil {
		t.Fatalf("sf2 command on a midi track should be rejected")
	}
	if got := tr.CmdLabel(3, 1); got != "Stop" {
		t.Errorf("CmdLabel = %q", got)
	}

	clone := tr.Clone()
	tr.Reset()
	if _, ok := tr.NoteAt(3); ok {
		t.Errorf("Reset should clear notes")
	}
	if n, ok := clone.NoteAt(3); !ok || n != 60 {
		t.Errorf("clone should keep its notes, got %v, %v", n, ok)
	}
	if tr.Len() != tracker.NSteps {
		t.Errorf("Reset must not resize the track")
	}
}

func TestCursorWraps(t *testing.T) {
	press := func(k tracker.Key) tracker.Keys { return tracker.KeySample{}.Press(k) }
	cases := []struct {
		name string
		from tracker.CursorLocation
		keys tracker.Keys
		want tracker.CursorLocation
	}{
		{"right wraps", tracker.CursorLocation{Col: 5}, press(tracker.KeyRight), tracker.CursorLocation{Col: 0}},
		{"left wraps", tracker.CursorLocation{Col: 0}, press(tracker.KeyLeft), tracker.CursorLocation{Col: 5}},
		{"down wraps", tracker.CursorLocation{Row: tracker.CursorRows - 1}, press(tracker.KeyDown), tracker.CursorLocation{Row: 0}},
		{"up wraps", tracker.CursorLocation{Row: 0}, press(tracker.KeyUp), tracker.CursorLocation{Row: tracker.CursorRows - 1}},
		{"plain move", tracker.CursorLocation{Col: 2, Row: 3}, press(tracker.KeyDown), tracker.CursorLocation{Col: 2, Row: 4}},
		{"diagonal ignored", tracker.CursorLocation{Col: 2, Row: 3},
			tracker.KeySample{}.Press(tracker.KeyDown).Press(tracker.KeyRight), tracker.CursorLocation{Col: 2, Row: 3}},
		{"opposite held ignored", tracker.CursorLocation{Col: 2, Row: 3},
			tracker.KeySample{}.Press(tracker.KeyDown).Hold(tracker.KeyUp), tracker.CursorLocation{Col: 2, Row: 3}},
		{"shift suspends", tracker.CursorLocation{Col: 2, Row: 3},
			tracker.KeySample{}.Press(tracker.KeyDown).Hold(tracker.KeyRShift), tracker.CursorLocation{Col: 2, Row: 3}},
		{"held only", tracker.CursorLocation{Col: 2, Row: 3},
			tracker.KeySample{}.Hold(tracker.KeyDown), tracker.CursorLocation{Col: 2, Row: 3}},
	}
	for _, c := range cases {
		if got := c.from.Move(c.keys); got != c.want {
			t.Errorf("%s: got %+v, want %+v", c.name, got, c.want)
		}
		// same input, same result
		if a, b := c.from.Move(c.keys), c.from.Move(c.keys); a != b {
			t.Errorf("%s: Move is not deterministic", c.name)
		}
	}
}

func TestKeyStateClearsEdges(t *testing.T) {
	ks := tracker.NewKeyState()
	ks.Press(tracker.KeyDown, tracker.KeyLShift)
	k := ks.Poll()
	if !k.JustPressed(tracker.KeyDown) || !k.Held(tracker.KeyLShift) {
		t.Fatalf("first poll should see the press and the modifier")
	}
	if k := ks.Poll(); k.JustPressed(tracker.KeyDown) || k.Held(tracker.KeyLShift) {
		t.Fatalf("second poll should be empty")
	}
}

func TestCycleCmd(t *testing.T) {
	tr := tracker.NewMidiTrack(0)
	if err := tr.CycleCmd(3, 0, 1); err != nil {
		t.Fatal(err)
	}
	if got := tr.CmdLabel(3, 0); got != "Chrd" {
		t.Fatalf("after one step forward: %q", got)
	}
	tr.CycleCmd(3, 0, -1)
	tr.CycleCmd(3, 0, -1)
	if got := tr.CmdLabel(3, 0); got != "CC--" {
		t.Fatalf("backwards from none should wrap to custom, got %q", got)
	}

	sf := tracker.NewSf2Track(1)
	sf.CycleCmd(0, 1, -1)
	if got := sf.CmdLabel(0, 1); got != "Vol-" {
		t.Fatalf("sample custom label %q", got)
	}
	if err := sf.CycleCmd(0, 2, 1); err == nil {
		t.Fatal("slot 2 accepted")
	}
}

func TestFieldReachesBothSlots(t *testing.T) {
	want := [tracker.CursorCols][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	c := tracker.CursorLocation{}
	right := tracker.KeySample{}.Press(tracker.KeyRight)
	for i, w := range want {
		off, field := c.Field()
		if off != w[0] || field != w[1] {
			t.Errorf("col %d: got track %d field %d, want %v", i, off, field, w)
		}
		c = c.Move(right)
	}
	if tracker.VisibleTracks != 2 {
		t.Errorf("visible tracks %d", tracker.VisibleTracks)
	}
}

func TestCmdDetail(t *testing.T) {
	tr := tracker.NewMidiTrack(0)
	tr.CycleCmd(0, 1, 1)
	if got := tr.CmdDetail(0, 1); got != "Chrd +0 +4 +7" {
		t.Errorf("chord detail %q", got)
	}
	if got := tr.CmdDetail(0, 0); got != "----" {
		t.Errorf("empty slot detail %q", got)
	}

	// an edited payload keeps cycling from its own kind
	hold, _ := tracker.NewHoldFor(9)
	tr.SetMidiCmd(1, 0, tracker.HoldCmd[tracker.MidiCmd](hold))
	if got := tr.CmdDetail(1, 0); got != "Hold 9" {
		t.Errorf("hold detail %q", got)
	}
	tr.CycleCmd(1, 0, 1)
	if got := tr.CmdLabel(1, 0); got != "Stop" {
		t.Errorf("after hold: %q", got)
	}

	sf := tracker.NewSf2Track(1)
	sf.SetSf2Cmd(2, 0, tracker.RollCmd[tracker.Sf2Cmd](3))
	if got := sf.CmdDetail(2, 0); got != "Roll x3" {
		t.Errorf("roll detail %q", got)
	}
	if sf.CmdDetail(tracker.NSteps, 0) != "" || sf.CmdDetail(0, 2) != "" {
		t.Error("out of range detail should be empty")
	}
}

func TestKindIsFixed(t *testing.T) {
	tr, err := tracker.NewTrack(4, tracker.KindSf2)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Kind() != tracker.KindSf2 || tr.Clone().Kind() != tracker.KindSf2 {
		t.Fatalf("kind %s", tr.Kind())
	}
	if _, ok := tr.MidiStep(0); ok {
		t.Error("sample track handed out a MIDI step")
	}
	if err := tr.SetMidiCmd(0, 0, tracker.PanicCmd[tracker.MidiCmd]()); err == nil {
		t.Error("MIDI command stored on a sample track")
	}
}
