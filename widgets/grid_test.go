package widgets

import (
	"strings"
	"testing"

	"go-tracker/theme"
	"go-tracker/tracker"
)

func TestRenderGridWindow(t *testing.T) {
	a := tracker.NewMidiTrack(0)
	a.SetNote(3, 60)
	a.Playing = true
	b := tracker.NewSf2Track(1)
	hidden := tracker.NewMidiTrack(2)
	hidden.SetNote(3, 69)

	out := RenderGrid(theme.New(nil), Grid{
		Tracks:   []*tracker.Track{a, b, hidden},
		Top:      2,
		Rows:     4,
		Cols:     2,
		Playhead: 3,
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Midi") || !strings.Contains(lines[0], "Sf2") {
		t.Fatalf("header %q", lines[0])
	}
	if !strings.Contains(lines[2], "03") || !strings.Contains(lines[2], "C-5") {
		t.Fatalf("step 3 line %q", lines[2])
	}
	if !strings.Contains(lines[2], "▶") || strings.Contains(lines[1], "▶") {
		t.Fatal("playhead on the wrong row")
	}
	if strings.Contains(out, "A-5") {
		t.Fatal("track outside the window was drawn")
	}
	if !strings.Contains(lines[2], "---- ") {
		t.Fatalf("empty command missing: %q", lines[2])
	}
}

func TestRenderGridShowsBothSlots(t *testing.T) {
	tr := tracker.NewMidiTrack(0)
	tr.SetNote(4, 60)
	tr.CycleCmd(4, 1, 1)
	out := RenderGrid(theme.New(nil), Grid{
		Tracks:      []*tracker.Track{tr},
		Top:         4,
		Rows:        1,
		Cols:        tracker.VisibleTracks,
		Playhead:    -1,
		CursorField: 2,
	})
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[1], "C-5 ---- Chrd") {
		t.Fatalf("step line %q", lines[1])
	}
}

func TestRenderGridStopsAtLastStep(t *testing.T) {
	out := RenderGrid(theme.New(nil), Grid{
		Tracks: []*tracker.Track{tracker.NewMidiTrack(0)},
		Top:    tracker.NSteps - 2,
		Rows:   tracker.CursorRows,
		Cols:   3,
	})
	if n := strings.Count(out, "\n"); n != 2 {
		t.Fatalf("expected header and two steps, got %d newlines", n)
	}
}
