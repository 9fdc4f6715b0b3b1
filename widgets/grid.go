package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-tracker/theme"
	"go-tracker/tracker"
)

// Grid is the visible window onto the step grid
type Grid struct {
	Tracks []*tracker.Track
	Top    int // first visible step
	Left   int // first visible track
	Rows   int
	Cols   int // visible tracks

	Playhead int // step now sounding, -1 for none

	CursorRow   int // relative to Top
	CursorTrack int // relative to Left
	CursorField int // 0 note, 1 and 2 command slots
}

// RenderGrid draws a header with one column per visible track, then one
// line per visible step: hex step label, then the note and both command
// slots of each track.
func RenderGrid(th *theme.Theme, g Grid) string {
	var (
		muted  = lipgloss.NewStyle().Foreground(th.Muted())
		fg     = lipgloss.NewStyle().Foreground(th.FG())
		accent = lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
		head   = lipgloss.NewStyle().Foreground(th.Active()).Bold(true)
		cursor = lipgloss.NewStyle().Foreground(th.BG()).Background(th.Cursor())
	)

	var lines []string

	var header strings.Builder
	header.WriteString("    ")
	for c := 0; c < g.Cols; c++ {
		i := g.Left + c
		if i >= len(g.Tracks) {
			break
		}
		t := g.Tracks[i]
		mark, style := th.Symbols.Stopped, muted
		if t.Playing {
			mark, style = th.Symbols.Playing, accent
		}
		header.WriteString(style.Render(fmt.Sprintf(" %c%02d %-10s", mark, t.ID, t.Kind())))
	}
	lines = append(lines, header.String())

	for r := 0; r < g.Rows; r++ {
		step := g.Top + r
		if step >= tracker.NSteps {
			break
		}
		var line strings.Builder

		label := fmt.Sprintf(" %02X ", step)
		if step == g.Playhead {
			line.WriteString(head.Render(fmt.Sprintf("%c%02X ", th.Symbols.Playhead, step)))
		} else {
			line.WriteString(muted.Render(label))
		}

		for c := 0; c < g.Cols; c++ {
			i := g.Left + c
			if i >= len(g.Tracks) {
				break
			}
			t := g.Tracks[i]

			note := "---"
			if n, ok := t.NoteAt(step); ok {
				note = n.String()
			}
			cells := [tracker.FieldsPerTrack]string{note, t.CmdLabel(step, 0), t.CmdLabel(step, 1)}

			for f, cell := range cells {
				style := muted
				switch {
				case r == g.CursorRow && c == g.CursorTrack && f == g.CursorField:
					style = cursor
				case step == g.Playhead:
					style = head
				case f == 0:
					style = fg
				}
				line.WriteString(" ")
				line.WriteString(style.Render(cell))
			}
			line.WriteString(" ")
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderStatus is the one-line transport summary under the grid
func RenderStatus(th *theme.Theme, tempo, bpq int, pulse, dropped uint64) string {
	s := fmt.Sprintf("%3d bpm  %d ppq  pulse %d", tempo, bpq, pulse)
	if dropped > 0 {
		s += lipgloss.NewStyle().Foreground(th.Warning()).Render(fmt.Sprintf("  dropped %d", dropped))
	}
	return s
}
