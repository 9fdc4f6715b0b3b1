package tracker

import "fmt"

// Grid and sequence dimensions
const (
	NSteps     = 32 // steps per track
	CharH      = 24 // text rows on the device screen
	CursorRows = CharH - 4
	CursorCols = 6 // two visible tracks, three cells each
	MaxNote    = 127

	FieldsPerTrack = 3 // note, command slot 0, command slot 1
	VisibleTracks  = CursorCols / FieldsPerTrack
)

// Note is a MIDI note number (0-127)
type Note uint8

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// NewNote validates a note number
func NewNote(n int) (Note, error) {
	if n < 0 || n > MaxNote {
		return 0, &BoundError{What: "note", Value: n, Bound: MaxNote + 1}
	}
	return Note(n), nil
}

// String renders the note the way the step grid shows it: name then octave in hex.
func (n Note) String() string {
	return fmt.Sprintf("%s%X", noteNames[n%12], uint8(n)/12)
}

// Transpose shifts the note by delta semitones, clamped to 0-127
func (n Note) Transpose(delta int) Note {
	v := int(n) + delta
	if v < 0 {
		v = 0
	}
	if v > MaxNote {
		v = MaxNote
	}
	return Note(v)
}

// OptNote is a note that may be absent (no trigger on this step)
type OptNote struct {
	Value Note
	Set   bool
}

// SomeNote returns a present note
func SomeNote(n Note) OptNote {
	return OptNote{Value: n, Set: true}
}

// Get returns the note and whether it is present
func (o OptNote) Get() (Note, bool) {
	return o.Value, o.Set
}

func (o OptNote) String() string {
	if !o.Set {
		return "---"
	}
	return o.Value.String()
}
