package tracker

import (
	"fmt"
	"slices"
)

// Kind identifies what instrument a track drives
type Kind string

const (
	KindMidi Kind = "Midi"
	KindSf2  Kind = "Sf2"
)

// TrackID identifies a track
type TrackID int

// Step is one slot in a track
type Step[C Cmd] struct {
	Note OptNote
	Cmds [2]TrackerCmd[C]
}

// Track is one lane of NSteps steps. Exactly one of the step sequences is in
// use, selected by Kind; the sequence length never changes after creation.
type Track struct {
	ID      TrackID
	Playing bool

	kind Kind

	midi []Step[MidiCmd] // KindMidi only
	sf2  []Step[Sf2Cmd]  // KindSf2 only
}

// NewMidiTrack creates a MIDI track with default steps
func NewMidiTrack(id TrackID) *Track {
	return &Track{ID: id, kind: KindMidi, midi: defaultSteps[MidiCmd]()}
}

// NewSf2Track creates a sample track with default steps
func NewSf2Track(id TrackID) *Track {
	return &Track{ID: id, kind: KindSf2, sf2: defaultSteps[Sf2Cmd]()}
}

// NewTrack creates a track of the given kind
func NewTrack(id TrackID, kind Kind) (*Track, error) {
	switch kind {
	case KindMidi:
		return NewMidiTrack(id), nil
	case KindSf2:
		return NewSf2Track(id), nil
	}
	return nil, fmt.Errorf("unknown track kind %q", kind)
}

func defaultSteps[C Cmd]() []Step[C] {
	return make([]Step[C], NSteps)
}

// Kind reports which instrument the track drives. It is fixed at creation.
func (t *Track) Kind() Kind { return t.kind }

// Len returns the number of steps
func (t *Track) Len() int {
	return NSteps
}

// Reset replaces the whole step sequence with default steps
func (t *Track) Reset() {
	switch t.kind {
	case KindMidi:
		t.midi = defaultSteps[MidiCmd]()
	case KindSf2:
		t.sf2 = defaultSteps[Sf2Cmd]()
	}
}

// TogglePlaying flips the playing flag and returns the new value
func (t *Track) TogglePlaying() bool {
	t.Playing = !t.Playing
	return t.Playing
}

func checkStep(i int) error {
	if i < 0 || i >= NSteps {
		return fmt.Errorf("%w: %d", ErrStepIndex, i)
	}
	return nil
}

func checkSlot(slot int) error {
	if slot < 0 || slot > 1 {
		return fmt.Errorf("%w: command slot %d", ErrStepIndex, slot)
	}
	return nil
}

// NoteAt returns the note of step i, if any
func (t *Track) NoteAt(i int) (Note, bool) {
	if checkStep(i) != nil {
		return 0, false
	}
	switch t.kind {
	case KindMidi:
		return t.midi[i].Note.Get()
	case KindSf2:
		return t.sf2[i].Note.Get()
	}
	return 0, false
}

// SetNote sets the note of step i
func (t *Track) SetNote(i int, n Note) error {
	return t.setNote(i, SomeNote(n))
}

// ClearNote removes the note of step i
func (t *Track) ClearNote(i int) error {
	return t.setNote(i, OptNote{})
}

func (t *Track) setNote(i int, n OptNote) error {
	if err := checkStep(i); err != nil {
		return err
	}
	switch t.kind {
	case KindMidi:
		t.midi[i].Note = n
	case KindSf2:
		t.sf2[i].Note = n
	}
	return nil
}

// MidiStep returns a copy of step i of a MIDI track
func (t *Track) MidiStep(i int) (Step[MidiCmd], bool) {
	if t.kind != KindMidi || checkStep(i) != nil {
		return Step[MidiCmd]{}, false
	}
	return t.midi[i], true
}

// Sf2Step returns a copy of step i of a sample track
func (t *Track) Sf2Step(i int) (Step[Sf2Cmd], bool) {
	if t.kind != KindSf2 || checkStep(i) != nil {
		return Step[Sf2Cmd]{}, false
	}
	return t.sf2[i], true
}

// SetMidiCmd stores cmd in a command slot of a MIDI track step
func (t *Track) SetMidiCmd(i, slot int, cmd TrackerCmd[MidiCmd]) error {
	if t.kind != KindMidi {
		return fmt.Errorf("track %d is %s, not %s", t.ID, t.kind, KindMidi)
	}
	if err := checkStep(i); err != nil {
		return err
	}
	if err := checkSlot(slot); err != nil {
		return err
	}
	t.midi[i].Cmds[slot] = cmd
	return nil
}

// SetSf2Cmd stores cmd in a command slot of a sample track step
func (t *Track) SetSf2Cmd(i, slot int, cmd TrackerCmd[Sf2Cmd]) error {
	if t.kind != KindSf2 {
		return fmt.Errorf("track %d is %s, not %s", t.ID, t.kind, KindSf2)
	}
	if err := checkStep(i); err != nil {
		return err
	}
	if err := checkSlot(slot); err != nil {
		return err
	}
	t.sf2[i].Cmds[slot] = cmd
	return nil
}

// CmdLabel returns the display label of a command slot
func (t *Track) CmdLabel(i, slot int) string {
	if checkStep(i) != nil || checkSlot(slot) != nil {
		return ""
	}
	switch t.kind {
	case KindMidi:
		return t.midi[i].Cmds[slot].String()
	case KindSf2:
		return t.sf2[i].Cmds[slot].String()
	}
	return ""
}

// CmdDetail describes a command slot in full, for the status line
func (t *Track) CmdDetail(i, slot int) string {
	if checkSlot(slot) != nil {
		return ""
	}
	switch t.kind {
	case KindMidi:
		if st, ok := t.MidiStep(i); ok {
			return st.Cmds[slot].Detail()
		}
	case KindSf2:
		if st, ok := t.Sf2Step(i); ok {
			return st.Cmds[slot].Detail()
		}
	}
	return ""
}

// Clone returns a deep copy, used for snapshots handed to front ends
func (t *Track) Clone() *Track {
	c := *t
	c.midi = cloneSteps(t.midi)
	c.sf2 = cloneSteps(t.sf2)
	return &c
}

func cloneSteps[C Cmd](steps []Step[C]) []Step[C] {
	if steps == nil {
		return nil
	}
	out := make([]Step[C], len(steps))
	for i, s := range steps {
		out[i] = s
		for j := range s.Cmds {
			if s.Cmds[j].Kind == CmdChord {
				out[i].Cmds[j].chord = s.Cmds[j].Chord()
			}
		}
	}
	return out
}

// DefaultNote is placed on an empty step when editing starts
const DefaultNote Note = 60

func cmdPresets[C Cmd](custom C) []TrackerCmd[C] {
	swing, _ := NewSwing(32)
	hold, _ := NewHoldFor(4)
	// indexed by CmdKind
	return []TrackerCmd[C]{
		NoCmd[C](),
		ChordCmd[C](Root, MajThird, Fifth),
		RollCmd[C](1),
		SwingCmd[C](swing),
		HoldCmd[C](hold),
		PanicCmd[C](),
		CustomCmd(custom),
	}
}

func cycle[C Cmd](cur TrackerCmd[C], custom C, dir int) TrackerCmd[C] {
	presets := cmdPresets(custom)
	i := slices.IndexFunc(presets, cur.Equal)
	if i < 0 {
		// edited payload, continue from its kind
		i = int(cur.Kind)
	}
	return presets[wrap(i+dir, len(presets))]
}

// CycleCmd steps a command slot through the command kinds, forwards for a
// positive dir and backwards for a negative one
func (t *Track) CycleCmd(i, slot, dir int) error {
	if err := checkStep(i); err != nil {
		return err
	}
	if err := checkSlot(slot); err != nil {
		return err
	}
	switch {
	case dir > 0:
		dir = 1
	case dir < 0:
		dir = -1
	default:
		return nil
	}
	switch t.kind {
	case KindMidi:
		c := &t.midi[i].Cmds[slot]
		*c = cycle(*c, MidiCmd{}, dir)
	case KindSf2:
		c := &t.sf2[i].Cmds[slot]
		*c = cycle(*c, DefaultSf2Cmd(), dir)
	}
	return nil
}
