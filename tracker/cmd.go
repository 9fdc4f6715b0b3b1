package tracker

import (
	"fmt"
	"slices"
	"strings"
)

// Interval is a scale offset stacked on a step's note by a chord command
type Interval int

const (
	Root Interval = iota
	MajThird
	MinThird
	FlatFifth
	Fifth
	SharpFifth
	FlatSeventh
	Seventh
	SharpSeventh
)

var intervalSemitones = [...]int{0, 4, 3, 6, 7, 8, 10, 11, 12}

// Semitones returns the distance from the root
func (i Interval) Semitones() int {
	if i < 0 || int(i) >= len(intervalSemitones) {
		return 0
	}
	return intervalSemitones[i]
}

// MidiCmd is the instrument payload of a MIDI track command slot
type MidiCmd struct {
	CCParam uint8
	Arg1    uint8
	Arg2    uint8
}

func (MidiCmd) String() string { return "CC--" }

// Sf2Param selects the sample-engine parameter a Sf2Cmd changes
type Sf2Param int

const (
	Sf2Volume Sf2Param = iota
	Sf2Atk
	Sf2Dcy
	Sf2Dcy2
	Sf2Sus
	Sf2Rel
)

// Sf2Cmd is the instrument payload of a sample track command slot
type Sf2Cmd struct {
	Param Sf2Param
	Value float32
}

// DefaultSf2Cmd is full volume
func DefaultSf2Cmd() Sf2Cmd {
	return Sf2Cmd{Param: Sf2Volume, Value: 1.0}
}

func (c Sf2Cmd) String() string {
	switch c.Param {
	case Sf2Atk:
		return "Atk-"
	case Sf2Dcy:
		return "Dcy-"
	case Sf2Dcy2:
		return "Dcy2"
	case Sf2Sus:
		return "Sus-"
	case Sf2Rel:
		return "Rel-"
	default:
		return "Vol-"
	}
}

// Cmd is the set of instrument payloads a step may carry
type Cmd interface {
	MidiCmd | Sf2Cmd
	String() string
}

// CmdKind tags a TrackerCmd
type CmdKind int

const (
	CmdNone CmdKind = iota
	CmdChord
	CmdRoll
	CmdSwing
	CmdHoldFor
	CmdPanic
	CmdCustom
)

var cmdLabels = map[CmdKind]string{
	CmdNone:    "----",
	CmdChord:   "Chrd",
	CmdRoll:    "Roll",
	CmdSwing:   "Swng",
	CmdHoldFor: "Hold",
	CmdPanic:   "Stop",
}

// TrackerCmd is a per-step effect slot. Only the payload matching Kind is
// meaningful; build values with the constructors below.
type TrackerCmd[C Cmd] struct {
	Kind   CmdKind
	chord  []Interval
	times  uint8
	swing  Swing
	hold   HoldFor
	custom C
}

func NoCmd[C Cmd]() TrackerCmd[C] { return TrackerCmd[C]{} }

func ChordCmd[C Cmd](intervals ...Interval) TrackerCmd[C] {
	return TrackerCmd[C]{Kind: CmdChord, chord: slices.Clone(intervals)}
}

// RollCmd repeats the step's note; 1 plays it twice within the step.
func RollCmd[C Cmd](times uint8) TrackerCmd[C] {
	return TrackerCmd[C]{Kind: CmdRoll, times: times}
}

func SwingCmd[C Cmd](s Swing) TrackerCmd[C] {
	return TrackerCmd[C]{Kind: CmdSwing, swing: s}
}

func HoldCmd[C Cmd](h HoldFor) TrackerCmd[C] {
	return TrackerCmd[C]{Kind: CmdHoldFor, hold: h}
}

// PanicCmd silences every note on the device
func PanicCmd[C Cmd]() TrackerCmd[C] { return TrackerCmd[C]{Kind: CmdPanic} }

func CustomCmd[C Cmd](c C) TrackerCmd[C] {
	return TrackerCmd[C]{Kind: CmdCustom, custom: c}
}

func (t TrackerCmd[C]) Chord() []Interval { return slices.Clone(t.chord) }
func (t TrackerCmd[C]) Times() uint8      { return t.times }
func (t TrackerCmd[C]) Swing() Swing      { return t.swing }
func (t TrackerCmd[C]) Hold() HoldFor     { return t.hold }
func (t TrackerCmd[C]) Custom() C         { return t.custom }

// Equal compares kind and the payload of that kind
func (t TrackerCmd[C]) Equal(o TrackerCmd[C]) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case CmdChord:
		return slices.Equal(t.chord, o.chord)
	case CmdRoll:
		return t.times == o.times
	case CmdSwing:
		return t.swing == o.swing
	case CmdHoldFor:
		return t.hold == o.hold
	case CmdCustom:
		return t.custom == o.custom
	}
	return true
}

// String is the four-character label shown in the command column
func (t TrackerCmd[C]) String() string {
	if t.Kind == CmdCustom {
		return t.custom.String()
	}
	if l, ok := cmdLabels[t.Kind]; ok {
		return l
	}
	return "????"
}

// Detail is the label followed by the command's arguments, e.g. "Chrd +0 +4 +7"
func (t TrackerCmd[C]) Detail() string {
	switch t.Kind {
	case CmdChord:
		var b strings.Builder
		b.WriteString(t.String())
		for _, iv := range t.chord {
			fmt.Fprintf(&b, " +%d", iv.Semitones())
		}
		return b.String()
	case CmdRoll:
		return fmt.Sprintf("%s x%d", t, t.times)
	case CmdSwing:
		return fmt.Sprintf("%s %d", t, t.swing.Amount())
	case CmdHoldFor:
		return fmt.Sprintf("%s %d", t, t.hold.Steps())
	}
	return t.String()
}
