package midi

import "fmt"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Default channel and velocities used by the sequencer
const (
	DefaultChannel     uint8 = 0
	DefaultVelocity    uint8 = 111
	DefaultOffVelocity uint8 = 120
)

// Event represents a MIDI event leaving the sequencer
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8 // note number, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
	Tick     uint64
}

// On builds a note-on event
func On(channel, note, velocity uint8) Event {
	return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

// Off builds a note-off event
func Off(channel, note, velocity uint8) Event {
	return Event{Type: NoteOff, Channel: channel, Note: note, Velocity: velocity}
}

// Control builds a control change event
func Control(channel, controller, value uint8) Event {
	return Event{Type: CC, Channel: channel, Note: controller, Velocity: value}
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("on ch=%d note=%d vel=%d", e.Channel+1, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("off ch=%d note=%d vel=%d", e.Channel+1, e.Note, e.Velocity)
	case CC:
		return fmt.Sprintf("cc ch=%d ctl=%d val=%d", e.Channel+1, e.Note, e.Velocity)
	}
	return fmt.Sprintf("unknown type=%#x", e.Type)
}
