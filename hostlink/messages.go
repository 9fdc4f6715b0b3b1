// Package hostlink speaks the line protocol between the tracker and its
// host computer: two closed message catalogs, a single-line YAML codec and
// the framing needed to pull messages out of a byte stream.
package hostlink

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// FromHost is a message sent by the host to the tracker. The set of
// implementations is closed.
type FromHost interface {
	Tag() string
	fromHost()
}

// FromTracker is a message sent by the tracker to the host. The set of
// implementations is closed.
type FromTracker interface {
	Tag() string
	fromTracker()
}

// Devs announces the host's known device names
type Devs struct {
	DevNames []string
}

// HostBus relays a message-bus line from the host
type HostBus struct {
	Message string
}

type MidiNoteOn struct {
	Note, Vel, Channel uint8
}

type MidiNoteOff struct {
	Note, Channel uint8
}

type MidiCC struct {
	Control, Param, Channel uint8
}

// Log is a diagnostic line from the tracker
type Log struct {
	Message string
}

// RequestDevs asks the host to resend its device list
type RequestDevs struct{}

// TrackerBus relays a message-bus line to the host
type TrackerBus struct {
	Message string
}

// ListenFor subscribes to bus messages matching Message
type ListenFor struct {
	Message string
}

const busTag = "MessageBus"

func (Devs) Tag() string        { return "Devs" }
func (HostBus) Tag() string     { return busTag }
func (MidiNoteOn) Tag() string  { return "MidiNoteOn" }
func (MidiNoteOff) Tag() string { return "MidiNoteOff" }
func (MidiCC) Tag() string      { return "MidiCC" }

func (Log) Tag() string         { return "Log" }
func (RequestDevs) Tag() string { return "RequestDevs" }
func (TrackerBus) Tag() string  { return busTag }
func (ListenFor) Tag() string   { return "ListenFor" }

func (Devs) fromHost()        {}
func (HostBus) fromHost()     {}
func (MidiNoteOn) fromHost()  {}
func (MidiNoteOff) fromHost() {}
func (MidiCC) fromHost()      {}

func (Log) fromTracker()         {}
func (RequestDevs) fromTracker() {}
func (TrackerBus) fromTracker()  {}
func (ListenFor) fromTracker()   {}

func (m Devs) String() string { return fmt.Sprintf("Devs%q", m.DevNames) }
func (m MidiNoteOn) String() string {
	return fmt.Sprintf("MidiNoteOn(note=%d vel=%d ch=%d)", m.Note, m.Vel, m.Channel)
}
func (m MidiNoteOff) String() string {
	return fmt.Sprintf("MidiNoteOff(note=%d ch=%d)", m.Note, m.Channel)
}
func (m MidiCC) String() string {
	return fmt.Sprintf("MidiCC(control=%d param=%d ch=%d)", m.Control, m.Param, m.Channel)
}

func hostRank(m FromHost) int {
	switch m.(type) {
	case Devs:
		return 0
	case HostBus:
		return 1
	case MidiNoteOn:
		return 2
	case MidiNoteOff:
		return 3
	case MidiCC:
		return 4
	}
	panic(fmt.Sprintf("hostlink: unknown FromHost %T", m))
}

func trackerRank(m FromTracker) int {
	switch m.(type) {
	case Log:
		return 0
	case RequestDevs:
		return 1
	case TrackerBus:
		return 2
	case ListenFor:
		return 3
	}
	panic(fmt.Sprintf("hostlink: unknown FromTracker %T", m))
}

// CompareFromHost orders messages by catalog position, then field by field.
// It returns 0 exactly when the two messages are equal.
func CompareFromHost(a, b FromHost) int {
	if c := cmp.Compare(hostRank(a), hostRank(b)); c != 0 {
		return c
	}
	switch a := a.(type) {
	case Devs:
		return slices.Compare(a.DevNames, b.(Devs).DevNames)
	case HostBus:
		return strings.Compare(a.Message, b.(HostBus).Message)
	case MidiNoteOn:
		o := b.(MidiNoteOn)
		return cmp.Or(cmp.Compare(a.Note, o.Note), cmp.Compare(a.Vel, o.Vel), cmp.Compare(a.Channel, o.Channel))
	case MidiNoteOff:
		o := b.(MidiNoteOff)
		return cmp.Or(cmp.Compare(a.Note, o.Note), cmp.Compare(a.Channel, o.Channel))
	case MidiCC:
		o := b.(MidiCC)
		return cmp.Or(cmp.Compare(a.Control, o.Control), cmp.Compare(a.Param, o.Param), cmp.Compare(a.Channel, o.Channel))
	}
	return 0
}

// CompareFromTracker is CompareFromHost for the other direction
func CompareFromTracker(a, b FromTracker) int {
	if c := cmp.Compare(trackerRank(a), trackerRank(b)); c != 0 {
		return c
	}
	switch a := a.(type) {
	case Log:
		return strings.Compare(a.Message, b.(Log).Message)
	case TrackerBus:
		return strings.Compare(a.Message, b.(TrackerBus).Message)
	case ListenFor:
		return strings.Compare(a.Message, b.(ListenFor).Message)
	}
	return 0
}
