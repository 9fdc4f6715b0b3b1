package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink accepts outbound note events
type Sink interface {
	Send(e Event) error
}

// Message converts an event to its gomidi wire message
func Message(e Event) (gomidi.Message, error) {
	ch := e.Channel & 0x0F
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(ch, e.Note, e.Velocity), nil
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, e.Note, e.Velocity), nil
	case CC:
		return gomidi.ControlChange(ch, e.Note, e.Velocity), nil
	}
	return nil, fmt.Errorf("unsupported event type %#x", e.Type)
}

// PortSink sends events to a MIDI output port
type PortSink struct {
	name string
	out  drivers.Out
	send func(msg gomidi.Message) error
}

// OpenPortSink opens the output port with the given name
func OpenPortSink(name string) (*PortSink, error) {
	out, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find output %q: %w", name, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", name, err)
	}
	return &PortSink{name: name, out: out, send: send}, nil
}

func (s *PortSink) Send(e Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	return s.send(msg)
}

func (s *PortSink) Name() string {
	return s.name
}

func (s *PortSink) Close() error {
	return s.out.Close()
}

// NullSink drops every event
type NullSink struct{}

func (NullSink) Send(Event) error { return nil }

// RecordingSink keeps every event in memory
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingSink) Send(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of what was sent so far
func (r *RecordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *RecordingSink) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
