package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Listener turns messages arriving on a MIDI input into Events
type Listener struct {
	name string
	stop func()

	mu     sync.Mutex // guards events against the driver callback
	closed bool
	events chan Event
}

// OpenListener starts listening on the named input port
func OpenListener(name string) (*Listener, error) {
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("find input %q: %w", name, err)
	}
	l := &Listener{name: name, events: make(chan Event, 64)}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		l.deliver(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", name, err)
	}
	l.stop = stop
	return l, nil
}

func (l *Listener) Name() string {
	return l.name
}

// Events is closed by Close
func (l *Listener) Events() <-chan Event {
	return l.events
}

// deliver queues a decoded message, dropping it when the reader is behind
// or the listener is closed
func (l *Listener) deliver(msg gomidi.Message) {
	ev, ok := Decode(msg)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.events <- ev:
	default:
	}
}

func (l *Listener) Close() error {
	if l.stop != nil {
		l.stop()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
	return nil
}

// Decode converts note on/off and control change messages. Anything else
// is reported as not ok. A note-on with zero velocity is a note-off.
func Decode(msg gomidi.Message) (Event, bool) {
	var ch, a, b uint8
	switch {
	case msg.GetNoteOn(&ch, &a, &b):
		if b == 0 {
			return Off(ch, a, 0), true
		}
		return On(ch, a, b), true
	case msg.GetNoteOff(&ch, &a, &b):
		return Off(ch, a, b), true
	case msg.GetControlChange(&ch, &a, &b):
		return Control(ch, a, b), true
	}
	return Event{}, false
}
