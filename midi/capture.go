package midi

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2/smf"
)

// TempoRecorder is implemented by sinks that want tempo changes
type TempoRecorder interface {
	RecordTempo(tick uint64, bpm int)
}

type captured struct {
	tick uint64
	msg  []byte
}

// CaptureSink records everything passing through it into a Standard MIDI
// File, one tick per clock pulse. Events are forwarded to Next (if any).
type CaptureSink struct {
	Next Sink

	mu     sync.Mutex
	bpq    int
	events []captured
}

// NewCaptureSink creates a capture with bpq ticks per quarter note
func NewCaptureSink(bpq, tempo int, next Sink) *CaptureSink {
	c := &CaptureSink{Next: next, bpq: bpq}
	c.RecordTempo(0, tempo)
	return c
}

func (c *CaptureSink) Send(e Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.events = append(c.events, captured{tick: e.Tick, msg: msg})
	c.mu.Unlock()
	if c.Next != nil {
		return c.Next.Send(e)
	}
	return nil
}

func (c *CaptureSink) RecordTempo(tick uint64, bpm int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, captured{tick: tick, msg: smf.MetaTempo(float64(bpm))})
}

// Len is the number of captured messages, tempo changes included
func (c *CaptureSink) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// SMF builds a single-track file from the capture
func (c *CaptureSink) SMF() (*smf.SMF, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(c.bpq)

	var tr smf.Track
	var last uint64
	for _, ev := range c.events {
		delta := uint64(0)
		// pulses can wrap; a backwards jump restarts the delta
		if ev.tick > last {
			delta = ev.tick - last
		}
		tr.Add(uint32(delta), ev.msg)
		last = ev.tick
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("add capture track: %w", err)
	}
	return s, nil
}

// Save writes the capture to path
func (c *CaptureSink) Save(path string) error {
	s, err := c.SMF()
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write capture %s: %w", path, err)
	}
	return nil
}
