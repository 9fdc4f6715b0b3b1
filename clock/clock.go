// Package clock turns coarse elapsed time into a pulse counter running at
// tempo * BPQ pulses per minute.
package clock

import (
	"fmt"
	"time"
)

const (
	DefaultBPQ   = 48
	DefaultTempo = 120
	MinTempo     = 20
	MaxTempo     = 300
)

// Period returns the length of one pulse: 60s / tempo / bpq
func Period(tempo, bpq int) time.Duration {
	return time.Duration(float64(time.Minute) / float64(tempo) / float64(bpq))
}

// PulseClock is a recurring timer that counts pulses.
type PulseClock struct {
	tempo int
	bpq   int

	period  time.Duration // interval currently running
	pending time.Duration // applied when the current interval completes
	acc     time.Duration
	pulses  uint64 // wraps at the integer maximum; only the modular position matters

	maxCatchUp int
	dropped    uint64
	onPulse    func(pulse uint64)
}

// New creates a clock. bpq must be a positive multiple of 8 so that a step
// (a thirty-second note) is a whole number of pulses.
func New(tempo, bpq int) (*PulseClock, error) {
	if bpq <= 0 || bpq%8 != 0 {
		return nil, fmt.Errorf("invalid BPQ %d: must be a positive multiple of 8", bpq)
	}
	tempo = clampTempo(tempo)
	p := Period(tempo, bpq)
	return &PulseClock{
		tempo:      tempo,
		bpq:        bpq,
		period:     p,
		pending:    p,
		maxCatchUp: bpq,
	}, nil
}

func clampTempo(bpm int) int {
	if bpm < MinTempo {
		bpm = MinTempo
	}
	if bpm > MaxTempo {
		bpm = MaxTempo
	}
	return bpm
}

// OnPulse registers the listener notified once per fired pulse
func (c *PulseClock) OnPulse(fn func(pulse uint64)) {
	c.onPulse = fn
}

// SetMaxCatchUp bounds how many pulses one Tick may fire
func (c *PulseClock) SetMaxCatchUp(n int) {
	if n < 1 {
		n = 1
	}
	c.maxCatchUp = n
}

// SetTempo changes the tempo. The interval in flight keeps its length; the
// new period starts with the next interval.
func (c *PulseClock) SetTempo(bpm int) {
	c.tempo = clampTempo(bpm)
	c.pending = Period(c.tempo, c.bpq)
}

func (c *PulseClock) Tempo() int             { return c.tempo }
func (c *PulseClock) BPQ() int               { return c.bpq }
func (c *PulseClock) Pulses() uint64         { return c.pulses }
func (c *PulseClock) Period() time.Duration  { return c.period }
func (c *PulseClock) Pending() time.Duration { return c.pending }

// Dropped is the number of pulses discarded because a single Tick spanned
// more than the catch-up limit.
func (c *PulseClock) Dropped() uint64 { return c.dropped }

// Remaining is the time left in the interval in flight
func (c *PulseClock) Remaining() time.Duration { return c.period - c.acc }

// Tick advances the clock by elapsed and returns how many pulses fired.
// The remainder past each boundary is carried into the next interval.
func (c *PulseClock) Tick(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	c.acc += elapsed
	fired := 0
	for c.acc >= c.period {
		if fired == c.maxCatchUp {
			skipped := uint64(c.acc / c.period)
			c.dropped += skipped
			c.acc -= time.Duration(skipped) * c.period
			break
		}
		c.acc -= c.period
		c.pulses++
		fired++
		c.period = c.pending
		if c.onPulse != nil {
			c.onPulse(c.pulses)
		}
	}
	return fired
}

// Reset zeroes the pulse counter and the interval in flight
func (c *PulseClock) Reset() {
	c.pulses = 0
	c.acc = 0
	c.period = c.pending
}
