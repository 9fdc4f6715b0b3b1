package clock

import "time"

// Elapsed reports the milliseconds since it was last queried. It is
// monotonic and never negative.
type Elapsed interface {
	ElapsedMillis() uint32
}

// WallClock measures elapsed time with the monotonic system clock
type WallClock struct {
	last time.Time
	frac time.Duration // sub-millisecond leftover carried between queries
}

func NewWallClock() *WallClock {
	return &WallClock{last: time.Now()}
}

func (w *WallClock) ElapsedMillis() uint32 {
	now := time.Now()
	d := now.Sub(w.last) + w.frac
	w.last = now
	if d < 0 {
		d = 0
	}
	ms := d / time.Millisecond
	w.frac = d - ms*time.Millisecond
	return uint32(ms)
}

// FixedStep reports the same elapsed time on every query
type FixedStep struct {
	Millis uint32
}

func (f FixedStep) ElapsedMillis() uint32 { return f.Millis }

// Millis converts an Elapsed reading into a Duration
func Millis(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
