package clock_test

import (
	"testing"
	"time"

	"go-tracker/clock"
)

func TestPeriod(t *testing.T) {
	got := clock.Period(120, 48)
	want := 10416666 * time.Nanosecond
	if got != want {
		t.Fatalf("Period(120, 48) = %v, want %v", got, want)
	}
}

func TestInvalidBPQ(t *testing.T) {
	for _, bpq := range []int{0, -8, 12, 30} {
		if _, err := clock.New(120, bpq); err == nil {
			t.Errorf("New(120, %d) should fail", bpq)
		}
	}
	for _, bpq := range []int{24, 48, 96} {
		if _, err := clock.New(120, bpq); err != nil {
			t.Errorf("New(120, %d) failed: %v", bpq, err)
		}
	}
}

func TestTempoIsClamped(t *testing.T) {
	c, _ := clock.New(0, 48)
	if c.Tempo() != clock.MinTempo || c.Period() <= 0 {
		t.Fatalf("tempo %d, period %v", c.Tempo(), c.Period())
	}
	c.SetTempo(1000)
	if c.Tempo() != clock.MaxTempo {
		t.Fatalf("tempo %d, want %d", c.Tempo(), clock.MaxTempo)
	}
}

func TestTickCarriesRemainder(t *testing.T) {
	c, _ := clock.New(120, 48)
	var seen []uint64
	c.OnPulse(func(p uint64) { seen = append(seen, p) })

	if n := c.Tick(25 * time.Millisecond); n != 2 {
		t.Fatalf("Tick(25ms) fired %d pulses, want 2", n)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("listener saw %v", seen)
	}
	p := clock.Period(120, 48)
	if got, want := c.Remaining(), 3*p-25*time.Millisecond; got != want {
		t.Fatalf("remainder was not carried: %v left, want %v", got, want)
	}
}

func TestTempoChangeKeepsIntervalInFlight(t *testing.T) {
	for _, tempos := range [][2]int{{120, 60}, {120, 240}, {90, 91}} {
		c, _ := clock.New(tempos[0], 48)
		c.Tick(3 * time.Millisecond)
		before := c.Remaining()
		c.SetTempo(tempos[1])
		if c.Remaining() != before {
			t.Fatalf("%v: remaining changed from %v to %v", tempos, before, c.Remaining())
		}
		if n := c.Tick(before - time.Nanosecond); n != 0 {
			t.Fatalf("%v: fired early", tempos)
		}
		if n := c.Tick(time.Nanosecond); n != 1 {
			t.Fatalf("%v: did not fire at the old boundary", tempos)
		}
		if c.Period() != clock.Period(tempos[1], 48) {
			t.Fatalf("%v: next interval uses %v, want %v", tempos, c.Period(), clock.Period(tempos[1], 48))
		}
	}
}

func TestCatchUpLimit(t *testing.T) {
	c, _ := clock.New(120, 48)
	c.SetMaxCatchUp(1)
	if n := c.Tick(25 * time.Millisecond); n != 1 {
		t.Fatalf("fired %d, want 1", n)
	}
	if c.Dropped() != 1 || c.Pulses() != 1 {
		t.Fatalf("dropped %d pulses %d", c.Dropped(), c.Pulses())
	}
	if c.Remaining() <= 0 || c.Remaining() > c.Period() {
		t.Fatalf("remaining out of range: %v", c.Remaining())
	}
}

func TestSixPulsesAtMillisecondResolution(t *testing.T) {
	c, _ := clock.New(120, 48)
	src := clock.FixedStep{Millis: 1}
	for i := 0; i < 63; i++ {
		c.Tick(clock.Millis(src.ElapsedMillis()))
	}
	if c.Pulses() != 6 {
		t.Fatalf("after 63ms got %d pulses, want 6", c.Pulses())
	}
}

func TestWallClockIsMonotonic(t *testing.T) {
	w := clock.NewWallClock()
	var total uint32
	start := time.Now()
	for time.Since(start) < 5*time.Millisecond {
		total += w.ElapsedMillis()
	}
	if total > uint32(time.Since(start)/time.Millisecond)+1 {
		t.Fatalf("wall clock reported %dms for %v", total, time.Since(start))
	}
}
