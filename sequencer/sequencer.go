package sequencer

import (
	"fmt"

	"go-tracker/midi"
	"go-tracker/tracker"
)

// StepsPerQuarter is the step resolution: thirty-second notes
const StepsPerQuarter = 8

// PulsesPerStep is the number of clock pulses between step boundaries
func PulsesPerStep(bpq int) uint64 {
	return uint64(bpq / StepsPerQuarter)
}

// IsStepBoundary reports whether pulse p starts a step
func IsStepBoundary(p uint64, bpq int) bool {
	return p%PulsesPerStep(bpq) == 0
}

// StepIndex is the step that pulse p falls in, for n steps
func StepIndex(p uint64, bpq, n int) int {
	return int((p / PulsesPerStep(bpq)) % uint64(n))
}

// PrevStep is the step before i, wrapping to n-1
func PrevStep(i, n int) int {
	if i == 0 {
		return n - 1
	}
	return i - 1
}

// Sequencer turns step boundaries into note events. It allows one sounding
// note per track.
type Sequencer struct {
	Channel uint8

	bpq      int
	step     int
	sounding map[tracker.TrackID]tracker.Note
}

func New(bpq int) *Sequencer {
	return &Sequencer{
		Channel:  midi.DefaultChannel,
		bpq:      bpq,
		sounding: make(map[tracker.TrackID]tracker.Note),
	}
}

// Step is the step of the last boundary evaluated
func (s *Sequencer) Step() int {
	return s.step
}

// Sounding returns the note a track left on, if any
func (s *Sequencer) Sounding(id tracker.TrackID) (tracker.Note, bool) {
	n, ok := s.sounding[id]
	return n, ok
}

// Evaluate returns the events for pulse, or nil when pulse is not a step
// boundary. For every playing MIDI track the previous step's note is turned
// off before the current step's note is turned on, even when both are the
// same note.
func (s *Sequencer) Evaluate(pulse uint64, tracks []*tracker.Track) []midi.Event {
	if !IsStepBoundary(pulse, s.bpq) {
		return nil
	}
	cur := StepIndex(pulse, s.bpq, tracker.NSteps)
	if cur < 0 || cur >= tracker.NSteps {
		panic(fmt.Sprintf("sequencer: step %d outside [0, %d)", cur, tracker.NSteps))
	}
	prev := PrevStep(cur, tracker.NSteps)
	s.step = cur

	var events []midi.Event
	for _, t := range tracks {
		if !t.Playing {
			continue
		}
		switch t.Kind() {
		case tracker.KindMidi:
			if n, ok := t.NoteAt(prev); ok {
				events = append(events, s.event(midi.Off(s.Channel, uint8(n), midi.DefaultOffVelocity), pulse))
				delete(s.sounding, t.ID)
			}
			if n, ok := t.NoteAt(cur); ok {
				events = append(events, s.event(midi.On(s.Channel, uint8(n), midi.DefaultVelocity), pulse))
				s.sounding[t.ID] = n
			}
		case tracker.KindSf2:
			// sample commands have no output yet
		}
	}
	return events
}

func (s *Sequencer) event(e midi.Event, pulse uint64) midi.Event {
	e.Tick = pulse
	return e
}

// Release turns off whatever a track left sounding
func (s *Sequencer) Release(id tracker.TrackID, pulse uint64) []midi.Event {
	n, ok := s.sounding[id]
	if !ok {
		return nil
	}
	delete(s.sounding, id)
	return []midi.Event{s.event(midi.Off(s.Channel, uint8(n), midi.DefaultOffVelocity), pulse)}
}

// Silence turns off every sounding note, in track order
func (s *Sequencer) Silence(tracks []*tracker.Track, pulse uint64) []midi.Event {
	var events []midi.Event
	for _, t := range tracks {
		events = append(events, s.Release(t.ID, pulse)...)
	}
	return events
}
