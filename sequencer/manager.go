package sequencer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go-tracker/clock"
	"go-tracker/debug"
	"go-tracker/hostlink"
	"go-tracker/midi"
	"go-tracker/tracker"
)

var (
	ErrStepSounding = errors.New("step is sounding")
	ErrNoTrack      = errors.New("no track under cursor")
)

// Options wires a Manager to its collaborators. Nil collaborators are
// replaced by inert defaults.
type Options struct {
	Tracks    []*tracker.Track
	Clock     *clock.PulseClock
	Sink      midi.Sink
	Link      *hostlink.Link
	Keys      tracker.KeySource
	Elapsed   clock.Elapsed
	Channel   uint8
	ListenFor []string      // subscriptions sent to the host at startup
	IdleSleep time.Duration // pause between passes in Run
}

// Manager owns all sequencing state and runs the control loop. Front ends
// on other goroutines go through its exported methods.
type Manager struct {
	mu sync.Mutex

	tracks  []*tracker.Track
	clock   *clock.PulseClock
	seq     *Sequencer
	link    *hostlink.Link
	sink    midi.Sink
	keys    tracker.KeySource
	elapsed clock.Elapsed

	cursor   tracker.CursorLocation
	viewTop  int // first step shown on row 0
	viewLeft int // first track shown in column 0

	notes     []midi.Event // FIFO, drained every pass
	devices   []string
	bus       string
	listenFor []string
	started   bool
	changed   bool
	idleSleep time.Duration

	// Notify TUI of updates
	updates chan struct{}
}

// NewManager creates a manager. The clock defaults to 120 BPM at 48 BPQ.
func NewManager(opts Options) (*Manager, error) {
	c := opts.Clock
	if c == nil {
		var err error
		if c, err = clock.New(clock.DefaultTempo, clock.DefaultBPQ); err != nil {
			return nil, err
		}
	}
	if opts.Channel > 15 {
		return nil, fmt.Errorf("channel %d out of range 0-15", opts.Channel)
	}
	sink := opts.Sink
	if sink == nil {
		sink = midi.NullSink{}
	}
	elapsed := opts.Elapsed
	if elapsed == nil {
		elapsed = clock.NewWallClock()
	}
	idle := opts.IdleSleep
	if idle <= 0 {
		idle = time.Millisecond
	}

	m := &Manager{
		tracks:    opts.Tracks,
		clock:     c,
		seq:       New(c.BPQ()),
		link:      opts.Link,
		sink:      sink,
		keys:      opts.Keys,
		elapsed:   elapsed,
		listenFor: slices.Clone(opts.ListenFor),
		idleSleep: idle,
		updates:   make(chan struct{}, 1),
	}
	m.seq.Channel = opts.Channel
	c.OnPulse(m.onPulse)
	return m, nil
}

func (m *Manager) onPulse(p uint64) {
	if !IsStepBoundary(p, m.clock.BPQ()) {
		return
	}
	m.notes = append(m.notes, m.seq.Evaluate(p, m.tracks)...)
	m.changed = true
	debug.LogEvery(64, "seq", "step %d pulse %d", m.seq.Step(), p)
}

// Updates is signalled (without blocking) when displayable state changes
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

func (m *Manager) notifyUpdate() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled, then silences sounding notes
func (m *Manager) Run(ctx context.Context) error {
	debug.Log("loop", "control loop started")
	for !m.Iterate(ctx) {
		time.Sleep(m.idleSleep)
	}
	m.Stop()
	debug.Log("loop", "control loop stopped")
	return ctx.Err()
}

// Iterate runs one pass of the control loop: poll the host, apply at most
// one inbound message, apply key input, advance the clock, then flush logs,
// messages and notes in that order. It reports whether ctx asks the loop to
// stop.
func (m *Manager) Iterate(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.started = true
		if m.link != nil {
			m.link.Send(hostlink.RequestDevs{})
			for _, s := range m.listenFor {
				m.link.Send(hostlink.ListenFor{Message: s})
			}
		}
	}

	if m.link != nil {
		if _, err := m.link.Poll(); err != nil {
			debug.LogEvery(100, "link", "poll: %v", err)
		}
		if _, err := m.link.Next(); err != nil {
			debug.Warn("link", "dropped inbound message: %v", err)
		}
		for _, msg := range m.link.Drain() {
			m.apply(msg)
		}
	}

	if m.keys != nil {
		m.applyKeys(m.keys.Poll())
	}

	m.clock.Tick(clock.Millis(m.elapsed.ElapsedMillis()))

	m.flush()

	if m.changed {
		m.changed = false
		m.notifyUpdate()
	}
	return ctx.Err() != nil
}

func (m *Manager) flush() {
	if m.link != nil {
		if err := m.link.Flush(); err != nil {
			debug.Log("link", "flush: %v", err)
		}
	}
	for _, e := range m.notes {
		if err := m.sink.Send(e); err != nil {
			debug.Log("midi", "send %v: %v", e, err)
		}
	}
	m.notes = m.notes[:0]
}

func (m *Manager) apply(msg hostlink.FromHost) {
	m.changed = true
	switch msg := msg.(type) {
	case hostlink.Devs:
		m.devices = slices.Clone(msg.DevNames)
		debug.Log("host", "devices: %v", m.devices)
	case hostlink.HostBus:
		m.bus = msg.Message
		debug.Info("host", "message bus: %s", msg.Message)
	case hostlink.MidiNoteOn:
		if ok := m.passThrough("note on", msg.Channel, msg.Note, msg.Vel); ok {
			m.queueNote(midi.On(msg.Channel, msg.Note, msg.Vel))
		}
	case hostlink.MidiNoteOff:
		if ok := m.passThrough("note off", msg.Channel, msg.Note, 0); ok {
			m.queueNote(midi.Off(msg.Channel, msg.Note, midi.DefaultOffVelocity))
		}
	case hostlink.MidiCC:
		if ok := m.passThrough("cc", msg.Channel, msg.Control, msg.Param); ok {
			m.queueNote(midi.Control(msg.Channel, msg.Control, msg.Param))
		}
	}
}

// passThrough checks that host MIDI values fit the wire format
func (m *Manager) passThrough(what string, ch, a, b uint8) bool {
	if ch > 15 || a > tracker.MaxNote || b > 127 {
		debug.Warn("host", "dropping %s ch=%d %d/%d: out of MIDI range", what, ch, a, b)
		return false
	}
	return true
}

func (m *Manager) queueNote(e midi.Event) {
	e.Tick = m.clock.Pulses()
	m.notes = append(m.notes, e)
}

func shiftHeld(k tracker.Keys) bool {
	return k.Held(tracker.KeyLShift) || k.Held(tracker.KeyRShift)
}

func (m *Manager) applyKeys(k tracker.Keys) {
	before := m.cursor
	if shiftHeld(k) {
		switch {
		case k.JustPressed(tracker.KeyUp):
			m.pageSteps(-1)
		case k.JustPressed(tracker.KeyDown):
			m.pageSteps(1)
		case k.JustPressed(tracker.KeyLeft):
			m.pageTracks(-1)
		case k.JustPressed(tracker.KeyRight):
			m.pageTracks(1)
		}
	}
	m.cursor = m.cursor.Move(k)
	if m.cursor != before {
		m.changed = true
	}

	octave := 1
	if shiftHeld(k) {
		octave = 12
	}
	var err error
	switch {
	case k.JustPressed(tracker.KeyEnter):
		err = m.togglePlaying()
	case k.JustPressed(tracker.KeyNoteUp):
		err = m.editNote(octave)
	case k.JustPressed(tracker.KeyNoteDown):
		err = m.editNote(-octave)
	case k.JustPressed(tracker.KeyNoteClear):
		err = m.clearNote()
	}
	if err != nil {
		debug.Log("edit", "%v", err)
	}
}

func (m *Manager) pageSteps(dir int) {
	top := m.viewTop + dir*tracker.CursorRows
	m.viewTop = max(0, min(top, tracker.NSteps-tracker.CursorRows))
	m.changed = true
}

func (m *Manager) pageTracks(dir int) {
	left := m.viewLeft + dir*tracker.VisibleTracks
	m.viewLeft = max(0, min(left, len(m.tracks)-1))
	m.changed = true
}

// target is the track, step and field under the cursor
func (m *Manager) target() (*tracker.Track, int, int, error) {
	off, field := m.cursor.Field()
	i := m.viewLeft + off
	if i >= len(m.tracks) {
		return nil, 0, 0, ErrNoTrack
	}
	return m.tracks[i], m.viewTop + m.cursor.Row, field, nil
}

func (m *Manager) checkEditable(t *tracker.Track, step int) error {
	if !t.Playing || step != m.seq.Step() {
		return nil
	}
	if _, ok := m.seq.Sounding(t.ID); ok {
		return fmt.Errorf("track %d step %d: %w", t.ID, step, ErrStepSounding)
	}
	return nil
}

func (m *Manager) editNote(delta int) error {
	t, step, field, err := m.target()
	if err != nil {
		return err
	}
	if err := m.checkEditable(t, step); err != nil {
		return err
	}
	m.changed = true
	if field > 0 {
		return t.CycleCmd(step, field-1, delta)
	}
	n, ok := t.NoteAt(step)
	if !ok {
		n = tracker.DefaultNote
	} else {
		n = n.Transpose(delta)
	}
	return t.SetNote(step, n)
}

func (m *Manager) clearNote() error {
	t, step, _, err := m.target()
	if err != nil {
		return err
	}
	if err := m.checkEditable(t, step); err != nil {
		return err
	}
	m.changed = true
	return t.ClearNote(step)
}

func (m *Manager) togglePlaying() error {
	t, _, _, err := m.target()
	if err != nil {
		return err
	}
	if !t.TogglePlaying() {
		m.notes = append(m.notes, m.seq.Release(t.ID, m.clock.Pulses())...)
	}
	m.changed = true
	debug.Info("edit", "track %d playing=%v", t.ID, t.Playing)
	return nil
}

// EditNote transposes the note under the cursor by delta semitones, or
// places the default note on an empty step. On a command cell it cycles
// the command instead.
func (m *Manager) EditNote(delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.editNote(delta)
	m.notifyUpdate()
	return err
}

// ClearNote removes the note under the cursor
func (m *Manager) ClearNote() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.clearNote()
	m.notifyUpdate()
	return err
}

// TogglePlaying starts or stops the track under the cursor. A stopped
// track's sounding note is turned off on the next flush.
func (m *Manager) TogglePlaying() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.togglePlaying()
	m.notifyUpdate()
	return err
}

// SetTempo changes the tempo from the next pulse interval on
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.SetTempo(bpm)
	if r, ok := m.sink.(midi.TempoRecorder); ok {
		r.RecordTempo(m.clock.Pulses(), m.clock.Tempo())
	}
	debug.Info("clock", "tempo %d", m.clock.Tempo())
	m.notifyUpdate()
}

// Move applies one key sample immediately, outside the loop's key source
func (m *Manager) Move(k tracker.Keys) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyKeys(k)
	m.notifyUpdate()
}

// Stop turns off every sounding note and sends the offs right away
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, m.seq.Silence(m.tracks, m.clock.Pulses())...)
	m.flush()
}

// Snapshot is a copy of the displayable state
type Snapshot struct {
	Tracks   []*tracker.Track
	Cursor   tracker.CursorLocation
	ViewTop  int
	ViewLeft int
	Step     int
	Pulse    uint64
	Tempo    int
	BPQ      int
	Dropped  uint64
	Devices  []string
	Bus      string
}

// CursorStep is the step index under the cursor
func (s Snapshot) CursorStep() int {
	return s.ViewTop + s.Cursor.Row
}

// CursorTrack is the index of the track under the cursor, or -1
func (s Snapshot) CursorTrack() int {
	off, _ := s.Cursor.Field()
	if i := s.ViewLeft + off; i < len(s.Tracks) {
		return i
	}
	return -1
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	tracks := make([]*tracker.Track, len(m.tracks))
	for i, t := range m.tracks {
		tracks[i] = t.Clone()
	}
	return Snapshot{
		Tracks:   tracks,
		Cursor:   m.cursor,
		ViewTop:  m.viewTop,
		ViewLeft: m.viewLeft,
		Step:     m.seq.Step(),
		Pulse:    m.clock.Pulses(),
		Tempo:    m.clock.Tempo(),
		BPQ:      m.clock.BPQ(),
		Dropped:  m.clock.Dropped(),
		Devices:  slices.Clone(m.devices),
		Bus:      m.bus,
	}
}
