package midi

import (
	"path/filepath"
	"reflect"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestMessageRoundTrip(t *testing.T) {
	for _, ev := range []Event{
		On(0, 60, DefaultVelocity),
		Off(3, 61, DefaultOffVelocity),
		Control(15, 7, 100),
	} {
		msg, err := Message(ev)
		if err != nil {
			t.Fatalf("Message(%v): %v", ev, err)
		}
		got, ok := Decode(msg)
		if !ok {
			t.Fatalf("Decode(%v) not ok", msg)
		}
		if got != ev {
			t.Errorf("round trip %v gave %v", ev, got)
		}
	}
}

func TestMessageMasksChannel(t *testing.T) {
	msg, err := Message(On(17, 60, 100))
	if err != nil {
		t.Fatal(err)
	}
	var ch, key, vel uint8
	if !msg.GetNoteOn(&ch, &key, &vel) || ch != 1 {
		t.Fatalf("channel %d, want 1", ch)
	}
	if _, err := Message(Event{Type: 0xF0}); err == nil {
		t.Fatal("sysex should not convert")
	}
}

func TestDecodeZeroVelocityIsOff(t *testing.T) {
	got, ok := Decode(gomidi.NoteOn(2, 64, 0))
	if !ok || got.Type != NoteOff || got.Note != 64 || got.Channel != 2 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
	if _, ok := Decode(gomidi.Pitchbend(0, 100)); ok {
		t.Fatal("pitchbend should be ignored")
	}
}

func TestRecordingSinkReset(t *testing.T) {
	var r RecordingSink
	r.Send(On(0, 60, 1))
	if len(r.Events()) != 1 {
		t.Fatalf("events %v", r.Events())
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Fatal("reset kept events")
	}
}

func TestCaptureSinkWritesSMF(t *testing.T) {
	var next RecordingSink
	c := NewCaptureSink(48, 120, &next)
	for _, ev := range []Event{
		{Type: NoteOn, Note: 60, Velocity: 111, Tick: 0},
		{Type: NoteOff, Note: 60, Velocity: 120, Tick: 6},
		{Type: NoteOn, Note: 62, Velocity: 111, Tick: 6},
	} {
		if err := c.Send(ev); err != nil {
			t.Fatal(err)
		}
	}
	c.RecordTempo(12, 90)
	if len(next.Events()) != 3 {
		t.Fatalf("forwarded %d events", len(next.Events()))
	}

	s, err := c.SMF()
	if err != nil {
		t.Fatal(err)
	}
	if tf, ok := s.TimeFormat.(smf.MetricTicks); !ok || tf.Resolution() != 48 {
		t.Fatalf("time format %v", s.TimeFormat)
	}
	var deltas []uint32
	for _, ev := range s.Tracks[0] {
		deltas = append(deltas, ev.Delta)
	}
	// tempo, on, off, on, tempo, end of track
	if want := []uint32{0, 0, 6, 0, 6, 0}; !reflect.DeepEqual(deltas, want) {
		t.Fatalf("deltas %v, want %v", deltas, want)
	}

	path := filepath.Join(t.TempDir(), "take.mid")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	back, err := smf.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Tracks) != 1 || len(back.Tracks[0]) != 6 {
		t.Fatalf("read back %d tracks", len(back.Tracks))
	}
}

func TestDeviceManagerScan(t *testing.T) {
	ports := Ports{In: []string{"keys"}, Out: []string{"synth", "drums"}}
	dm := NewDeviceManager(func() (Ports, bool) { return ports, true })

	if !dm.Scan() {
		t.Fatal("first scan should report changes")
	}
	if got := dm.Outputs(); !reflect.DeepEqual(got, []string{"drums", "synth"}) {
		t.Fatalf("outputs %v", got)
	}
	if dm.Scan() {
		t.Fatal("unchanged ports reported a change")
	}

	ports.Out = []string{"synth"}
	dm.Scan()
	var last DeviceEvent
	for i := 0; i < 4; i++ {
		last = <-dm.Events()
	}
	if last.Type != DeviceDisconnected || last.Name != "drums" || last.Dir != PortOut {
		t.Fatalf("last event %+v", last)
	}
	if got := dm.Inputs(); !reflect.DeepEqual(got, []string{"keys"}) {
		t.Fatalf("inputs %v", got)
	}
}

func TestDeviceManagerScanTimeoutKeepsPorts(t *testing.T) {
	ports, ok := Ports{Out: []string{"synth"}}, true
	dm := NewDeviceManager(func() (Ports, bool) { return ports, ok })
	dm.Scan()
	<-dm.Events()

	ports, ok = Ports{}, false
	if dm.Scan() {
		t.Fatal("timed out scan reported a change")
	}
	if got := dm.Outputs(); !reflect.DeepEqual(got, []string{"synth"}) {
		t.Fatalf("outputs %v", got)
	}
	select {
	case ev := <-dm.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestListenerCloseDropsLateMessages(t *testing.T) {
	l := &Listener{name: "keys", events: make(chan Event, 1)}
	l.deliver(gomidi.NoteOn(0, 60, 100))
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	// a driver callback racing Close must not send on the closed channel
	l.deliver(gomidi.NoteOn(0, 61, 100))
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	var got []Event
	for ev := range l.Events() {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0].Note != 60 {
		t.Fatalf("got %v", got)
	}
}
