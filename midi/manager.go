package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortDir tells inputs from outputs
type PortDir int

const (
	PortIn PortDir = iota
	PortOut
)

func (d PortDir) String() string {
	if d == PortIn {
		return "in"
	}
	return "out"
}

// DeviceEvent is emitted when a port appears or goes away
type DeviceEvent struct {
	Type DeviceEventType
	Dir  PortDir
	Name string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Ports is one scan of the system's MIDI ports
type Ports struct {
	In  []string
	Out []string
}

// PortLister returns the currently visible ports, ok=false when the
// lookup failed and the result says nothing about what is plugged in
type PortLister func() (Ports, bool)

// PortNames lists the system ports. CoreMIDI can hang, so the lookup gives
// up after timeout and reports ok=false.
func PortNames(timeout time.Duration) (Ports, bool) {
	ch := make(chan Ports, 1)
	go func() {
		var p Ports
		for _, in := range gomidi.GetInPorts() {
			p.In = append(p.In, in.String())
		}
		for _, out := range gomidi.GetOutPorts() {
			p.Out = append(p.Out, out.String())
		}
		ch <- p
	}()
	select {
	case p := <-ch:
		return p, true
	case <-time.After(timeout):
		return Ports{}, false
	}
}

func systemPorts() (Ports, bool) {
	return PortNames(3 * time.Second)
}

// DeviceManager handles hot-plug detection of MIDI ports
type DeviceManager struct {
	mu       sync.RWMutex
	ins      map[string]bool
	outs     map[string]bool
	events   chan DeviceEvent
	pollRate time.Duration
	list     PortLister
}

// NewDeviceManager creates a device manager polling the system ports.
// A nil lister uses the rtmidi driver.
func NewDeviceManager(list PortLister) *DeviceManager {
	if list == nil {
		list = systemPorts
	}
	return &DeviceManager{
		ins:      make(map[string]bool),
		outs:     make(map[string]bool),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
		list:     list,
	}
}

// Events returns a channel of port connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Outputs returns the known output port names, sorted
func (dm *DeviceManager) Outputs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedKeys(dm.outs)
}

// Inputs returns the known input port names, sorted
func (dm *DeviceManager) Inputs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedKeys(dm.ins)
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.Scan()
	for {
		select {
		case <-ctx.Done():
			close(dm.events)
			return
		case <-ticker.C:
			dm.Scan()
		}
	}
}

// Scan compares the visible ports with the last scan and emits the
// differences. It reports whether anything changed. A failed lookup
// leaves the known ports as they were.
func (dm *DeviceManager) Scan() bool {
	p, ok := dm.list()
	if !ok {
		return false
	}

	dm.mu.Lock()
	var evs []DeviceEvent
	evs = append(evs, diff(dm.ins, p.In, PortIn)...)
	evs = append(evs, diff(dm.outs, p.Out, PortOut)...)
	dm.mu.Unlock()

	for _, ev := range evs {
		select {
		case dm.events <- ev:
		default:
			// nobody is listening; the port maps stay authoritative
		}
	}
	return len(evs) > 0
}

func diff(known map[string]bool, now []string, dir PortDir) []DeviceEvent {
	var evs []DeviceEvent
	seen := make(map[string]bool, len(now))
	for _, name := range now {
		seen[name] = true
		if !known[name] {
			known[name] = true
			evs = append(evs, DeviceEvent{Type: DeviceConnected, Dir: dir, Name: name})
		}
	}
	for _, name := range sortedKeys(known) {
		if !seen[name] {
			delete(known, name)
			evs = append(evs, DeviceEvent{Type: DeviceDisconnected, Dir: dir, Name: name})
		}
	}
	return evs
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
