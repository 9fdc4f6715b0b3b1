package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"go-tracker/hostlink"
	"go-tracker/midi"
)

// BusAddress is where outbound bus lines are sent
const BusAddress = "/bus"

var errRange = errors.New("value out of range")

// packetSender is satisfied by *osc.Client
type packetSender interface {
	Send(packet osc.Packet) error
}

// Bridge is the host end of the link: it answers device requests, prints
// device logs, relays MIDI input to the device and carries the message
// bus between the device and OSC.
type Bridge struct {
	mu   sync.Mutex // serialises writes to the link
	link *hostlink.HostLink
	log  *logrus.Logger

	devs func() []string
	bus  packetSender // nil drops outbound bus lines

	subMu sync.RWMutex
	subs  map[string]bool
}

func NewBridge(link *hostlink.HostLink, log *logrus.Logger, devs func() []string, bus packetSender) *Bridge {
	if devs == nil {
		devs = func() []string { return nil }
	}
	return &Bridge{
		link: link,
		log:  log,
		devs: devs,
		bus:  bus,
		subs: make(map[string]bool),
	}
}

func (b *Bridge) send(m hostlink.FromHost) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.link.Send(m)
}

// Poll reads once from the link and handles what arrived
func (b *Bridge) Poll() error {
	msgs, err := b.link.Receive(func(frame []byte, err error) {
		b.log.WithField("frame", string(frame)).Warnf("undecodable frame: %v", err)
	})
	for _, m := range msgs {
		if herr := b.Handle(m); herr != nil {
			b.log.Warnf("%s: %v", m.Tag(), herr)
		}
	}
	return err
}

// Handle reacts to one message from the device
func (b *Bridge) Handle(m hostlink.FromTracker) error {
	switch m := m.(type) {
	case hostlink.Log:
		b.log.WithField("src", "device").Info(m.Message)
	case hostlink.RequestDevs:
		return b.SendDevs()
	case hostlink.TrackerBus:
		if b.bus == nil {
			return nil
		}
		return b.bus.Send(osc.NewMessage(BusAddress, m.Message))
	case hostlink.ListenFor:
		b.subMu.Lock()
		b.subs[m.Message] = true
		b.subMu.Unlock()
		b.log.Debugf("device listens for %s", m.Message)
	}
	return nil
}

// SendDevs sends the current output port list. Names are dropped from
// the end until the frame fits the device's reassembly bound.
func (b *Bridge) SendDevs() error {
	devs := hostlink.Devs{DevNames: b.devs()}
	all := len(devs.DevNames)
	for len(devs.DevNames) > 0 && frameSize(devs) > hostlink.MaxPending {
		devs.DevNames = devs.DevNames[:len(devs.DevNames)-1]
	}
	if n := all - len(devs.DevNames); n > 0 {
		b.log.Warnf("devs: %d of %d port names left out", n, all)
	}
	return b.send(devs)
}

func frameSize(m hostlink.FromHost) int {
	return len(hostlink.EncodeFromHost(m)) + len(hostlink.Terminator)
}

// Subscriptions returns the addresses the device asked for, sorted
func (b *Bridge) Subscriptions() []string {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	out := make([]string, 0, len(b.subs))
	for s := range b.subs {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Relay forwards a MIDI input event to the device
func (b *Bridge) Relay(e midi.Event) error {
	m, err := FromEvent(e)
	if err != nil {
		return err
	}
	return b.send(m)
}

// FromEvent converts a MIDI event into the message the device expects
func FromEvent(e midi.Event) (hostlink.FromHost, error) {
	if e.Channel > 15 || e.Note > 127 || e.Velocity > 127 {
		return nil, fmt.Errorf("%v: %w", e, errRange)
	}
	switch e.Type {
	case midi.NoteOn:
		return hostlink.MidiNoteOn{Note: e.Note, Vel: e.Velocity, Channel: e.Channel}, nil
	case midi.NoteOff:
		return hostlink.MidiNoteOff{Note: e.Note, Channel: e.Channel}, nil
	case midi.CC:
		return hostlink.MidiCC{Control: e.Note, Param: e.Velocity, Channel: e.Channel}, nil
	}
	return nil, fmt.Errorf("unsupported event type %#x", e.Type)
}

// Dispatch implements osc.Dispatcher. Messages on subscribed addresses are
// forwarded to the device as bus lines.
func (b *Bridge) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		b.dispatchMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			b.dispatchMessage(m)
		}
		for _, inner := range p.Bundles {
			b.Dispatch(inner)
		}
	}
}

func (b *Bridge) dispatchMessage(m *osc.Message) {
	b.subMu.RLock()
	ok := b.subs[m.Address]
	b.subMu.RUnlock()
	if !ok {
		return
	}
	if err := b.send(hostlink.HostBus{Message: BusLine(m)}); err != nil {
		b.log.Warnf("bus %s: %v", m.Address, err)
	}
}

// BusLine renders an OSC message as "address arg arg..."
func BusLine(m *osc.Message) string {
	parts := []string{m.Address}
	for _, a := range m.Arguments {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}
