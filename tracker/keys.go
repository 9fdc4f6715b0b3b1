package tracker

import "sync"

// Key is one key of the device keyboard the core cares about
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyLShift
	KeyRShift
	KeyEnter
	KeyNoteUp
	KeyNoteDown
	KeyNoteClear
	numKeys
)

// Keys answers key queries for one input sample
type Keys interface {
	Held(k Key) bool
	JustPressed(k Key) bool
}

// KeySource hands out one input sample per loop iteration
type KeySource interface {
	Poll() Keys
}

// KeySample is an immutable snapshot of the keyboard
type KeySample struct {
	held    [numKeys]bool
	pressed [numKeys]bool
}

// Press returns a sample with k pressed this iteration (and therefore held)
func (s KeySample) Press(k Key) KeySample {
	if k >= 0 && k < numKeys {
		s.pressed[k] = true
		s.held[k] = true
	}
	return s
}

// Hold returns a sample with k held down without a fresh press
func (s KeySample) Hold(k Key) KeySample {
	if k >= 0 && k < numKeys {
		s.held[k] = true
	}
	return s
}

func (s KeySample) Held(k Key) bool {
	return k >= 0 && k < numKeys && s.held[k]
}

func (s KeySample) JustPressed(k Key) bool {
	return k >= 0 && k < numKeys && s.pressed[k]
}

// KeyState collects key edges from a front end goroutine. Each Poll returns
// what arrived since the previous Poll and clears the edges.
type KeyState struct {
	mu      sync.Mutex
	pending KeySample
}

func NewKeyState() *KeyState {
	return &KeyState{}
}

// Press records a key press; modifiers are held for the same sample.
func (ks *KeyState) Press(k Key, modifiers ...Key) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.pending = ks.pending.Press(k)
	for _, m := range modifiers {
		ks.pending = ks.pending.Hold(m)
	}
}

func (ks *KeyState) Poll() Keys {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	s := ks.pending
	ks.pending = KeySample{}
	return s
}
