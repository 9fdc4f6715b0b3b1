package tracker

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange = errors.New("value out of range")
	ErrStepIndex  = errors.New("step index out of range")
)

// BoundError reports a value that failed its upper bound at construction
type BoundError struct {
	What  string
	Value int
	Bound int
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("%s %d was expected to be less than %d", e.What, e.Value, e.Bound)
}

func (e *BoundError) Is(target error) bool {
	return target == ErrOutOfRange
}

func checkBelow(what string, v, bound int) error {
	if v < 0 || v >= bound {
		return &BoundError{What: what, Value: v, Bound: bound}
	}
	return nil
}

// SwingBound is the exclusive upper bound of a swing amount
const SwingBound = 128

// Swing is a timing offset in [0, 128). The zero value is a valid 0 swing.
type Swing struct {
	amt uint8
}

// NewSwing builds a swing amount, failing when v is outside [0, 128)
func NewSwing(v int) (Swing, error) {
	if err := checkBelow("swing", v, SwingBound); err != nil {
		return Swing{}, err
	}
	return Swing{amt: uint8(v)}, nil
}

// Amount returns the swing value
func (s Swing) Amount() int { return int(s.amt) }

// HoldFor is a sustain length in steps, in [0, NSteps]
type HoldFor struct {
	steps uint8
}

// NewHoldFor builds a hold length, failing when v is outside [0, NSteps]
func NewHoldFor(v int) (HoldFor, error) {
	if err := checkBelow("hold", v, NSteps+1); err != nil {
		return HoldFor{}, err
	}
	return HoldFor{steps: uint8(v)}, nil
}

// Steps returns the hold length
func (h HoldFor) Steps() int { return int(h.steps) }
