package tracker

// CursorLocation is the edit cursor in the step grid.
// Col is in [0, CursorCols), Row in [0, CursorRows).
type CursorLocation struct {
	Col int
	Row int
}

var directions = [...]Key{KeyUp, KeyDown, KeyLeft, KeyRight}

// Move applies one input sample. Only a single unambiguous direction moves
// the cursor: a second direction pressed or held cancels the move, and a
// held shift key suspends movement entirely.
func (c CursorLocation) Move(keys Keys) CursorLocation {
	if keys.Held(KeyLShift) || keys.Held(KeyRShift) {
		return c
	}

	dir, n := Key(-1), 0
	for _, k := range directions {
		if keys.JustPressed(k) {
			dir = k
			n++
		} else if keys.Held(k) {
			n++
		}
	}
	if n != 1 || dir < 0 {
		return c
	}

	switch dir {
	case KeyUp:
		c.Row = wrap(c.Row-1, CursorRows)
	case KeyDown:
		c.Row = wrap(c.Row+1, CursorRows)
	case KeyLeft:
		c.Col = wrap(c.Col-1, CursorCols)
	case KeyRight:
		c.Col = wrap(c.Col+1, CursorCols)
	}
	return c
}

// Field splits the column into the visible track offset and the field
// within it: 0 is the note, 1 and 2 are the command slots.
func (c CursorLocation) Field() (trackOffset, field int) {
	return c.Col / FieldsPerTrack, c.Col % FieldsPerTrack
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
