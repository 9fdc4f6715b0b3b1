package hostlink

import "bytes"

// MaxPending is the largest unterminated fragment kept between reads. A
// frame may span several ReadSize reads; senders keep their frames,
// terminator included, within this bound.
const MaxPending = 4 * ReadSize

// Framer extracts frames from a byte stream. NUL padding is dropped and
// '\n' or '\r' end a frame. A fragment with no terminator is released by
// Idle, so hosts that write one bare message per write still work.
type Framer struct {
	buf      []byte
	frames   [][]byte
	skipping bool // inside an oversized frame, waiting for its terminator
	dropped  int
}

// Feed adds a chunk read from the transport
func (f *Framer) Feed(chunk []byte) {
	for _, b := range chunk {
		switch b {
		case 0:
			continue
		case '\n', '\r':
			if f.skipping {
				f.skipping = false
				continue
			}
			f.push()
		default:
			if f.skipping {
				continue
			}
			if len(f.buf) == MaxPending {
				f.buf = f.buf[:0]
				f.skipping = true
				f.dropped++
				continue
			}
			f.buf = append(f.buf, b)
		}
	}
}

// Idle tells the framer a poll returned nothing. Any pending fragment
// becomes a frame.
func (f *Framer) Idle() {
	if f.skipping {
		f.skipping = false
		return
	}
	f.push()
}

func (f *Framer) push() {
	if len(bytes.TrimSpace(f.buf)) > 0 {
		f.frames = append(f.frames, bytes.Clone(f.buf))
	}
	f.buf = f.buf[:0]
}

// Next pops the oldest complete frame
func (f *Framer) Next() ([]byte, bool) {
	if len(f.frames) == 0 {
		return nil, false
	}
	fr := f.frames[0]
	f.frames = f.frames[1:]
	return fr, true
}

// Ready is the number of complete frames waiting
func (f *Framer) Ready() int { return len(f.frames) }

// Pending is the size of the unterminated fragment
func (f *Framer) Pending() int { return len(f.buf) }

// Dropped counts oversized frames thrown away
func (f *Framer) Dropped() int { return f.dropped }
