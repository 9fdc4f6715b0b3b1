package hostlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultReadWait is how long a read waits before reporting no data
const DefaultReadWait = 2 * time.Millisecond

// OpenSerial opens a serial port with a short read timeout, which makes
// reads effectively non-blocking
func OpenSerial(name string, baud int, wait time.Duration) (Transport, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	if err := p.SetReadTimeout(wait); err != nil {
		p.Close()
		return nil, fmt.Errorf("serial %s read timeout: %w", name, err)
	}
	return p, nil
}

// SerialPorts lists the serial ports present on the system
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

type tcpTransport struct {
	net.Conn
	wait time.Duration
}

// Read waits at most wait; a deadline expiry is reported as no data
func (t *tcpTransport) Read(p []byte) (int, error) {
	if err := t.SetReadDeadline(time.Now().Add(t.wait)); err != nil {
		return 0, err
	}
	n, err := t.Conn.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// DialTCP connects to a host listening on addr
func DialTCP(addr string, wait time.Duration) (Transport, error) {
	c, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &tcpTransport{Conn: c, wait: wait}, nil
}

// AcceptTCP waits for one connection on ln. The listener is closed once a
// peer connects or ctx is done.
func AcceptTCP(ctx context.Context, ln net.Listener, wait time.Duration) (Transport, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	c, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	return &tcpTransport{Conn: c, wait: wait}, nil
}

type pipeBuf struct {
	mu     sync.Mutex
	b      bytes.Buffer
	closed bool
}

// PipeEnd is one side of an in-memory transport. Reads never block.
type PipeEnd struct {
	r, w *pipeBuf
	// MaxRead limits how much one Read returns, to exercise fragmentation
	MaxRead int
}

// Pipe returns two connected ends
func Pipe() (*PipeEnd, *PipeEnd) {
	a, b := &pipeBuf{}, &pipeBuf{}
	return &PipeEnd{r: a, w: b}, &PipeEnd{r: b, w: a}
}

func (p *PipeEnd) Read(buf []byte) (int, error) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	if p.r.b.Len() == 0 {
		if p.r.closed {
			return 0, io.EOF
		}
		return 0, nil
	}
	if p.MaxRead > 0 && len(buf) > p.MaxRead {
		buf = buf[:p.MaxRead]
	}
	return p.r.b.Read(buf)
}

func (p *PipeEnd) Write(buf []byte) (int, error) {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	if p.w.closed {
		return 0, io.ErrClosedPipe
	}
	return p.w.b.Write(buf)
}

func (p *PipeEnd) Close() error {
	for _, b := range []*pipeBuf{p.r, p.w} {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
	}
	return nil
}
