package hostlink

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ReadSize is the inbound chunk size
const ReadSize = 512

// maxQueuedLogs bounds the log queue when nothing flushes it
const maxQueuedLogs = 256

// Transport is a byte stream to the host. Read must not block for long:
// returning 0, nil means nothing arrived.
type Transport interface {
	io.ReadWriteCloser
}

// Link frames, decodes and queues traffic on a transport
type Link struct {
	t      Transport
	framer Framer
	buf    [ReadSize]byte
	inbox  []FromHost
	out    []FromTracker

	// log lines may be queued from other goroutines (logging hooks)
	mu          sync.Mutex
	logs        []string
	droppedLogs int
}

func NewLink(t Transport) *Link {
	return &Link{t: t}
}

// Poll reads whatever the transport has. A read that returns no bytes
// releases any unterminated fragment. Errors are transient and the caller
// should carry on with the next iteration.
func (l *Link) Poll() (int, error) {
	n, err := l.t.Read(l.buf[:])
	if n > 0 {
		l.framer.Feed(l.buf[:n])
	} else {
		l.framer.Idle()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, err
}

// Next decodes at most one frame. On success the message is also queued in
// the inbox. A frame that fails to decode is consumed and the inbox is left
// as it was. It returns nil, nil when no frame is waiting.
func (l *Link) Next() (FromHost, error) {
	fr, ok := l.framer.Next()
	if !ok {
		return nil, nil
	}
	m, err := DecodeFromHost(fr)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", fr, err)
	}
	l.inbox = append(l.inbox, m)
	return m, nil
}

// Inbox returns the decoded messages not yet drained
func (l *Link) Inbox() []FromHost {
	return append([]FromHost(nil), l.inbox...)
}

// Drain returns and clears the inbox
func (l *Link) Drain() []FromHost {
	in := l.inbox
	l.inbox = nil
	return in
}

// QueueLog queues a diagnostic line. Safe for concurrent use.
func (l *Link) QueueLog(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.logs) >= maxQueuedLogs {
		l.droppedLogs++
		return
	}
	l.logs = append(l.logs, line)
}

// Send queues a message for the next Flush
func (l *Link) Send(m FromTracker) {
	l.out = append(l.out, m)
}

// Queued is the number of outbound messages waiting, logs included
func (l *Link) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.logs) + len(l.out)
}

// Flush writes queued log lines and then queued messages, each as one
// write with its terminator. A failed write drops that message; the
// errors are joined and returned.
func (l *Link) Flush() error {
	l.mu.Lock()
	logs := l.logs
	l.logs = nil
	if l.droppedLogs > 0 {
		logs = append(logs, fmt.Sprintf("%d log lines dropped", l.droppedLogs))
		l.droppedLogs = 0
	}
	l.mu.Unlock()

	out := l.out
	l.out = nil

	var errs []error
	for _, line := range logs {
		errs = append(errs, l.write(Log{Message: line}))
	}
	for _, m := range out {
		errs = append(errs, l.write(m))
	}
	return errors.Join(errs...)
}

func (l *Link) write(m FromTracker) error {
	frame := append(EncodeFromTracker(m), Terminator...)
	if _, err := l.t.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", m.Tag(), err)
	}
	return nil
}

func (l *Link) Close() error {
	return l.t.Close()
}

// HostLink is the host side of the same protocol: it decodes FromTracker
// and sends FromHost.
type HostLink struct {
	t      Transport
	framer Framer
	buf    [ReadSize]byte
}

func NewHostLink(t Transport) *HostLink {
	return &HostLink{t: t}
}

// Receive polls once and returns every message that decoded. Frames that
// fail to decode are reported through bad.
func (h *HostLink) Receive(bad func(frame []byte, err error)) ([]FromTracker, error) {
	n, err := h.t.Read(h.buf[:])
	if n > 0 {
		h.framer.Feed(h.buf[:n])
	} else {
		h.framer.Idle()
	}
	var msgs []FromTracker
	for {
		fr, ok := h.framer.Next()
		if !ok {
			break
		}
		m, derr := DecodeFromTracker(fr)
		if derr != nil {
			if bad != nil {
				bad(fr, derr)
			}
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, err
}

// Send writes one message immediately
func (h *HostLink) Send(m FromHost) error {
	frame := append(EncodeFromHost(m), Terminator...)
	if _, err := h.t.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", m.Tag(), err)
	}
	return nil
}

func (h *HostLink) Close() error {
	return h.t.Close()
}
