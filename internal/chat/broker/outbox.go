package broker

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Channel - sends one line of text to exactly one connected client.
type Channel interface {
	ID() string
	Send(line string) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Outbox - Channel over the writing side of a client connection.
// Sends are serialized, every line is terminated with "\n".
type Outbox struct {
	id      string
	conn    io.WriteCloser
	timeout time.Duration

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewOutbox - builds outbox for given connection.
// Zero timeout disables write deadlines.
func NewOutbox(conn io.WriteCloser, timeout time.Duration) *Outbox {
	return &Outbox{
		id:      uuid.NewString(),
		conn:    conn,
		timeout: timeout,
	}
}

// ID - unique outbox identifier.
func (o *Outbox) ID() string {
	return o.id
}

// Send - writes line into connection.
func (o *Outbox) Send(line string) error {
	if o.closed.Load() {
		return ErrClosedChannel
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if d, ok := o.conn.(writeDeadliner); ok && o.timeout > 0 {
		d.SetWriteDeadline(time.Now().Add(o.timeout))
	}
	if _, err := io.WriteString(o.conn, line); err != nil {
		if o.closed.Load() {
			return ErrClosedChannel
		}
		return errors.Wrapf(err, "broker.Outbox %s: write failed", o.id)
	}
	return nil
}

// Close - closes underlying connection. Pending and further sends will fail.
// Safe to call several times, the first result is returned.
func (o *Outbox) Close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		// do not wait for o.mu: closing conn releases the blocked writer
		o.closeErr = o.conn.Close()
	})
	return o.closeErr
}

// Closed - reports whether Close was called.
func (o *Outbox) Closed() bool {
	return o.closed.Load()
}
