// Package wsconn lets websocket clients speak the line protocol of the relay.
// Every websocket text frame carries exactly one protocol line.
package wsconn

import (
	"bytes"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const closeWait = time.Second

// Conn - adapts websocket connection to a newline-delimited byte stream.
type Conn struct {
	ws *websocket.Conn

	rmu   sync.Mutex
	frame bytes.Reader

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// New - wraps websocket connection.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Read - reads stream, frames are separated with "\n".
// Normal close of websocket is reported as io.EOF.
func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()
	for c.frame.Len() == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		c.frame.Reset(append(data, '\n'))
	}
	return c.frame.Read(p)
}

// Write - sends every line of p as separate text frame.
func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	text := strings.TrimSuffix(string(p), "\n")
	for _, line := range strings.Split(text, "\n") {
		if err := c.ws.WriteMessage(websocket.TextMessage, []byte(strings.TrimSuffix(line, "\r"))); err != nil {
			return 0, errors.Wrap(err, "wsconn: write frame")
		}
	}
	return len(p), nil
}

// SetWriteDeadline - sets deadline for frame writes.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

// Close - sends close frame and closes underlying connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		// control frames may be written concurrently with WriteMessage
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait),
		)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr - returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}
