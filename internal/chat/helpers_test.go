package chat

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtask/relay/internal/chat/message"
)

const readTimeout = 2 * time.Second

// testClient - line protocol client for tests.
type testClient struct {
	test *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func newTestClient(test *testing.T, conn net.Conn) *testClient {
	return &testClient{test, conn, bufio.NewReader(conn)}
}

func dial(test *testing.T, addr string) *testClient {
	conn, err := net.Dial("tcp", addr)
	require.NoError(test, err)
	test.Cleanup(func() { conn.Close() })
	return newTestClient(test, conn)
}

func (c *testClient) send(line string) {
	c.conn.SetWriteDeadline(time.Now().Add(readTimeout))
	_, err := c.conn.Write([]byte(line + "\r\n"))
	require.NoError(c.test, err)
}

func (c *testClient) readLine() (string, error) {
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	line, err := c.r.ReadString('\n')
	return line, err
}

func (c *testClient) expect(expected string) {
	line, err := c.readLine()
	require.NoError(c.test, err, "waiting for %q", expected)
	assert.Equal(c.test, expected+"\n", line)
}

func (c *testClient) expectMessage(payload string) {
	line, err := c.readLine()
	require.NoError(c.test, err, "waiting for message %q", payload)
	actual, ok := message.Payload(line)
	require.True(c.test, ok, "not a broadcast line: %q", line)
	assert.Equal(c.test, payload, actual)
}

// expectSilence - checks nothing arrives during d.
func (c *testClient) expectSilence(d time.Duration) {
	c.conn.SetReadDeadline(time.Now().Add(d))
	line, err := c.r.ReadString('\n')
	require.Error(c.test, err, "unexpected line %q", line)
	netErr, ok := err.(net.Error)
	require.True(c.test, ok && netErr.Timeout(), "unexpected error %v", err)
}

func (c *testClient) join(name string) {
	c.expect(message.DirectiveSubmitName)
	c.send(name)
	c.expect(message.DirectiveNameAccepted)
}

func startServer(test *testing.T) (*Server, string) {
	s, err := NewServer()
	require.NoError(test, err)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()
	test.Cleanup(func() {
		s.Close()
		select {
		case err := <-done:
			assert.Equal(test, ErrServerClosed, err)
		case <-time.After(readTimeout):
			test.Error("Serve did not return after Close")
		}
	})
	return s, l.Addr().String()
}

func waitJoined(test *testing.T, s *Server, n int) {
	require.Eventually(test, func() bool { return s.Broker().Len() == n }, readTimeout, 5*time.Millisecond,
		"expected %d joined clients", n)
}
