package broker

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_Send(test *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	o := NewOutbox(serverConn, time.Second)
	assert.NotEmpty(test, o.ID())

	done := make(chan []string)
	go func() {
		r := bufio.NewReader(clientConn)
		lines := []string{}
		for i := 0; i < 2; i++ {
			line, _ := r.ReadString('\n')
			lines = append(lines, line)
		}
		done <- lines
	}()

	require.NoError(test, o.Send("SUBMITNAME"))
	require.NoError(test, o.Send("NAMEACCEPTED\n"))
	assert.Equal(test, []string{"SUBMITNAME\n", "NAMEACCEPTED\n"}, <-done)
}

func TestOutbox_Close(test *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	o := NewOutbox(serverConn, time.Second)

	require.NoError(test, o.Close())
	assert.True(test, o.Closed())
	assert.NoError(test, o.Close(), "repeated close must return the first result")
	assert.Equal(test, ErrClosedChannel, o.Send("late"))
}

func TestOutbox_BrokenConnection(test *testing.T) {
	clientConn, serverConn := net.Pipe()
	o := NewOutbox(serverConn, time.Second)
	clientConn.Close()

	err := o.Send("nobody listens")
	require.Error(test, err)
	assert.NotEqual(test, ErrClosedChannel, err)
}

func TestOutbox_WriteTimeout(test *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	// nobody reads from clientConn, so write must hit the deadline
	o := NewOutbox(serverConn, 20*time.Millisecond)

	err := o.Send("stuck")
	require.Error(test, err)
	netErr, ok := errors.Cause(err).(net.Error)
	require.True(test, ok, "unexpected error type %T", err)
	assert.True(test, netErr.Timeout())
}
