// Package chat implements the relay core: accepting connections and running client sessions.
package chat

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/chat/broker"
	"github.com/wtask/relay/internal/chat/names"
	"github.com/wtask/relay/internal/logging"
	"github.com/wtask/relay/pkg/background"
)

// ErrServerClosed - returned by Serve after Close was called.
var ErrServerClosed = errors.New("chat.Server: closed")

// Server - represents chat relay over any net.Listener implementation.
type Server struct {
	logger *logging.Logger
	names  *names.Registry
	broker *broker.Broker

	sessions *background.Scope
	cancel   func()

	mu        sync.Mutex
	closed    bool
	listeners map[net.Listener]struct{}
	conns     map[Conn]struct{}
}

// NewServer - creates new chat server which ready to serve several network listeners.
func NewServer(options ...Option) (*Server, error) {
	s := &Server{
		logger:    logging.NewNop(),
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[Conn]struct{}),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.names == nil {
		s.names = names.NewRegistry()
	}
	if s.broker == nil {
		b, err := broker.New(broker.WithLogger(s.logger))
		if err != nil {
			return nil, errors.Wrap(err, "chat.NewServer: can't build broker")
		}
		s.broker = b
	}
	s.sessions, s.cancel = background.NewScope()
	return s, nil
}

// Names - registry of claimed client names.
func (s *Server) Names() *names.Registry {
	return s.names
}

// Broker - registry of joined client channels.
func (s *Server) Broker() *broker.Broker {
	return s.broker
}

// Serve - accepts connections from listener and runs session for each of them.
// Accept errors are logged and accepting goes on, Serve returns when listener is closed.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return errors.New("chat.Server: listener is nil")
	}
	if !s.trackListener(listener, true) {
		return ErrServerClosed
	}
	defer s.trackListener(listener, false)

	s.logger.Info("accepting connections", logging.Fields{"address": formatAddress(listener.Addr())})
	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "chat.Server: accept")
			}
			delay = acceptDelay(delay)
			s.logger.Warn("accept failed", logging.Fields{"error": err, "retry": delay})
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.Handle(conn)
	}
}

// acceptDelay - grows pause between failed accepts, so a broken listener does not spin.
func acceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	if next := prev * 2; next < time.Second {
		return next
	}
	return time.Second
}

// Handle - runs session for connection in background.
// The connection is closed at once if server is closed.
func (s *Server) Handle(conn Conn) {
	if conn == nil {
		return
	}
	session := newSession(conn, s.names, s.broker, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	// session must be started under the lock, Close waits sessions after releasing it
	if s.closed {
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.sessions.Go(func(context.Context) {
		defer s.forgetConn(conn)
		session.Run()
	})
}

// Sessions - number of running sessions.
func (s *Server) Sessions() int {
	return s.sessions.Active()
}

// Close - stops all listeners, drops all connections and waits sessions are done.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for l := range s.listeners {
		l.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.cancel()
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) trackListener(l net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.listeners, l)
		return true
	}
	if s.closed {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) forgetConn(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// formatAddress - formats specified network address for logging purposes.
func formatAddress(a net.Addr) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", a.Network(), a.String())
}
