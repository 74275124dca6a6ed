package chat

import (
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/chat/broker"
	"github.com/wtask/relay/internal/chat/message"
	"github.com/wtask/relay/internal/chat/names"
	"github.com/wtask/relay/internal/logging"
)

// Conn - client connection served by Session.
type Conn interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// Session - drives protocol for single client connection.
type Session struct {
	id     string
	conn   Conn
	in     *message.Reader
	out    *broker.Outbox
	names  *names.Registry
	broker *broker.Broker
	logger *logging.Logger

	state   int32
	name    string
	joined  bool
	cleanup sync.Once
}

func newSession(conn Conn, registry *names.Registry, b *broker.Broker, logger *logging.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		conn:   conn,
		in:     message.NewReader(conn),
		out:    b.NewOutbox(conn),
		names:  registry,
		broker: b,
		logger: logger.With(logging.Fields{"session": id, "remote": formatAddress(conn.RemoteAddr())}),
		state:  int32(StateConnected),
	}
}

// ID - unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// State - current protocol state.
func (s *Session) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Session) setState(state State) {
	atomic.StoreInt32(&s.state, int32(state))
}

// Run - serves connection until client leaves or I/O fails.
// Name, channel and connection are always released on return.
func (s *Session) Run() {
	defer s.close()
	s.logger.Debug("session started")

	s.setState(StateNegotiating)
	if err := s.negotiate(); err != nil {
		s.finish(err)
		return
	}

	s.setState(StateActive)
	s.finish(s.relay())
}

// negotiate - prompts for a name until the client claims a free one.
func (s *Session) negotiate() error {
	for {
		if err := s.out.Send(message.DirectiveSubmitName); err != nil {
			return errors.Wrap(err, "prompt name")
		}
		candidate, err := s.in.ReadLine()
		if err != nil {
			return errors.Wrap(err, "read name")
		}
		candidate = strings.TrimSpace(candidate)
		if !s.names.TryRegister(candidate) {
			s.logger.Debug("name rejected", logging.Fields{"candidate": candidate})
			continue
		}
		s.name = candidate
		s.logger = s.logger.With(logging.Fields{"name": candidate})
		break
	}

	if err := s.out.Send(message.DirectiveNameAccepted); err != nil {
		return errors.Wrap(err, "accept name")
	}
	s.joined = s.broker.Add(s.out)
	s.logger.Info("client joined", logging.Fields{"clients": s.broker.Len()})
	return nil
}

// relay - broadcasts every client line until end of stream.
func (s *Session) relay() error {
	for {
		line, err := s.in.ReadLine()
		if err != nil {
			return errors.Wrap(err, "read message")
		}
		s.broker.Broadcast(message.Format(s.name, line))
	}
}

func (s *Session) finish(err error) {
	fields := logging.Fields{"state": s.State().String()}
	if errors.Cause(err) == io.EOF {
		s.logger.Info("client left", fields)
		return
	}
	fields["error"] = err
	s.logger.Info("client dropped", fields)
}

// close - releases session resources, only the first call has effect.
func (s *Session) close() {
	s.cleanup.Do(func() {
		if s.joined {
			s.broker.Remove(s.out)
		}
		if s.name != "" {
			s.names.Release(s.name)
		}
		// closing an already broken connection may fail, nothing to do with it
		s.out.Close()
		s.setState(StateClosed)
	})
}
