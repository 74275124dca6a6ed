package chat

import (
	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/chat/broker"
	"github.com/wtask/relay/internal/chat/names"
	"github.com/wtask/relay/internal/logging"
)

// Option - customizes Server on build.
type Option func(s *Server) error

// WithLogger - attach logger for connection and session events.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("chat.WithLogger: logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// WithBroker - use given broker instead of default one.
func WithBroker(b *broker.Broker) Option {
	return func(s *Server) error {
		if b == nil {
			return errors.New("chat.WithBroker: broker is nil")
		}
		s.broker = b
		return nil
	}
}

// WithNameRegistry - use given name registry instead of default one.
func WithNameRegistry(r *names.Registry) Option {
	return func(s *Server) error {
		if r == nil {
			return errors.New("chat.WithNameRegistry: registry is nil")
		}
		s.names = r
		return nil
	}
}
