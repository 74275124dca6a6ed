package broker

import (
	"time"

	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/logging"
)

// Option - customizes Broker on build.
type Option func(b *Broker) error

// WithLogger - attach logger to report failed deliveries.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Broker) error {
		if logger == nil {
			return errors.New("broker.WithLogger: logger is nil")
		}
		b.logger = logger
		return nil
	}
}

// WithWriteTimeout - overwrites default write timeout of outboxes built by Broker.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Broker) error {
		if timeout <= 0 {
			return errors.Errorf("broker.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		b.writeTimeout = timeout
		return nil
	}
}
