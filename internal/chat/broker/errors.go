package broker

import "github.com/pkg/errors"

var (
	// ErrClosedChannel - returns on sending into channel which was already closed.
	ErrClosedChannel = errors.New("broker.Outbox: channel is closed")

	// ErrNilChannel - returns in case if nil channel is passed into Broker.
	ErrNilChannel = errors.New("broker.Broker: channel is nil")
)
