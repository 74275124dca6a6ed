// Package broker keeps output channels of joined clients and fans messages out to them.
package broker

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wtask/relay/internal/logging"
)

// Broker - registry of active output channels and message router.
type Broker struct {
	writeTimeout time.Duration
	logger       *logging.Logger

	clients *registry
}

func setup(b *Broker, options ...Option) error {
	if b == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(b); err != nil {
			return err
		}
	}
	return nil
}

// New - builds Broker with needed options.
func New(options ...Option) (*Broker, error) {
	b := &Broker{
		writeTimeout: 30 * time.Second,
		logger:       logging.NewNop(),
		clients:      newRegistry(),
	}
	if err := setup(b, options...); err != nil {
		return nil, err
	}
	return b, nil
}

// NewOutbox - builds outbox for connection with write timeout of the Broker.
// The outbox is not registered, use Add for that.
func (b *Broker) NewOutbox(conn io.WriteCloser) *Outbox {
	return NewOutbox(conn, b.writeTimeout)
}

// Add - registers channel as a broadcast recipient.
// Returns false if channel is nil or registered already.
func (b *Broker) Add(ch Channel) bool {
	if ch == nil {
		return false
	}
	return b.clients.add(ch)
}

// Remove - unregisters channel, no-op for unknown channel.
func (b *Broker) Remove(ch Channel) {
	if ch == nil {
		return
	}
	b.clients.delete(ch)
}

// Has - reports whether channel is registered.
func (b *Broker) Has(ch Channel) bool {
	if ch == nil {
		return false
	}
	return b.clients.has(ch)
}

// Len - returns number of registered channels.
func (b *Broker) Len() int {
	return b.clients.len()
}

// Broadcast - sends line to every channel registered at call time and returns number of successful deliveries.
// Failed channel does not stop delivery to others. If it can be closed, it is closed,
// so the owner of the channel notices the broken connection and removes the channel.
func (b *Broker) Broadcast(line string) int {
	members := b.clients.snapshot()
	if len(members) == 0 {
		return 0
	}

	var delivered int64
	wg := sync.WaitGroup{}
	for _, ch := range members {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(line); err != nil {
				b.logger.Debug("broadcast delivery failed", logging.Fields{"channel": ch.ID(), "error": err})
				if c, ok := ch.(io.Closer); ok {
					c.Close()
				}
				return
			}
			atomic.AddInt64(&delivered, 1)
		}(ch)
	}
	wg.Wait()
	return int(delivered)
}
