// Package background groups goroutines which should be stopped and awaited together.
package background

import (
	"context"
	"sync"
	"sync/atomic"
)

// Scope - abstract concurrency scope
type Scope struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	scope     sync.WaitGroup
	active    int64
}

// NewScope - concurrency scope builder.
// The returned cancel func expires scope context and waits all members are done.
func NewScope() (scope *Scope, cancel func()) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	s := &Scope{
		ctx:       ctx,
		ctxCancel: cancelFunc,
	}
	return s,
		func() {
			s.ctxCancel()
			s.scope.Wait()
		}
}

// Context - return background context
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go - runs f in a new goroutine as a member of scope.
// Returns false without running f when scope is expired already.
func (s *Scope) Go(f func(ctx context.Context)) bool {
	if s.ctx.Err() != nil {
		return false
	}
	s.scope.Add(1)
	atomic.AddInt64(&s.active, 1)
	go func() {
		defer func() {
			atomic.AddInt64(&s.active, -1)
			s.scope.Done()
		}()
		f(s.ctx)
	}()
	return true
}

// Active - number of running members.
func (s *Scope) Active() int {
	return int(atomic.LoadInt64(&s.active))
}

// Wait - blocks until all members are done. It does not expire the scope.
func (s *Scope) Wait() {
	s.scope.Wait()
}
