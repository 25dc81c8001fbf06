package dgram

import (
	"sync"
)

// Group runs units of work on their own goroutines and collects the first
// failure, stopping the remaining work best-effort.
//
// This is the coordination used to drive two transports against each
// other: each endpoint role runs in its own goroutine, and when either
// fails the stop function is invoked once to unblock the other (typically
// by closing both transports, which fails any pending receive with
// ErrClosed).
type Group struct {
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	stop    func()
}

// NewGroup creates a group. stop is invoked at most once, on the first
// failure; it may be nil.
func NewGroup(stop func()) *Group {
	return &Group{
		stop: stop,
	}
}

// Go runs fn on a new goroutine. If fn returns a non-nil error and it is
// the first failure in the group, the error is recorded and the stop
// function invoked.
func (g *Group) Go(fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if err := fn(); err != nil {
			g.errOnce.Do(func() {
				g.err = err
				if g.stop != nil {
					g.stop()
				}
			})
		}
	}()
}

// Wait blocks until all units of work have returned, then returns the
// first failure, or nil if all succeeded.
func (g *Group) Wait() error {
	g.wg.Wait()
	return g.err
}
