package graph

import "github.com/wippyai/script-host/registry"

// Promise is the caller-visible completion of a dynamic import. It is
// settled at most once, by the tracker, on the goroutine driving the
// event loop. The Done channel lets hosts bridge completion into their
// own scheduling.
type Promise struct {
	done    chan struct{}
	id      registry.ModuleID
	err     error
	settled bool
}

// NewPromise creates an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Fulfill settles the promise with a module id. Later settles are
// ignored; the first one wins.
func (p *Promise) Fulfill(id registry.ModuleID) {
	if p.settled {
		return
	}
	p.settled = true
	p.id = id
	close(p.done)
}

// Reject settles the promise with an error.
func (p *Promise) Reject(err error) {
	if p.settled {
		return
	}
	p.settled = true
	p.err = err
	close(p.done)
}

// Settled reports whether the promise has been fulfilled or rejected.
func (p *Promise) Settled() bool {
	return p.settled
}

// Done is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Result returns the settled outcome. Valid only after Done is closed.
func (p *Promise) Result() (registry.ModuleID, error) {
	return p.id, p.err
}
