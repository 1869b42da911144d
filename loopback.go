package canutil

import (
	"context"
	"sync"
)

// LoopbackBus is an in-memory CAN bus for tests and simulations.
// Multiple endpoints opened from the same bus can exchange frames; a frame
// is delivered to every endpoint except its sender.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopbackBus creates a new loopback bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open creates a new endpoint attached to the bus. Endpoints opened after
// Close are already closed.
func (b *LoopbackBus) Open() Bus {
	ep := &loopEndpoint{
		bus:  b,
		ch:   make(chan Frame, 64),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.shutdown()
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Close closes the bus and every endpoint attached to it.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.shutdown()
	}
	b.endpoints = nil
	return nil
}

type loopEndpoint struct {
	bus  *LoopbackBus
	ch   chan Frame
	once sync.Once
	done chan struct{}
}

// Send delivers the frame to every other endpoint, blocking while a
// receiver's queue is full.
func (e *loopEndpoint) Send(ctx context.Context, frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	// Snapshot endpoints under the bus lock to avoid holding it while sending.
	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	for _, t := range targets {
		select {
		case t.ch <- frame:
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Receive waits for the next frame. Frames queued before Close are dropped.
func (e *loopEndpoint) Receive(ctx context.Context) (Frame, error) {
	select {
	case <-e.done:
		return Frame{}, ErrClosed
	default:
	}
	select {
	case f := <-e.ch:
		return f, nil
	case <-e.done:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close detaches the endpoint from its bus.
func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	e.bus.mu.Unlock()
	e.shutdown()
	return nil
}

func (e *loopEndpoint) shutdown() {
	e.once.Do(func() { close(e.done) })
}
