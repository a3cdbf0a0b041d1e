package uistate

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Subscription.Next once the subscription (or the
// cell it belongs to) is closed and every queued state has been delivered.
var ErrClosed = errors.New("uistate: closed")

// Cell is a single-writer, multi-reader broadcast of State values.
//
// It always holds exactly one current value. Set replaces it and hands the
// new value to every subscriber; Subscribe returns a subscription whose first
// value is the current one (replay-latest), followed by every later Set in
// the order they happened.
//
// NO CONFLATION:
// Each subscription has its own unbounded queue. A slow reader never blocks
// Set and never misses an intermediate state: it sees Empty, Loading,
// Success in that order even if it only starts reading after all three were
// published.
type Cell[T any] struct {
	mu      sync.Mutex
	current State[T]
	subs    map[*Subscription[T]]struct{}
	closed  bool
}

// NewCell creates a cell holding initial as its current value.
func NewCell[T any](initial State[T]) *Cell[T] {
	return &Cell[T]{
		current: initial,
		subs:    make(map[*Subscription[T]]struct{}),
	}
}

// Value returns the current state.
func (c *Cell[T]) Value() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set publishes s. Calls are totally ordered: every subscriber observes
// concurrent Sets in the same order. Set on a closed cell is a no-op.
func (c *Cell[T]) Set(s State[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.current = s
	for sub := range c.subs {
		sub.push(s)
	}
}

// Subscribe attaches a new reader. Its first value is the current state.
// Subscribing to a closed cell still replays the last state, then ends.
func (c *Cell[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		cell:  c,
		ready: make(chan struct{}, 1),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sub.push(c.current)
	if c.closed {
		sub.finish()
		return sub
	}
	c.subs[sub] = struct{}{}
	return sub
}

// Close ends every subscription. Readers still drain what was queued before
// Next starts returning ErrClosed.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.finish()
	}
	clear(c.subs)
}

func (c *Cell[T]) unsubscribe(sub *Subscription[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, sub)
}

// Subscription is one reader's view of a Cell. It is safe to call Close from
// another goroutine while Next is blocked.
type Subscription[T any] struct {
	cell  *Cell[T]
	ready chan struct{} // capacity 1: "queue may be non-empty"

	mu    sync.Mutex
	queue []State[T]
	done  bool
}

// Next blocks until the next state is available, the subscription ends
// (ErrClosed) or ctx is done (ctx.Err()).
func (s *Subscription[T]) Next(ctx context.Context) (State[T], error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			v := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return v, nil
		}
		if s.done {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close detaches the subscription from its cell and drops anything queued.
func (s *Subscription[T]) Close() {
	s.cell.unsubscribe(s)

	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
	s.finish()
}

func (s *Subscription[T]) push(v State[T]) {
	s.mu.Lock()
	if !s.done {
		s.queue = append(s.queue, v)
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
