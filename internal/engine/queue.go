package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/gamify/internal/ir"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("engine: closed")

// Submission is an event waiting in the intake queue.
type Submission struct {
	UserID    string
	EventType string
	Payload   ir.Payload
}

// eventQueue is a thread-safe FIFO of submissions.
//
// The queue is unbounded so producers never block on a slow Run loop.
// A buffered signal channel lets Run wait with a context.
type eventQueue struct {
	mu     sync.Mutex
	items  []Submission
	closed bool
	signal chan struct{} // size 1, coalesces wakeups
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		items:  make([]Submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a submission. Returns false once the queue is closed.
func (q *eventQueue) Enqueue(s Submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front submission without blocking.
func (q *eventQueue) TryDequeue() (Submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Submission{}, false
	}
	s := q.items[0]

	// Clear the slot so the payload can be collected.
	q.items[0] = Submission{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return s, true
}

// Wait returns a channel that fires when submissions may be available.
// After Close it is permanently ready.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending submissions.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Done reports whether the queue is closed and empty.
func (q *eventQueue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Close stops accepting submissions and wakes any waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Submit queues an event for asynchronous processing by Run.
// Validation happens when the event is processed, not here.
func (e *Engine) Submit(userID, eventType string, payload ir.Payload) error {
	if !e.queue.Enqueue(Submission{UserID: userID, EventType: eventType, Payload: payload.Clone()}) {
		return ErrClosed
	}
	return nil
}

// Pending returns the number of submitted events not yet processed.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Run processes submitted events until ctx is cancelled or the engine is
// closed and the queue drained. A failed event is logged and skipped.
//
// Returns ctx.Err() on cancellation and nil after Close.
func (e *Engine) Run(ctx context.Context) error {
	for {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := e.process(); !ok {
				break
			}
		}
		if e.queue.Done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.Wait():
		}
	}
}

// Drain synchronously processes every submission currently queued and
// returns how many were taken off the queue.
func (e *Engine) Drain() int {
	n := 0
	for {
		if _, ok := e.process(); !ok {
			return n
		}
		n++
	}
}

// process handles one queued submission. The bool is false when the queue
// was empty.
func (e *Engine) process() (Outcome, bool) {
	s, ok := e.queue.TryDequeue()
	if !ok {
		return Outcome{}, false
	}
	out, err := e.TriggerEvent(s.UserID, s.EventType, s.Payload)
	if err != nil {
		e.logger.Warn("queued event failed",
			"user", s.UserID,
			"type", s.EventType,
			"error", err,
		)
	}
	return out, true
}
