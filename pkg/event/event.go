// Package event implements the VM's scheduler integration: a
// multi-producer, single-consumer channel carrying work items from
// asynchronous natives back to the interpreter's top-level loop (spec.md
// §2 item 7, §4.7).
//
// The VM owns the receiving side; async natives clone the sending side
// (Notifier) into whatever goroutine they spawn for timers or I/O. This is
// the one place this VM genuinely uses concurrency - everywhere else,
// spec.md §5 mandates single-threaded cooperative execution. The pattern
// (unbuffered-or-bounded channel as a one-way mailbox into an otherwise
// single-threaded loop) has no direct analog in the teacher repo, which is
// fully synchronous; it is grounded instead on ordinary idiomatic Go
// channel fan-in, the same shape used for cancellation/shutdown signaling
// throughout the pack (e.g. context.Context-driven select loops).
package event

import (
	"context"
	"fmt"

	"github.com/kristofer/egovm/pkg/value"
)

// Kind discriminates event payloads. Call is the only kind spec.md §6.3
// names; the type exists so the queue can grow additional event kinds
// without changing its wire shape.
type Kind byte

const (
	// Call means "at the earliest safe moment, run this function with no
	// arguments."
	Call Kind = iota
)

// Event is one message carried on the queue.
type Event struct {
	Kind Kind
	Fn   value.Value
}

// Queue is the VM's event channel. It is safe for concurrent Notifier.Send
// calls from many goroutines; only the owning VM ever receives.
type Queue struct {
	ch chan Event
}

// New creates a Queue with the given backpressure capacity. A capacity of 0
// yields an unbuffered channel, on which Notifier.Send (which never blocks)
// fails with "event queue is full" unless the VM is already waiting in
// Receive; SendBlocking is the variant that waits. A buffered queue sized
// via internal/config.EventQueueCapacity leaves room for pending events.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan Event, capacity)}
}

// Notifier returns the send-side handle async natives clone into their
// spawned goroutines.
func (q *Queue) Notifier() *Notifier {
	return &Notifier{ch: q.ch}
}

// Receive blocks until an event arrives, the queue is closed, or ctx is
// canceled. It is the VM top-level loop's half of the idle-wait select
// described in spec.md §4.7.
func (q *Queue) Receive(ctx context.Context) (Event, bool, error) {
	select {
	case ev, ok := <-q.ch:
		if !ok {
			return Event{}, false, nil
		}
		return ev, true, nil
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	}
}

// TryReceive performs a non-blocking poll. The VM uses it once a program's
// bytecode has finished, to dispatch the events that have already arrived
// without waiting for more (spec.md §4.7 option (a) vs (b)).
func (q *Queue) TryReceive() (Event, bool) {
	select {
	case ev, ok := <-q.ch:
		return ev, ok
	default:
		return Event{}, false
	}
}

// Close closes the underlying channel. Safe to call once the VM has
// confirmed no more async natives will send - sending on a closed queue
// panics, matching Go channel semantics; callers that cannot make that
// guarantee should let the Queue be garbage collected unclosed instead.
func (q *Queue) Close() {
	close(q.ch)
}

// Notifier is the sender half of a Queue, freely cloneable by value and safe
// for concurrent use - exactly the capability spec.md §4.7 says async
// natives "clone into their spawned tasks."
type Notifier struct {
	ch chan<- Event
}

// Send posts a Call event. It returns an error rather than panicking or
// silently discarding the failure - spec.md §9's open question about
// whether a blocked/failed send should panic or surface an error is
// resolved here in favor of surfacing: the caller (a natives.AsyncFunc body)
// decides whether that's fatal to its own task.
func (n *Notifier) Send(fn value.Value) error {
	select {
	case n.ch <- Event{Kind: Call, Fn: fn}:
		return nil
	default:
		return fmt.Errorf("event queue is full")
	}
}

// SendBlocking posts a Call event, blocking until there is room or ctx is
// canceled, so a momentarily full queue delays the event instead of dropping
// it. pkg/natives/timers sends its ticks with Send, not with this.
func (n *Notifier) SendBlocking(ctx context.Context, fn value.Value) error {
	select {
	case n.ch <- Event{Kind: Call, Fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
