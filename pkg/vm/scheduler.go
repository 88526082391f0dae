// This file implements the top-level half of the scheduler (spec.md §4.7):
// draining events already queued by the time a dispatch finishes, and an
// explicit Pump a long-running host calls to keep servicing timer callbacks
// after the main program's own bytecode has completed.
//
// Run deliberately does not block forever waiting for future events on its
// own: a script with no async natives must return as soon as its bytecode
// ends, and "when does the event loop stop" has no single right answer once
// outstanding timers exist (spec.md leaves this to the host). Run drains
// whatever has already arrived; hosts that schedule real timers call Pump
// themselves, governed by their own context, exactly the way the teacher's
// CLI owns its own run loop rather than having library code decide when to
// stop for it.
package vm

import (
	"context"

	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/value"
)

// drainEvents processes every event already sitting in the queue,
// non-blocking, corresponding to spec.md §4.7 option (a) "more opcodes to
// run" losing out to option (b) only when nothing else is left: here, by
// the time drainEvents runs, there genuinely is nothing else left, so every
// already-queued event gets serviced before Run returns.
func (vm *VM) drainEvents(ctx context.Context) error {
	for {
		ev, ok := vm.events.TryReceive()
		if !ok {
			return nil
		}
		if err := vm.handleEvent(ctx, ev.Fn); err != nil {
			return err
		}
	}
}

// Pump blocks receiving and dispatching events until ctx is canceled or the
// event queue is closed, letting a host keep a program's timers alive after
// its main bytecode has finished running (spec.md §4.7's idle-wait select,
// option (b), in isolation).
func (vm *VM) Pump(ctx context.Context) error {
	for {
		ev, ok, err := vm.events.Receive(ctx)
		if err != nil {
			return vm.wrapError(err)
		}
		if !ok {
			return nil
		}
		if err := vm.handleEvent(ctx, ev.Fn); err != nil {
			return err
		}
	}
}

// handleEvent invokes a Call event's callback with no arguments, in a fresh
// frame, discarding its result - spec.md §6.3: "Call(function_ref), meaning
// 'at the earliest safe moment, run this function with no arguments.'"
func (vm *VM) handleEvent(ctx context.Context, fn value.Value) error {
	fn = fn.Unwrap()
	if fn.Kind != value.KindHandle {
		return vm.wrapError(&NotCallableError{Name: fn.String()})
	}
	top := frame.New("event callback")
	vm.frames.Push(top)
	_, err := vm.invoke(ctx, handleOf(fn), nil, nil)
	vm.frames.Pop()
	if relErr := vm.releaseFrameOwnedHandles(top); relErr != nil && err == nil {
		err = relErr
	}
	return err
}
