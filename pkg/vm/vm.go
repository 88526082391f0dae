// Package vm implements the ego bytecode virtual machine described in
// spec.md: a stack-based interpreter over a reference-counted heap, with a
// lexical frame call stack, three function-invocation engines, and a
// cooperative scheduler for asynchronous natives.
//
// Execution Model:
//
// The VM reads one opcode byte at a time from a flat byte program via a
// bytecode.Cursor, dispatches on it, and repeats until the cursor is
// exhausted or a `return` instruction ends the current nested dispatch
// (spec.md §4.2). Calling a bytecode function re-enters dispatch with the
// callee's program installed on a fresh Cursor, after saving the caller's
// cursor locally; this keeps the interpreter a single recursive function
// rather than an explicit interpreter-state stack (spec.md §9).
//
// This mirrors the teacher's (kristofer-smog) pkg/vm/vm.go in spirit - one
// VM struct owning an operand stack, dispatching in a big switch, pushing
// and popping frames around calls - but the state it owns is different in
// kind: where the teacher's VM holds `interface{}` values directly in a
// fixed-size array, this VM holds value.Value immediates plus
// memory.Handles resolved through a memory.Manager, because spec.md
// requires a real reference-counted heap, not garbage-collected Go values.
package vm

import (
	"context"

	"github.com/kristofer/egovm/pkg/event"
	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/memory"
	"github.com/kristofer/egovm/pkg/natives"
	"github.com/kristofer/egovm/pkg/value"
)

// Stack is the operand stack: a per-VM stack of values plus an optional
// human-readable origin tag for diagnostics (spec.md §2 item 5).
type Stack struct {
	values []value.Value
	Origin string
}

// Push appends v to the top of the stack.
func (s *Stack) Push(v value.Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value, or an error if the stack is empty.
func (s *Stack) Pop() (value.Value, error) {
	n := len(s.values)
	if n == 0 {
		return value.Nothing, errStackUnderflow(s.Origin)
	}
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v, nil
}

// PopN pops n values and returns them in their original left-to-right
// (push) order, as the `call` opcode requires for argument lists (spec.md
// §4.3: "pop that many values as args (preserving their original
// left-to-right order)").
func (s *Stack) PopN(n int) ([]value.Value, error) {
	if n == 0 {
		return nil, nil
	}
	if len(s.values) < n {
		return nil, errStackUnderflow(s.Origin)
	}
	start := len(s.values) - n
	out := make([]value.Value, n)
	copy(out, s.values[start:])
	s.values = s.values[:start]
	return out, nil
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (value.Value, error) {
	n := len(s.values)
	if n == 0 {
		return value.Nothing, errStackUnderflow(s.Origin)
	}
	return s.values[n-1], nil
}

// Len reports the current depth of the stack.
func (s *Stack) Len() int { return len(s.values) }

func errStackUnderflow(origin string) error {
	if origin == "" {
		return &stackUnderflowError{}
	}
	return &stackUnderflowError{Origin: origin}
}

type stackUnderflowError struct{ Origin string }

func (e *stackUnderflowError) Error() string {
	if e.Origin == "" {
		return "operand stack underflow"
	}
	return "operand stack underflow: " + e.Origin
}

// VM is the interpreter: operand stack, call stack, memory manager, native
// module registry, and event queue, all owned by a single goroutine at a
// time (spec.md §5).
type VM struct {
	operands *Stack
	frames   *frame.Stack
	memory   *memory.Manager
	natives  *natives.Registry
	events   *event.Queue

	// Stdout is where print/println write; defaults to os.Stdout via New,
	// overridable in tests so output can be captured.
	Stdout interface {
		WriteString(string) (int, error)
	}

	// Debug enables the per-opcode dispatch trace (logged at Debug level
	// through internal/logging), and is threaded into native calls as the
	// ABI's `debug` flag (spec.md §6.2). Native calls themselves are logged
	// at Info whether or not Debug is set.
	Debug bool

	// FFI is the host's foreign-call dispatcher for ffi_call (spec.md §4.3:
	// "opaque to the spec"). A nil FFI makes ffi_call a no-op that yields
	// Nothing, so bytecode exercising no FFI features still runs standalone.
	FFI FFIHandler
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithEventQueueCapacity sets the scheduler's event channel capacity.
func WithEventQueueCapacity(capacity int) Option {
	return func(vm *VM) { vm.events = event.New(capacity) }
}

// WithRegistry installs a pre-populated native module registry, letting
// hosts register their own modules (or override pkg/natives/timers's "time"
// with a deterministic fake for tests) before running any bytecode.
func WithRegistry(r *natives.Registry) Option {
	return func(vm *VM) { vm.natives = r }
}

// New creates a VM ready to Run bytecode. Global state (the memory manager,
// heap, and native registry) persists across multiple Run calls on the same
// VM; the operand stack and call stack are fresh each Run.
func New(opts ...Option) *VM {
	vm := &VM{
		operands: &Stack{},
		frames:   frame.NewStack(),
		memory:   memory.New(),
		natives:  natives.NewRegistry(),
		events:   event.New(64),
		Stdout:   stdoutWriter{},
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Memory exposes the VM's memory manager, mainly for tests asserting on
// handle-uniqueness and retain/release balance (spec.md §8).
func (vm *VM) Memory() *memory.Manager { return vm.memory }

// Natives exposes the native module registry so a host can Register modules
// before running bytecode.
func (vm *VM) Natives() *natives.Registry { return vm.natives }

// Notify returns the send-side handle for the VM's event queue, satisfying
// heap.NativeEnv for native function bodies.
func (vm *VM) Notify() heap.Notifier { return vm.events.Notifier() }

// Alloc places obj on the heap through the memory manager and returns the
// new handle's raw id, satisfying heap.NativeEnv.
func (vm *VM) Alloc(obj heap.Object) uint64 {
	return uint64(vm.memory.Alloc(&obj))
}

func (vm *VM) allocString(s string) memory.Handle {
	return vm.memory.Alloc(&heap.Object{Kind: heap.KindString, Str: &heap.StringObj{Text: s, Members: stringMembers(s)}})
}

func handleOf(v value.Value) memory.Handle {
	return memory.Handle(v.Handle)
}

// Run executes program from offset 0 to completion (or the first error),
// returning the final result value of the top-level `return` (or
// value.Nothing if the program never returns explicitly).
//
// Run always installs exactly one top-level frame named "main program",
// mirroring the teacher's vm.go Run doing the same around its own dispatch
// loop. Unlike a function or module sub-frame, the top-level frame's
// bindings are never released when Run returns - a name bound at the top
// level (e.g. a function declaration) stays retained, held live by that
// frame, for as long as the VM itself is kept around. The frames that are
// released are a bytecode call's (see call.go), a custom module's (see
// module.go) and an event callback's (see scheduler.go), each when it ends.
func (vm *VM) Run(ctx context.Context, program []byte) (value.Value, error) {
	vm.operands = &Stack{}
	vm.frames = frame.NewStack()
	top := frame.New("main program")
	vm.frames.Push(top)

	result, err := vm.dispatch(ctx, program)
	if err != nil {
		return value.Nothing, err
	}

	if err := vm.drainEvents(ctx); err != nil {
		return value.Nothing, err
	}
	return result, nil
}

type stdoutWriter struct{}

func (stdoutWriter) WriteString(s string) (int, error) {
	return osStdoutWrite(s)
}
