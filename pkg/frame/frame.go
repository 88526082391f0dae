// Package frame implements the VM's call stack: one Frame per bytecode
// function invocation or running module, each owning a symbol table and an
// export list (spec.md §3.4).
//
// Grounded on the teacher's vm.go pushFrame/popFrame and errors.go's
// StackFrame - but where the teacher's StackFrame is purely a debugging
// record (name, selector, source position), this spec requires frames to
// actually own bindings: "A frame contains symbols: name -> value ... and
// exports". This package generalizes the teacher's debug-only record into
// the real binding owner, and keeps a parallel, lighter Trace for error
// reporting in the style of the teacher's errors.go.
package frame

import "github.com/kristofer/egovm/pkg/value"

// Frame is one call activation record: a name->value symbol table plus the
// ordered list of names this frame has exported (used when the frame IS a
// module being imported, spec.md §4.4).
type Frame struct {
	// Name identifies the frame for diagnostics: a function name, "main
	// program", or an imported module's name.
	Name string

	// Symbols holds this frame's local bindings. A binding may hold a
	// memory.Handle-carrying value.Value, in which case this frame is an
	// owner of that handle and must release it on teardown (spec.md §3.3).
	Symbols map[string]value.Value

	// Exports is the ordered list of identifiers this frame has marked for
	// export via the `export` opcode (spec.md §4.3, §4.4).
	Exports []string
}

// New creates an empty frame with the given diagnostic name.
func New(name string) *Frame {
	return &Frame{
		Name:    name,
		Symbols: make(map[string]value.Value),
	}
}

// Lookup returns the value bound to name in this frame only (no chain
// walk - that's Stack.Lookup's job).
func (f *Frame) Lookup(name string) (value.Value, bool) {
	v, ok := f.Symbols[name]
	return v, ok
}

// Bind sets name to v in this frame, creating the binding if absent.
func (f *Frame) Bind(name string, v value.Value) {
	f.Symbols[name] = v
}

// MarkExported appends name to this frame's export list if not already
// present. Exporting a name that isn't bound is legal at export-time (the
// check happens when the importer materializes the module struct).
func (f *Frame) MarkExported(name string) {
	for _, n := range f.Exports {
		if n == name {
			return
		}
	}
	f.Exports = append(f.Exports, name)
}

// Stack is the VM's call stack: frames are pushed on entry to a bytecode
// function or module, popped on return, and variable lookup walks from
// newest to oldest (spec.md §3.4: "lexical resolution in a dynamic scope
// chain").
type Stack struct {
	frames []*Frame
}

// NewStack creates an empty call stack.
func NewStack() *Stack {
	return &Stack{frames: make([]*Frame, 0, 64)}
}

// Push installs f as the new top frame.
func (s *Stack) Push(f *Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame. It panics if the stack is empty -
// callers (pkg/vm) never pop past the frame they themselves pushed, so an
// empty pop is a programmer error, not a user-facing one.
func (s *Stack) Pop() *Frame {
	n := len(s.frames)
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f
}

// Top returns the current innermost frame, or nil if the stack is empty.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Lookup resolves name by walking frames from newest to oldest, returning
// the first binding found.
func (s *Stack) Lookup(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Symbols[name]; ok {
			return v, true
		}
	}
	return value.Nothing, false
}

// Assign rebinds name in the nearest frame that already declares it,
// walking newest to oldest; if no frame declares it, it binds in the
// current (innermost) frame. store_var uses this for reassignment (spec.md
// §4.3).
func (s *Stack) Assign(name string, v value.Value) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].Symbols[name]; ok {
			s.frames[i].Symbols[name] = v
			return
		}
	}
	s.Top().Bind(name, v)
}

// Depth returns the number of frames currently on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Names returns a snapshot of frame names from innermost to outermost, for
// use in error stack traces (mirrors the teacher's RuntimeError rendering
// in pkg/vm/errors.go).
func (s *Stack) Names() []string {
	names := make([]string, len(s.frames))
	for i, f := range s.frames {
		names[len(s.frames)-1-i] = f.Name
	}
	return names
}
