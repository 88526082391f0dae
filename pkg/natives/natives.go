// Package natives defines the contract a host module implements to plug
// into the VM (spec.md §4.5), plus the registry the `import` opcode
// consults.
//
// spec.md §1 deliberately keeps the concrete standard-library modules
// (filesystem, network, environment, HTTP, AI providers, browser
// automation, ...) out of scope, specifying only the abstract contract:
// "(name, [(member_name, object), ...])". This package is that contract.
// The one concrete module this repository ships, pkg/natives/timers, exists
// to make spec.md §4.7's scheduler testable end-to-end, not as a claim that
// the full standard library belongs here.
package natives

import (
	"fmt"

	"github.com/kristofer/egovm/pkg/heap"
)

// Member is one named entry in a native module: typically a Function heap
// object, but spec.md §4.5 allows struct declarations or other values too.
type Member struct {
	Name string
	Obj  *heap.Object
}

// Module is a native module: a name plus its ordered members. Members are
// materialized as a StructLiteral on import (spec.md §4.4), so a native
// module is indistinguishable from a user-defined struct at call sites.
type Module struct {
	Name    string
	Members []Member
}

// Func builds a Member wrapping a synchronous native function.
func Func(name string, fn heap.NativeFunc) Member {
	return Member{Name: name, Obj: &heap.Object{
		Kind: heap.KindFunction,
		Fn:   &heap.FunctionObj{Name: name, Engine: heap.Engine{Kind: heap.EngineNative, Native: fn}},
	}}
}

// AsyncFunc builds a Member wrapping an asynchronous native function.
func AsyncFunc(name string, fn heap.NativeAsyncFunc) Member {
	return Member{Name: name, Obj: &heap.Object{
		Kind: heap.KindFunction,
		Fn:   &heap.FunctionObj{Name: name, Engine: heap.Engine{Kind: heap.EngineNativeAsync, NativeAsync: fn}},
	}}
}

// Registry maps a module name to its Module, consulted by the `import`
// opcode before falling back to treating the name as a custom module whose
// bytecode is embedded in the stream (spec.md §4.3).
type Registry struct {
	modules map[string]*Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds m to the registry, keyed by m.Name. Registering the same
// name twice replaces the previous module - used by hosts that want to
// override a default module (e.g. swapping in a fake "time" module for
// deterministic tests).
func (r *Registry) Register(m *Module) {
	r.modules[m.Name] = m
}

// Lookup returns the module registered under name, if any.
func (r *Registry) Lookup(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Error wraps a native-module failure with the domain it came from (spec.md
// §7's "Domain-specific native errors grouped under Fs, Os, Net, AI, Action,
// ..."). pkg/natives/timers uses domain "time".
type Error struct {
	Domain string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Domain, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// GetDefsCapability is the optional reflection capability spec.md §4.5
// mentions a native struct may expose, used by higher-level features to
// describe a native struct's methods.
type GetDefsCapability interface {
	GetDefs(runtimeName string) *NativeStructDef
}

// NativeStructDef describes a native struct's methods for reflection or
// orchestration purposes (spec.md §4.5).
type NativeStructDef struct {
	RuntimeName string
	Methods     []string
}
