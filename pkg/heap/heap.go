// Package heap implements the VM's append-only object store.
//
// A Heap never reuses or compacts slots while the VM is running: it is a
// plain append-only slot vector. Stability of a slot's index for as long as
// the object lives is what lets pkg/memory layer handle indirection on top
// without having to chase moved objects. Freeing a slot (done exclusively by
// pkg/memory once a handle's refcount reaches zero) just nils it out; the
// index itself is never handed to a different object, matching spec.md
// §3.2's "Freed handles are never re-used in a way that silently aliases a
// new object."
//
// Heap objects are a closed, tag-discriminated set (spec.md §3.2): String,
// Function, StructDeclaration, StructLiteral, NativeStruct, Vector. This
// mirrors the teacher's nested ClassDefinition/MethodDefinition structs
// (pkg/bytecode/bytecode.go in the teacher repo) - a parent struct carrying
// one non-nil payload selected by a Kind tag, switched on exhaustively
// rather than dispatched through an interface, per spec.md §9's guidance to
// "avoid virtual dispatch; prefer a switch on tag."
package heap

import "github.com/kristofer/egovm/pkg/value"

// Ref is a raw heap slot index. It is never exposed outside this package and
// pkg/memory except as the payload of a pkg/memory.Handle - user-facing code
// only ever sees handles, never heap refs, so the heap's slot layout can
// change freely (spec.md §4.1).
type Ref int

// Kind discriminates the payload carried by an Object.
type Kind byte

const (
	KindString Kind = iota
	KindFunction
	KindStructDeclaration
	KindStructLiteral
	KindNativeStruct
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindFunction:
		return "Function"
	case KindStructDeclaration:
		return "StructDeclaration"
	case KindStructLiteral:
		return "StructLiteral"
	case KindNativeStruct:
		return "NativeStruct"
	case KindVector:
		return "Vector"
	default:
		return "Unknown"
	}
}

// EngineKind discriminates the three function invocation engines (spec.md
// §3.2, §4.4).
type EngineKind byte

const (
	EngineBytecode EngineKind = iota
	EngineNative
	EngineNativeAsync
)

// NativeFunc is a synchronous native function body. The self handle, when
// present, is the receiver the call reached through a BoundAccess (spec.md
// §4.5 "Receivers").
type NativeFunc func(env NativeEnv, self *uint64, args []value.Value, debug bool) (value.Value, error)

// NativeAsyncResult is delivered on the channel an async native returns;
// it carries either a value or an error, mirroring a resolved future.
type NativeAsyncResult struct {
	Value value.Value
	Err   error
}

// NativeAsyncFunc is an asynchronous native function body. It must not block
// the interpreter: it does its synchronous prelude, spawns any background
// work, and returns a channel that will receive exactly one result when the
// future resolves (spec.md §4.4, §4.7).
type NativeAsyncFunc func(env NativeEnv, self *uint64, args []value.Value, debug bool) (<-chan NativeAsyncResult, error)

// NativeEnv is the narrow slice of VM capability a native function body
// needs: allocating heap objects and posting events back to the scheduler.
// It is implemented by *vm.VM; it exists so this package does not import
// pkg/vm (which imports this package), avoiding an import cycle while still
// giving natives a typed handle on "the VM" per the ABI in spec.md §6.2.
type NativeEnv interface {
	Alloc(Object) uint64
	Notify() Notifier
}

// Notifier is the narrow send-side of the event queue (pkg/event.Notifier
// implements it); declared here too so natives.Func bodies that only need to
// post a callback don't need to import pkg/event directly.
type Notifier interface {
	Send(fn value.Value) error
}

// Engine is the function body: exactly one of Code, Native, or NativeAsync is
// set, selected by Kind.
type Engine struct {
	Kind       EngineKind
	Code       []byte
	Native     NativeFunc
	NativeAsync NativeAsyncFunc
}

// FunctionObj is the payload of a KindFunction heap object.
type FunctionObj struct {
	Name   string
	Params []string
	Engine Engine
}

// StringObj is the payload of a KindString heap object: heap-backed UTF-8
// text plus a lazily-populated member table (`len`) the
// string-library bootstrap installs (spec.md §3.2).
type StringObj struct {
	Text    string
	Members map[string]value.Value
}

// FieldDecl is one declared field of a struct type: a name and its declared
// type tag (opcode.Type, kept here as a raw byte to avoid an import cycle
// with pkg/opcode - heap objects are lower-level than the opcode table).
type FieldDecl struct {
	Name    string
	TypeTag byte
}

// StructDeclObj is the payload of a KindStructDeclaration heap object.
type StructDeclObj struct {
	Name   string
	Fields []FieldDecl
}

// StructLiteralObj is the payload of a KindStructLiteral heap object: a live
// instance. Field values may themselves be Function values, which is what
// makes a struct literal "callable by member" (spec.md §3.2) and is also how
// a native module's members are exposed once materialized (spec.md §4.4).
type StructLiteralObj struct {
	TypeName string
	Fields   map[string]value.Value
}

// VectorObj is the payload of a KindVector heap object.
type VectorObj struct {
	Elements []value.Value
	Members  map[string]value.Value
}

// NativeStruct is the interface a host-provided typed object (a timer
// handle, a socket, ...) implements to participate in get_property and
// to_string (spec.md §4.5). Defined here (not in pkg/natives) because it is
// itself a heap object payload kind.
type NativeStruct interface {
	// PropertyAccess looks up a member without changing ownership.
	PropertyAccess(name string) (value.Value, bool)
	// ToString renders a diagnostic representation for print/println.
	ToString() string
	// TypeName identifies the native struct's type for error messages and
	// get_property's BoundAccess-less struct type diagnostics.
	TypeName() string
}

// Object is one heap slot's content: a Kind tag plus exactly one non-nil
// payload pointer selected by that tag.
type Object struct {
	Kind    Kind
	Str     *StringObj
	Fn      *FunctionObj
	Decl    *StructDeclObj
	Literal *StructLiteralObj
	Native  NativeStruct
	Vector  *VectorObj
}

// Heap is the append-only slot vector. It has no notion of handles,
// refcounts, or freeing semantics beyond nilling a slot - all of that is
// pkg/memory's job, layered on top.
type Heap struct {
	slots []*Object
}

// New creates an empty heap.
func New() *Heap {
	return &Heap{slots: make([]*Object, 0, 64)}
}

// Append places obj in a new slot and returns its stable Ref. Distinct calls
// always return distinct refs for the lifetime of the Heap (spec.md §4.1
// "distinct calls yield distinct handles" - refs are the layer beneath
// handles that makes that guarantee possible).
func (h *Heap) Append(obj *Object) Ref {
	h.slots = append(h.slots, obj)
	return Ref(len(h.slots) - 1)
}

// Get returns the object at ref, or nil if the slot has been freed or ref is
// out of range.
func (h *Heap) Get(ref Ref) *Object {
	if int(ref) < 0 || int(ref) >= len(h.slots) {
		return nil
	}
	return h.slots[ref]
}

// Free nils out a slot. The ref itself is never reassigned to a new object.
func (h *Heap) Free(ref Ref) {
	if int(ref) >= 0 && int(ref) < len(h.slots) {
		h.slots[ref] = nil
	}
}

// Len reports the number of slots ever appended, including freed ones -
// useful for diagnostics and tests asserting on heap growth.
func (h *Heap) Len() int {
	return len(h.slots)
}
