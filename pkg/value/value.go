// Package value implements the VM's unified runtime value (spec.md §3.1).
//
// A Value is one of: an immediate scalar (Nothing, Bool, I32, I64, U32, U64,
// F64, Utf8), a Handle into the heap (via pkg/memory), or a BoundAccess -
// an object handle paired with an already-resolved property value, used to
// defer a method receiver from get_property to the following call.
//
// Value is a flat tagged struct rather than a Go interface or `interface{}`
// (contrast the teacher's `stack []interface{}` in pkg/vm/vm.go): the set of
// kinds is closed and small, and spec.md §3.1 is explicit that "immediates
// are cheap to copy" - a struct copy keeps that true without boxing every
// integer and boolean pushed onto the operand stack.
package value

import "fmt"

// Kind discriminates the payload a Value carries.
type Kind byte

const (
	KindNothing Kind = iota
	KindBool
	KindI32
	KindI64
	KindU32
	KindU64
	KindF64
	KindUtf8
	KindHandle
	KindBoundAccess
)

func (k Kind) String() string {
	switch k {
	case KindNothing:
		return "Nothing"
	case KindBool:
		return "Bool"
	case KindI32:
		return "I32"
	case KindI64:
		return "I64"
	case KindU32:
		return "U32"
	case KindU64:
		return "U64"
	case KindF64:
		return "F64"
	case KindUtf8:
		return "Utf8"
	case KindHandle:
		return "Handle"
	case KindBoundAccess:
		return "BoundAccess"
	default:
		return "Unknown"
	}
}

// BoundAccess carries a receiver-carrying reference produced by a
// get_property on a struct-like object: the object the property came from,
// and the already-resolved property value. It piggybacks on the object's
// existing handle and never retains on its own (spec.md §3.3).
type BoundAccess struct {
	Object   uint64
	Property Value
}

// Value is the unified runtime value. Exactly the field matching Kind is
// meaningful; the others are zero. Handle is stored as a raw uint64 (rather
// than a pkg/memory.Handle) so this package does not need to import
// pkg/memory - memory.Handle is itself defined as a uint64 and converts
// losslessly both ways.
type Value struct {
	Kind  Kind
	Bool  bool
	I32   int32
	I64   int64
	U32   uint32
	U64   uint64
	F64   float64
	Utf8  string
	Handle uint64
	Bound *BoundAccess
}

// Nothing is the VM's unit/null value.
var Nothing = Value{Kind: KindNothing}

// NewBool constructs a Bool value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewI32 constructs an I32 value.
func NewI32(i int32) Value { return Value{Kind: KindI32, I32: i} }

// NewI64 constructs an I64 value.
func NewI64(i int64) Value { return Value{Kind: KindI64, I64: i} }

// NewU32 constructs a U32 value.
func NewU32(u uint32) Value { return Value{Kind: KindU32, U32: u} }

// NewU64 constructs a U64 value.
func NewU64(u uint64) Value { return Value{Kind: KindU64, U64: u} }

// NewF64 constructs an F64 value.
func NewF64(f float64) Value { return Value{Kind: KindF64, F64: f} }

// NewUtf8 constructs a stack-immediate Utf8 value (spec.md §9's "stack
// optimization for short-lived string operands").
func NewUtf8(s string) Value { return Value{Kind: KindUtf8, Utf8: s} }

// NewHandle constructs a Handle value from a raw handle id.
func NewHandle(h uint64) Value { return Value{Kind: KindHandle, Handle: h} }

// NewBoundAccess constructs a BoundAccess value.
func NewBoundAccess(object uint64, property Value) Value {
	return Value{Kind: KindBoundAccess, Bound: &BoundAccess{Object: object, Property: property}}
}

// IsHandle reports whether v is a Handle.
func (v Value) IsHandle() bool { return v.Kind == KindHandle }

// IsNumeric reports whether v is one of the five numeric immediate kinds.
func (v Value) IsNumeric() bool {
	switch v.Kind {
	case KindI32, KindI64, KindU32, KindU64, KindF64:
		return true
	default:
		return false
	}
}

// AsBool unwraps a Bool value, resolving through a BoundAccess first (the
// jump_if_false opcode's "unwrapping BoundAccess if needed", spec.md §4.3).
// It returns an error naming the actual kind if v is not ultimately a Bool.
func (v Value) AsBool() (bool, error) {
	v = v.Unwrap()
	if v.Kind != KindBool {
		return false, fmt.Errorf("expected Bool, got %s", v.Kind)
	}
	return v.Bool, nil
}

// Unwrap resolves a BoundAccess down to the property value it carries,
// leaving any other kind of Value unchanged. get_property applies this when
// its operand is itself already a BoundAccess (spec.md §4.3: "use its
// *property* as the new object").
func (v Value) Unwrap() Value {
	if v.Kind == KindBoundAccess {
		return v.Bound.Property
	}
	return v
}

// String renders v for print/println and diagnostics. Heap-backed kinds
// (Handle) cannot be rendered without resolving through the memory manager,
// so callers that need full rendering of handles use pkg/vm's
// resolveToString instead; this method covers only the immediate kinds plus a stable
// placeholder for handles and bound accesses.
func (v Value) String() string {
	switch v.Kind {
	case KindNothing:
		return "nothing"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindI32:
		return fmt.Sprintf("%d", v.I32)
	case KindI64:
		return fmt.Sprintf("%d", v.I64)
	case KindU32:
		return fmt.Sprintf("%d", v.U32)
	case KindU64:
		return fmt.Sprintf("%d", v.U64)
	case KindF64:
		return fmt.Sprintf("%g", v.F64)
	case KindUtf8:
		return v.Utf8
	case KindHandle:
		return fmt.Sprintf("<handle #%d>", v.Handle)
	case KindBoundAccess:
		return fmt.Sprintf("<bound #%d.%s>", v.Bound.Object, v.Bound.Property.String())
	default:
		return "<unknown>"
	}
}
