package vm

import (
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/value"
)

// stringMembers builds the member table spec.md §3.2 says the string
// library bootstrap lazily populates: `len`, the length in runes, stored as a
// plain I64 value so get_property on a heap String behaves exactly like
// get_property on any other struct-shaped object.
func stringMembers(s string) map[string]value.Value {
	runes := []rune(s)
	members := make(map[string]value.Value, 2)
	members["len"] = value.NewI64(int64(len(runes)))
	return members
}

// vectorMembers builds the `len` member every heap Vector carries: the
// element count as an I64 value, read with get_property (`v.len`). It is not
// a function, so calling it (`v.len()`) fails with NotCallableError.
func vectorMembers(elements []value.Value) map[string]value.Value {
	return map[string]value.Value{
		"len": value.NewI64(int64(len(elements))),
	}
}

// resolveToString renders any Value as text for print/println and for
// error messages, resolving handles through the memory manager. This is the
// "VM-provided way" spec.md §4.3 describes for print/println's rendering.
func (vm *VM) resolveToString(v value.Value) (string, error) {
	v = v.Unwrap()
	if v.Kind != value.KindHandle {
		return v.String(), nil
	}
	obj, err := vm.memory.Resolve(handleOf(v))
	if err != nil {
		return "", vm.wrapError(err)
	}
	switch obj.Kind {
	case heap.KindString:
		return obj.Str.Text, nil
	case heap.KindFunction:
		return "<function " + obj.Fn.Name + ">", nil
	case heap.KindStructDeclaration:
		return "<struct " + obj.Decl.Name + ">", nil
	case heap.KindStructLiteral:
		return "<" + obj.Literal.TypeName + " instance>", nil
	case heap.KindNativeStruct:
		return obj.Native.ToString(), nil
	case heap.KindVector:
		return vectorToString(obj.Vector, vm)
	default:
		return "<unknown>", nil
	}
}

func vectorToString(v *heap.VectorObj, vm *VM) (string, error) {
	out := "["
	for i, elem := range v.Elements {
		if i > 0 {
			out += ", "
		}
		s, err := vm.resolveToString(elem)
		if err != nil {
			return "", err
		}
		out += s
	}
	return out + "]", nil
}
