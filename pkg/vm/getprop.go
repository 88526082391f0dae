// This file implements `get_property` (spec.md §4.3): resolving a property
// off a struct-like object into a BoundAccess that carries the receiver
// forward for a following `call`.
package vm

import (
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/value"
)

// stepGetProperty implements: "Pop two operands: (object_value,
// property_name_value). Resolve the object (which may itself be a
// BoundAccess - in which case use its property as the new object).
// Property-access on struct / native-struct / vector / string returns a
// BoundAccess(object_handle, value). If the field is absent, fail with
// FieldNotFound. Push the bound access." object_value comes off the stack
// first, property_name_value second - i.e. the compiler pushes the
// property name first, then the object on top of it.
func (vm *VM) stepGetProperty() error {
	objectValue, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("get_property: %v", err)
	}
	propertyNameValue, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("get_property: %v", err)
	}
	propertyName, err := asIdentifierName(propertyNameValue)
	if err != nil {
		return vm.wrapError(err)
	}

	objectValue = objectValue.Unwrap()
	if objectValue.Kind != value.KindHandle {
		return vm.wrapError(&TypeMismatchError{Expected: "Handle", Received: objectValue.Kind.String()})
	}
	h := handleOf(objectValue)
	obj, err := vm.memory.Resolve(h)
	if err != nil {
		return vm.wrapError(err)
	}

	propertyValue, ok, structType := vm.lookupProperty(obj, propertyName)
	if !ok {
		return vm.wrapError(&FieldNotFoundError{Field: propertyName, StructType: structType})
	}
	vm.operands.Push(value.NewBoundAccess(uint64(h), propertyValue))
	return nil
}

// lookupProperty looks up name on obj across every property-bearing heap
// kind (spec.md §4.3: "struct / native-struct / vector / string"),
// returning the object's type name for FieldNotFoundError diagnostics.
func (vm *VM) lookupProperty(obj *heap.Object, name string) (value.Value, bool, string) {
	switch obj.Kind {
	case heap.KindStructLiteral:
		v, ok := obj.Literal.Fields[name]
		typeName := obj.Literal.TypeName
		if typeName == "" {
			typeName = "struct"
		}
		return v, ok, typeName
	case heap.KindNativeStruct:
		v, ok := obj.Native.PropertyAccess(name)
		return v, ok, obj.Native.TypeName()
	case heap.KindVector:
		v, ok := obj.Vector.Members[name]
		return v, ok, "Vector"
	case heap.KindString:
		v, ok := obj.Str.Members[name]
		return v, ok, "String"
	default:
		return value.Nothing, false, obj.Kind.String()
	}
}
