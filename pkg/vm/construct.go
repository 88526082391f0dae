// This file implements `load_const` (spec.md §4.3, §6.1): decoding the
// eleven type-tagged payload shapes into a pushed value.Value, including the
// two payload shapes (struct_literal, vector) that read their contents back
// off the operand stack rather than the instruction stream, and the lambda
// shape that allocates an anonymous Function object directly.
package vm

import (
	"context"
	"fmt"

	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/opcode"
	"github.com/kristofer/egovm/pkg/value"
)

func (vm *VM) stepLoadConst(ctx context.Context, cur *bytecode.Cursor) error {
	tagByte, err := cur.ReadByte()
	if err != nil {
		return vm.fatalErrorf("load_const: %v", err)
	}
	tag := opcode.Type(tagByte)

	switch tag {
	case opcode.TypeNothing:
		vm.operands.Push(value.Nothing)

	case opcode.TypeI32:
		v, err := cur.ReadI32()
		if err != nil {
			return vm.fatalErrorf("load_const i32: %v", err)
		}
		vm.operands.Push(value.NewI32(v))

	case opcode.TypeI64:
		v, err := cur.ReadI64()
		if err != nil {
			return vm.fatalErrorf("load_const i64: %v", err)
		}
		vm.operands.Push(value.NewI64(v))

	case opcode.TypeU32:
		v, err := cur.ReadU32()
		if err != nil {
			return vm.fatalErrorf("load_const u32: %v", err)
		}
		vm.operands.Push(value.NewU32(v))

	case opcode.TypeU64:
		v, err := cur.ReadU64()
		if err != nil {
			return vm.fatalErrorf("load_const u64: %v", err)
		}
		vm.operands.Push(value.NewU64(v))

	case opcode.TypeF64:
		v, err := cur.ReadF64()
		if err != nil {
			return vm.fatalErrorf("load_const f64: %v", err)
		}
		vm.operands.Push(value.NewF64(v))

	case opcode.TypeBool:
		b, err := cur.ReadByte()
		if err != nil {
			return vm.fatalErrorf("load_const bool: %v", err)
		}
		vm.operands.Push(value.NewBool(b != 0))

	case opcode.TypeUtf8:
		s, err := cur.ReadUtf8Payload()
		if err != nil {
			return vm.fatalErrorf("load_const utf8: %v", err)
		}
		vm.operands.Push(value.NewUtf8(s))

	case opcode.TypeStructLiteral:
		return vm.stepLoadStructLiteral(cur)

	case opcode.TypeVector:
		return vm.stepLoadVector(cur)

	case opcode.TypeLambda:
		return vm.stepLoadLambda(cur)

	default:
		return vm.fatalErrorf("load_const: unknown type tag 0x%02X", tagByte)
	}
	return nil
}

// stepLoadStructLiteral implements the struct_literal load_const payload:
// "all fields' (name-value) pairs already pushed as operand-stack entries,
// followed by a 4-byte field count." The wire format carries no type name
// for this anonymous construction form (spec.md §6.1 lists only the field
// pairs and the count) - TypeName is left empty, distinguishing a literal
// built this way from the StructLiteral `import` builds for a module, whose
// TypeName is the module name (see module.go).
func (vm *VM) stepLoadStructLiteral(cur *bytecode.Cursor) error {
	count, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("load_const struct_literal: %v", err)
	}
	fields := make(map[string]value.Value, count)
	for i := uint32(0); i < count; i++ {
		fieldValue, err := vm.operands.Pop()
		if err != nil {
			return vm.fatalErrorf("load_const struct_literal: %v", err)
		}
		nameValue, err := vm.operands.Pop()
		if err != nil {
			return vm.fatalErrorf("load_const struct_literal: %v", err)
		}
		name, err := asIdentifierName(nameValue)
		if err != nil {
			return vm.wrapError(err)
		}
		if err := vm.retainIfHandle(fieldValue); err != nil {
			return err
		}
		fields[name] = fieldValue
	}
	h := vm.memory.Alloc(&heap.Object{
		Kind:    heap.KindStructLiteral,
		Literal: &heap.StructLiteralObj{Fields: fields},
	})
	vm.operands.Push(value.NewHandle(uint64(h)))
	return nil
}

// stepLoadVector implements the vector load_const payload: "all elements
// already pushed, followed by a 4-byte count."
func (vm *VM) stepLoadVector(cur *bytecode.Cursor) error {
	count, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("load_const vector: %v", err)
	}
	elements, err := vm.operands.PopN(int(count))
	if err != nil {
		return vm.fatalErrorf("load_const vector: %v", err)
	}
	for _, e := range elements {
		if err := vm.retainIfHandle(e); err != nil {
			return err
		}
	}
	h := vm.memory.Alloc(&heap.Object{
		Kind:   heap.KindVector,
		Vector: &heap.VectorObj{Elements: elements, Members: vectorMembers(elements)},
	})
	vm.operands.Push(value.NewHandle(uint64(h)))
	return nil
}

// stepLoadLambda implements the lambda load_const payload: "<4-byte params
// count> <4-byte body length> <body bytes>". The wire payload itself carries
// no parameter names, so - mirroring function_declaration's documented
// convention that "parameter names are pushed before the declaration opcode
// by the compiler" - the params count here is read first and used to pop
// that many name strings off the operand stack before the body is read.
func (vm *VM) stepLoadLambda(cur *bytecode.Cursor) error {
	paramsCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("load_const lambda: %v", err)
	}
	paramValues, err := vm.operands.PopN(int(paramsCount))
	if err != nil {
		return vm.fatalErrorf("load_const lambda: %v", err)
	}
	params := make([]string, len(paramValues))
	for i, pv := range paramValues {
		name, err := asIdentifierName(pv)
		if err != nil {
			return vm.wrapError(err)
		}
		params[i] = name
	}

	bodyLen, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("load_const lambda: %v", err)
	}
	body, err := cur.ReadBytes(int(bodyLen))
	if err != nil {
		return vm.fatalErrorf("load_const lambda: %v", err)
	}

	h := vm.memory.Alloc(&heap.Object{
		Kind: heap.KindFunction,
		Fn: &heap.FunctionObj{
			Name:   fmt.Sprintf("<lambda@%d>", cur.Pos),
			Params: params,
			Engine: heap.Engine{Kind: heap.EngineBytecode, Code: body},
		},
	})
	vm.operands.Push(value.NewHandle(uint64(h)))
	return nil
}
