// This file implements `function_declaration` and `struct_declaration`
// (spec.md §4.3, §6.1): both read an identifier and a body straight from the
// instruction stream and bind the resulting heap object into the current
// frame under that identifier.
package vm

import (
	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/value"
)

// stepFunctionDeclaration implements: "Read identifier string; read 4-byte
// parameter count; pop that many string values as parameter names; read
// 4-byte body length; read body bytes; allocate a Function(Bytecode)
// object; bind to the identifier in the current frame."
func (vm *VM) stepFunctionDeclaration(cur *bytecode.Cursor) error {
	name, err := cur.ReadIdentifier()
	if err != nil {
		return vm.fatalErrorf("function_declaration: %v", err)
	}
	paramsCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("function_declaration: %v", err)
	}
	paramValues, err := vm.operands.PopN(int(paramsCount))
	if err != nil {
		return vm.fatalErrorf("function_declaration: %v", err)
	}
	params := make([]string, len(paramValues))
	for i, pv := range paramValues {
		pname, err := asIdentifierName(pv)
		if err != nil {
			return vm.wrapError(err)
		}
		params[i] = pname
	}

	bodyLen, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("function_declaration: %v", err)
	}
	body, err := cur.ReadBytes(int(bodyLen))
	if err != nil {
		return vm.fatalErrorf("function_declaration: %v", err)
	}

	h := vm.memory.Alloc(&heap.Object{
		Kind: heap.KindFunction,
		Fn: &heap.FunctionObj{
			Name:   name,
			Params: params,
			Engine: heap.Engine{Kind: heap.EngineBytecode, Code: body},
		},
	})
	fv := value.NewHandle(uint64(h))
	if err := vm.retainIfHandle(fv); err != nil {
		return err
	}
	vm.currentFrame().Bind(name, fv)
	return nil
}

// stepStructDeclaration implements: "Read identifier; read 4-byte field
// count; read each field as (name_string, type_tag_byte); allocate a
// StructDeclaration; bind." Field names are embedded directly in the
// instruction stream (not pushed on the operand stack), so they follow the
// same doubly-tagged identifier encoding as the declaration's own name
// (spec.md §4.3's preamble: "String operands are length-prefixed").
func (vm *VM) stepStructDeclaration(cur *bytecode.Cursor) error {
	name, err := cur.ReadIdentifier()
	if err != nil {
		return vm.fatalErrorf("struct_declaration: %v", err)
	}
	fieldCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("struct_declaration: %v", err)
	}
	fields := make([]heap.FieldDecl, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		fieldName, err := cur.ReadIdentifier()
		if err != nil {
			return vm.fatalErrorf("struct_declaration: field %d: %v", i, err)
		}
		typeTag, err := cur.ReadByte()
		if err != nil {
			return vm.fatalErrorf("struct_declaration: field %d: %v", i, err)
		}
		fields[i] = heap.FieldDecl{Name: fieldName, TypeTag: typeTag}
	}

	h := vm.memory.Alloc(&heap.Object{
		Kind: heap.KindStructDeclaration,
		Decl: &heap.StructDeclObj{Name: name, Fields: fields},
	})
	dv := value.NewHandle(uint64(h))
	if err := vm.retainIfHandle(dv); err != nil {
		return err
	}
	vm.currentFrame().Bind(name, dv)
	return nil
}
