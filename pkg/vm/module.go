// This file implements `import` (spec.md §4.3, §4.4): materializing a
// native module as an ordinary StructLiteral, or running an embedded custom
// module's bytecode in its own frame and building a StructLiteral from the
// names it exported.
package vm

import (
	"context"

	"github.com/kristofer/egovm/internal/logging"
	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/natives"
	"github.com/kristofer/egovm/pkg/value"
)

// stepImport implements: "Pop one string (module name); read 4-byte
// custom-module bytecode length; if the name matches a native module,
// materialize it by instantiating a StructLiteral whose fields are the
// module's members (each allocated as a handle), and bind to the module
// name. Otherwise, read that many bytes of module bytecode and run them as
// a module."
//
// The length field is always present on the stream regardless of which
// branch is taken, since the compiler has no way to know ahead of encoding
// whether a given name will resolve natively at run time - a native match
// still reads and discards those bytes so the cursor stays synchronized
// with the rest of the program.
func (vm *VM) stepImport(ctx context.Context, cur *bytecode.Cursor) error {
	nameValue, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("import: %v", err)
	}
	name, err := asIdentifierName(nameValue)
	if err != nil {
		return vm.wrapError(err)
	}

	bodyLen, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("import: %v", err)
	}
	body, err := cur.ReadBytes(int(bodyLen))
	if err != nil {
		return vm.fatalErrorf("import: %v", err)
	}

	if mod, ok := vm.natives.Lookup(name); ok {
		logging.Info("import native module", "name", name)
		return vm.bindModuleStruct(name, vm.materializeNativeModule(mod))
	}

	if len(body) == 0 {
		logging.Warn("import failed: module not found", "name", name)
		return vm.wrapError(&ModuleNotFoundError{Name: name})
	}
	logging.Info("import custom module", "name", name, "bytes", len(body))
	fields, err := vm.runCustomModule(ctx, name, body)
	if err != nil {
		return err
	}
	return vm.bindModuleStruct(name, fields)
}

// materializeNativeModule allocates each member as its own heap object and
// returns the field map a module's StructLiteral is built from, per spec.md
// §4.4's "host/guest module symmetry".
func (vm *VM) materializeNativeModule(mod *natives.Module) map[string]value.Value {
	fields := make(map[string]value.Value, len(mod.Members))
	for _, member := range mod.Members {
		h := vm.memory.Alloc(member.Obj)
		fields[member.Name] = value.NewHandle(uint64(h))
	}
	return fields
}

// runCustomModule runs body in its own frame named after the module and
// returns the exported subset of its bindings.
func (vm *VM) runCustomModule(ctx context.Context, name string, body []byte) (map[string]value.Value, error) {
	f := frame.New(name)
	vm.frames.Push(f)
	_, err := vm.dispatch(ctx, body)
	vm.frames.Pop()
	if err != nil {
		return nil, err
	}

	fields := make(map[string]value.Value, len(f.Exports))
	for _, exported := range f.Exports {
		v, ok := f.Symbols[exported]
		if !ok {
			return nil, vm.wrapError(&ExportInvalidMemberTypeError{Name: exported})
		}
		fields[exported] = v
	}
	if err := vm.releaseFrameOwnedHandles(f); err != nil {
		return nil, err
	}
	return fields, nil
}

// bindModuleStruct allocates the module's StructLiteral and binds it into
// the importing frame under name.
func (vm *VM) bindModuleStruct(name string, fields map[string]value.Value) error {
	for _, v := range fields {
		if err := vm.retainIfHandle(v); err != nil {
			return err
		}
	}
	h := vm.memory.Alloc(&heap.Object{
		Kind:    heap.KindStructLiteral,
		Literal: &heap.StructLiteralObj{TypeName: name, Fields: fields},
	})
	mv := value.NewHandle(uint64(h))
	if err := vm.retainIfHandle(mv); err != nil {
		return err
	}
	vm.currentFrame().Bind(name, mv)
	return nil
}
