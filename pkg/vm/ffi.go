// This file implements `ffi_call` (spec.md §4.3): "Read 4-byte arg count;
// pop args; render to strings; call the host's foreign-handler dispatcher
// with those strings (opaque to the spec)." The dispatcher itself is a host
// concern outside the VM's scope; vm.FFI is the narrow hook a host installs
// to receive the rendered argument strings.
package vm

import (
	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/value"
)

// FFIHandler is the host-supplied foreign-call dispatcher ffi_call invokes
// with the rendered argument strings, returning a single result value.
type FFIHandler func(args []string) (value.Value, error)

func (vm *VM) stepFFICall(cur *bytecode.Cursor) error {
	argCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("ffi_call: %v", err)
	}
	args, err := vm.operands.PopN(int(argCount))
	if err != nil {
		return vm.fatalErrorf("ffi_call: %v", err)
	}

	rendered := make([]string, len(args))
	for i, a := range args {
		s, err := vm.resolveToString(a)
		if err != nil {
			return err
		}
		rendered[i] = s
	}

	if vm.FFI == nil {
		vm.operands.Push(value.Nothing)
		return nil
	}
	result, err := vm.FFI(rendered)
	if err != nil {
		return vm.wrapError(err)
	}
	vm.operands.Push(result)
	return nil
}
