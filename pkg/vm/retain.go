package vm

import (
	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/value"
)

// retainIfHandle retains v's handle if it is one. store_var, return, and
// export binding all call this so the frame that now holds v becomes an
// owner (spec.md §3.3).
func (vm *VM) retainIfHandle(v value.Value) error {
	if v.Kind != value.KindHandle {
		return nil
	}
	if err := vm.memory.Retain(handleOf(v)); err != nil {
		return vm.wrapError(err)
	}
	return nil
}

// releaseIfHandle releases v's handle if it is one.
func (vm *VM) releaseIfHandle(v value.Value) error {
	if v.Kind != value.KindHandle {
		return nil
	}
	if err := vm.memory.Release(handleOf(v)); err != nil {
		return vm.wrapError(err)
	}
	return nil
}

// releaseFrameOwnedHandles releases every handle-valued binding a frame
// owns, called on frame teardown (spec.md §3.3: "frame teardown ... calls
// release"). Exported names are excluded: ownership of an exported binding
// transfers to the StructLiteral the importer builds, which retains it
// itself (see module.go); releasing it here would drop its refcount to zero
// and free it before bindModuleStruct gets to retain it.
func (vm *VM) releaseFrameOwnedHandles(f *frame.Frame) error {
	exported := make(map[string]bool, len(f.Exports))
	for _, name := range f.Exports {
		exported[name] = true
	}
	for name, v := range f.Symbols {
		if exported[name] {
			continue
		}
		if err := vm.releaseIfHandle(v); err != nil {
			return err
		}
	}
	return nil
}
