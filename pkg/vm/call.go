// This file implements `call` (spec.md §4.3) and the three function
// invocation engines it dispatches across (spec.md §4.4): Bytecode, Native,
// and NativeAsync.
package vm

import (
	"context"

	"github.com/kristofer/egovm/internal/logging"
	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/memory"
	"github.com/kristofer/egovm/pkg/value"
)

// stepCall implements: "Read 4-byte arg count; pop that many values as args
// (preserving their original left-to-right order); pop the callee. Callee
// is either a Handle (direct function, or a name to resolve) or a
// BoundAccess (method on a receiver)."
func (vm *VM) stepCall(ctx context.Context, cur *bytecode.Cursor) error {
	argCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("call: %v", err)
	}
	args, err := vm.operands.PopN(int(argCount))
	if err != nil {
		return vm.fatalErrorf("call: %v", err)
	}
	calleeValue, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("call: %v", err)
	}

	var self *uint64
	callee := calleeValue
	if callee.Kind == value.KindBoundAccess {
		receiver := callee.Bound.Object
		self = &receiver
		callee = callee.Bound.Property
	}

	// load_var already resolves identifiers to Handles before call is
	// reached in the common case; a bare Utf8 callee is resolved the same
	// way load_var would, so direct-by-name calls work too.
	if callee.Kind == value.KindUtf8 {
		resolved, ok := vm.frames.Lookup(callee.Utf8)
		if !ok {
			return vm.wrapError(&UndeclaredIdentifierError{Name: callee.Utf8})
		}
		callee = resolved
	}

	if callee.Kind != value.KindHandle {
		return vm.wrapError(&NotCallableError{Name: callee.String()})
	}

	result, err := vm.invoke(ctx, handleOf(callee), self, args)
	if err != nil {
		return err
	}
	vm.operands.Push(result)
	return nil
}

// invoke resolves h to a Function object and dispatches to the engine it
// carries.
func (vm *VM) invoke(ctx context.Context, h memory.Handle, self *uint64, args []value.Value) (value.Value, error) {
	obj, err := vm.memory.Resolve(h)
	if err != nil {
		return value.Nothing, vm.wrapError(err)
	}
	if obj.Kind != heap.KindFunction {
		return value.Nothing, vm.wrapError(&NotCallableError{Name: obj.Kind.String()})
	}
	fn := obj.Fn

	switch fn.Engine.Kind {
	case heap.EngineBytecode:
		return vm.invokeBytecode(ctx, fn, args)

	case heap.EngineNative:
		logging.Info("native call", "fn", fn.Name, "args", len(args))
		v, err := fn.Engine.Native(vm, self, args, vm.Debug)
		if err != nil {
			return value.Nothing, vm.wrapError(err)
		}
		return v, nil

	case heap.EngineNativeAsync:
		logging.Info("native async call", "fn", fn.Name, "args", len(args))
		ch, err := fn.Engine.NativeAsync(vm, self, args, vm.Debug)
		if err != nil {
			return value.Nothing, vm.wrapError(err)
		}
		select {
		case res := <-ch:
			if res.Err != nil {
				return value.Nothing, vm.wrapError(res.Err)
			}
			return res.Value, nil
		case <-ctx.Done():
			return value.Nothing, vm.wrapError(ctx.Err())
		}

	default:
		return value.Nothing, vm.fatalErrorf("call: unknown engine kind %d", fn.Engine.Kind)
	}
}

// invokeBytecode implements the Bytecode engine: "push a new frame; bind
// each declared parameter to the corresponding argument (missing ->
// Nothing); save current byte buffer + counter; install callee bytecode and
// reset counter; run the dispatch loop; on termination, pop the frame
// (releasing any handles it owned) and restore buffer + counter." The
// save/restore of the caller's (program, pc) happens implicitly: they live
// as the calling dispatch frame's Go locals across this recursive call.
//
// "If the call was originated via a BoundAccess, no special self binding is
// added - the receiver is carried separately to native calls and ignored
// for user-defined bytecode functions" - so self is simply unused here.
func (vm *VM) invokeBytecode(ctx context.Context, fn *heap.FunctionObj, args []value.Value) (value.Value, error) {
	f := frame.New(fn.Name)
	for i, pname := range fn.Params {
		var v value.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = value.Nothing
		}
		if err := vm.retainIfHandle(v); err != nil {
			return value.Nothing, err
		}
		f.Bind(pname, v)
	}

	vm.frames.Push(f)
	result, err := vm.dispatch(ctx, fn.Engine.Code)
	vm.frames.Pop()

	if relErr := vm.releaseFrameOwnedHandles(f); relErr != nil {
		if err == nil {
			err = relErr
		}
	}
	if err != nil {
		return value.Nothing, err
	}
	return result, nil
}
