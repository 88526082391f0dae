// This file implements the interpreter's main dispatch loop: the opcode
// switch described instruction-by-instruction in spec.md §4.3. Grounded on
// the teacher's pkg/vm/vm.go Run loop (read instruction, switch on opcode,
// mutate stack/frame/memory state, continue), but decoding directly from a
// flat byte stream (pkg/bytecode.Cursor) rather than a pre-decoded
// []Instruction slice, since spec.md §6.1 specifies the wire format itself
// as the interpreter's ABI.
package vm

import (
	"context"

	"github.com/kristofer/egovm/internal/logging"
	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/frame"
	"github.com/kristofer/egovm/pkg/opcode"
	"github.com/kristofer/egovm/pkg/value"
)

// dispatch runs program from offset 0 in the current frame context until a
// `return` or the end of the stream, returning the result value of
// `return` (or value.Nothing if the stream simply ends).
//
// dispatch is the function a bytecode call re-enters recursively (see
// call.go): the caller's own (program, pc) live as Go locals on the calling
// dispatch frame's stack, which is exactly the "save/restore via the call
// site, not a separate interpreter-state stack" idiom spec.md §9 asks for.
func (vm *VM) dispatch(ctx context.Context, program []byte) (value.Value, error) {
	cur := bytecode.NewCursor(program)

	for !cur.Done() {
		if err := ctx.Err(); err != nil {
			return value.Nothing, vm.wrapError(err)
		}

		opByte, err := cur.ReadByte()
		if err != nil {
			return value.Nothing, vm.fatalErrorf("reading opcode: %v", err)
		}
		op := opcode.Op(opByte)

		if vm.Debug {
			logging.Debug("dispatch", "op", op.String(), "frame", vm.currentFrame().Name, "stack", vm.operands.Len())
		}

		if op.IsBinaryOperator() {
			result, err := vm.stepBinaryOperator(op)
			if err != nil {
				return value.Nothing, err
			}
			vm.operands.Push(result)
			continue
		}

		switch op {
		case opcode.LoadConst:
			if err := vm.stepLoadConst(ctx, cur); err != nil {
				return value.Nothing, err
			}

		case opcode.LoadVar:
			if err := vm.stepLoadVar(cur); err != nil {
				return value.Nothing, err
			}

		case opcode.StoreVar:
			if err := vm.stepStoreVar(cur); err != nil {
				return value.Nothing, err
			}

		case opcode.Drop:
			if _, err := vm.operands.Pop(); err != nil {
				return value.Nothing, vm.fatalErrorf("drop: %v", err)
			}

		case opcode.Jump:
			offset, err := cur.ReadI32()
			if err != nil {
				return value.Nothing, vm.fatalErrorf("jump: %v", err)
			}
			cur.Jump(offset)

		case opcode.JumpIfFalse:
			offset, err := cur.ReadI32()
			if err != nil {
				return value.Nothing, vm.fatalErrorf("jump_if_false: %v", err)
			}
			cond, err := vm.operands.Pop()
			if err != nil {
				return value.Nothing, vm.fatalErrorf("jump_if_false: %v", err)
			}
			b, err := cond.AsBool()
			if err != nil {
				return value.Nothing, vm.wrapError(&TypeMismatchError{Expected: "Bool", Received: cond.Kind.String()})
			}
			if !b {
				cur.Jump(offset)
			}

		case opcode.FunctionDeclaration:
			if err := vm.stepFunctionDeclaration(cur); err != nil {
				return value.Nothing, err
			}

		case opcode.StructDeclaration:
			if err := vm.stepStructDeclaration(cur); err != nil {
				return value.Nothing, err
			}

		case opcode.GetProperty:
			if err := vm.stepGetProperty(); err != nil {
				return value.Nothing, err
			}

		case opcode.Call:
			if err := vm.stepCall(ctx, cur); err != nil {
				return value.Nothing, err
			}

		case opcode.Print, opcode.Println:
			if err := vm.stepPrint(cur, op == opcode.Println); err != nil {
				return value.Nothing, err
			}

		case opcode.Return:
			return vm.stepReturn()

		case opcode.Import:
			if err := vm.stepImport(ctx, cur); err != nil {
				return value.Nothing, err
			}

		case opcode.Export:
			if err := vm.stepExport(cur); err != nil {
				return value.Nothing, err
			}

		case opcode.FFICall:
			if err := vm.stepFFICall(cur); err != nil {
				return value.Nothing, err
			}

		default:
			return value.Nothing, vm.fatalErrorf("unknown opcode: 0x%02X", opByte)
		}
	}

	return value.Nothing, nil
}

func (vm *VM) stepBinaryOperator(op opcode.Op) (value.Value, error) {
	right, err := vm.operands.Pop()
	if err != nil {
		return value.Nothing, vm.fatalErrorf("%s: %v", op, err)
	}
	left, err := vm.operands.Pop()
	if err != nil {
		return value.Nothing, vm.fatalErrorf("%s: %v", op, err)
	}
	return vm.applyBinaryOperator(op, left, right)
}

func (vm *VM) stepLoadVar(cur *bytecode.Cursor) error {
	name, err := cur.ReadIdentifier()
	if err != nil {
		return vm.fatalErrorf("load_var: %v", err)
	}
	v, ok := vm.frames.Lookup(name)
	if !ok {
		return vm.wrapError(&UndeclaredIdentifierError{Name: name})
	}
	vm.operands.Push(v)
	return nil
}

func (vm *VM) stepStoreVar(cur *bytecode.Cursor) error {
	mutByte, err := cur.ReadByte()
	if err != nil {
		return vm.fatalErrorf("store_var: %v", err)
	}
	_ = opcode.Mutability(mutByte) // the mutability byte is read and discarded; store_var does not enforce it (spec.md §4.3).

	name, err := cur.ReadIdentifier()
	if err != nil {
		return vm.fatalErrorf("store_var: %v", err)
	}
	v, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("store_var: %v", err)
	}

	if prev, ok := vm.frames.Lookup(name); ok {
		if err := vm.releaseIfHandle(prev); err != nil {
			return err
		}
	}
	if err := vm.retainIfHandle(v); err != nil {
		return err
	}
	vm.frames.Assign(name, v)
	return nil
}

func (vm *VM) stepPrint(cur *bytecode.Cursor, newline bool) error {
	argCount, err := cur.ReadU32()
	if err != nil {
		return vm.fatalErrorf("print: %v", err)
	}
	args, err := vm.operands.PopN(int(argCount))
	if err != nil {
		return vm.fatalErrorf("print: %v", err)
	}
	out := ""
	for _, a := range args {
		s, err := vm.resolveToString(a)
		if err != nil {
			return err
		}
		out += s
	}
	if newline {
		out += "\n"
	}
	if _, err := vm.Stdout.WriteString(out); err != nil {
		return vm.fatalErrorf("print: %v", err)
	}
	return nil
}

func (vm *VM) stepReturn() (value.Value, error) {
	v, err := vm.operands.Pop()
	if err != nil {
		return value.Nothing, vm.fatalErrorf("return: %v", err)
	}
	if err := vm.retainIfHandle(v); err != nil {
		return value.Nothing, err
	}
	return v, nil
}

func (vm *VM) stepExport(cur *bytecode.Cursor) error {
	v, err := vm.operands.Pop()
	if err != nil {
		return vm.fatalErrorf("export: %v", err)
	}
	name, err := asIdentifierName(v)
	if err != nil {
		return vm.wrapError(err)
	}
	logging.Info("export", "name", name, "frame", vm.frames.Top().Name)
	vm.frames.Top().MarkExported(name)
	return nil
}

func asIdentifierName(v value.Value) (string, error) {
	v = v.Unwrap()
	if v.Kind != value.KindUtf8 {
		return "", &TypeMismatchError{Expected: "Utf8", Received: v.Kind.String()}
	}
	return v.Utf8, nil
}

// currentFrame is a small convenience used across this package.
func (vm *VM) currentFrame() *frame.Frame {
	return vm.frames.Top()
}
