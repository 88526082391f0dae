// This file implements binary operator semantics exactly as spec.md §4.6
// specifies: same-type numeric pairs get the full operator set, Utf8/Utf8
// and heap-string pairs get a restricted set, Bool/Nothing get none, two
// numeric operands of different kinds are a TypeCoercionError, and every
// other cross-type combination is an InvalidBinaryOperationError.
//
// Grounded on the teacher's `send()` dispatch for arithmetic/comparison
// selectors (pkg/vm/vm.go), generalized from "send a message named +" to
// "apply the opcode-level binary operator table," since this spec has no
// message dispatch - binary operators are dedicated opcodes (spec.md §6.1).
package vm

import (
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/opcode"
	"github.com/kristofer/egovm/pkg/value"
)

func operatorSymbol(op opcode.Op) string {
	switch op {
	case opcode.Add:
		return "+"
	case opcode.Substract:
		return "-"
	case opcode.Multiply:
		return "*"
	case opcode.Divide:
		return "/"
	case opcode.GreaterThan:
		return ">"
	case opcode.LessThan:
		return "<"
	case opcode.Equals:
		return "=="
	case opcode.NotEquals:
		return "!="
	default:
		return "?"
	}
}

// applyBinaryOperator implements the full table in spec.md §4.6. right was
// popped first and left second (the compiler emits operators in postfix with
// the left operand pushed first, so it lies beneath the right one).
func (vm *VM) applyBinaryOperator(op opcode.Op, left, right value.Value) (value.Value, error) {
	left = left.Unwrap()
	right = right.Unwrap()

	switch {
	case left.IsNumeric() && right.IsNumeric():
		if left.Kind != right.Kind {
			return value.Nothing, vm.wrapError(&TypeCoercionError{Value: left.Kind.String() + " vs " + right.Kind.String()})
		}
		return vm.applyNumericOperator(op, left, right)

	case left.Kind == value.KindUtf8 && right.Kind == value.KindUtf8:
		return vm.applyUtf8Operator(op, left, right)

	case left.Kind == value.KindHandle && right.Kind == value.KindHandle:
		return vm.applyHandleOperator(op, left, right)

	case (left.Kind == value.KindUtf8 && right.Kind == value.KindHandle) ||
		(left.Kind == value.KindHandle && right.Kind == value.KindUtf8):
		return vm.applyCrossStringEquality(op, left, right)

	case left.Kind == value.KindBool && right.Kind == value.KindBool:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)

	case left.Kind == value.KindNothing && right.Kind == value.KindNothing:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)

	default:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}
}

func (vm *VM) invalidBinaryOp(op opcode.Op, left, right value.Value) *RuntimeError {
	return vm.wrapError(&InvalidBinaryOperationError{
		LeftType:  left.Kind.String(),
		RightType: right.Kind.String(),
		Operator:  operatorSymbol(op),
	})
}

func (vm *VM) applyNumericOperator(op opcode.Op, left, right value.Value) (value.Value, error) {
	switch left.Kind {
	case value.KindI32:
		return numericOp(op, left.I32, right.I32, value.NewI32, vm, left, right)
	case value.KindI64:
		return numericOp(op, left.I64, right.I64, value.NewI64, vm, left, right)
	case value.KindU32:
		return numericOp(op, left.U32, right.U32, value.NewU32, vm, left, right)
	case value.KindU64:
		return numericOp(op, left.U64, right.U64, value.NewU64, vm, left, right)
	case value.KindF64:
		return numericOpFloat(op, left.F64, right.F64, vm, left, right)
	default:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}
}

// numericOp is generic over Go's signed/unsigned integer kinds, using
// Go 1.18+ generics the way a modern stdlib-adjacent helper would, to avoid
// writing the same eight-way switch four times (once per integer kind).
func numericOp[T int32 | int64 | uint32 | uint64](
	op opcode.Op, l, r T, wrap func(T) value.Value,
	vm *VM, leftV, rightV value.Value,
) (value.Value, error) {
	switch op {
	case opcode.Add:
		return wrap(l + r), nil
	case opcode.Substract:
		return wrap(l - r), nil
	case opcode.Multiply:
		return wrap(l * r), nil
	case opcode.Divide:
		if r == 0 {
			return value.Nothing, vm.wrapError(&DivisionByZeroError{Value: leftV.Kind.String()})
		}
		return wrap(l / r), nil
	case opcode.GreaterThan:
		return value.NewBool(l > r), nil
	case opcode.LessThan:
		return value.NewBool(l < r), nil
	case opcode.Equals:
		return value.NewBool(l == r), nil
	case opcode.NotEquals:
		return value.NewBool(l != r), nil
	default:
		return value.Nothing, vm.invalidBinaryOp(op, leftV, rightV)
	}
}

func numericOpFloat(op opcode.Op, l, r float64, vm *VM, leftV, rightV value.Value) (value.Value, error) {
	switch op {
	case opcode.Add:
		return value.NewF64(l + r), nil
	case opcode.Substract:
		return value.NewF64(l - r), nil
	case opcode.Multiply:
		return value.NewF64(l * r), nil
	case opcode.Divide:
		if r == 0 {
			return value.Nothing, vm.wrapError(&DivisionByZeroError{Value: leftV.Kind.String()})
		}
		return value.NewF64(l / r), nil
	case opcode.GreaterThan:
		return value.NewBool(l > r), nil
	case opcode.LessThan:
		return value.NewBool(l < r), nil
	case opcode.Equals:
		return value.NewBool(l == r), nil
	case opcode.NotEquals:
		return value.NewBool(l != r), nil
	default:
		return value.Nothing, vm.invalidBinaryOp(op, leftV, rightV)
	}
}

// applyUtf8Operator handles stack-immediate Utf8/Utf8: only == and != are
// defined (spec.md §4.6).
func (vm *VM) applyUtf8Operator(op opcode.Op, left, right value.Value) (value.Value, error) {
	switch op {
	case opcode.Equals:
		return value.NewBool(left.Utf8 == right.Utf8), nil
	case opcode.NotEquals:
		return value.NewBool(left.Utf8 != right.Utf8), nil
	default:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}
}

// applyHandleOperator handles Handle/Handle pairs, which are only
// meaningful when both resolve to heap Strings (spec.md §4.6 "heap-string /
// heap-string supports +, ==, !="). Any other heap-object combination is
// InvalidBinaryOperation.
func (vm *VM) applyHandleOperator(op opcode.Op, left, right value.Value) (value.Value, error) {
	lObj, err := vm.memory.Resolve(handleOf(left))
	if err != nil {
		return value.Nothing, vm.wrapError(err)
	}
	rObj, err := vm.memory.Resolve(handleOf(right))
	if err != nil {
		return value.Nothing, vm.wrapError(err)
	}
	if lObj.Kind != heap.KindString || rObj.Kind != heap.KindString {
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}
	switch op {
	case opcode.Add:
		h := vm.allocString(lObj.Str.Text + rObj.Str.Text)
		return value.NewHandle(uint64(h)), nil
	case opcode.Equals:
		return value.NewBool(lObj.Str.Text == rObj.Str.Text), nil
	case opcode.NotEquals:
		return value.NewBool(lObj.Str.Text != rObj.Str.Text), nil
	default:
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}
}

// applyCrossStringEquality handles a stack Utf8 compared against a heap
// String handle: allowed only for == and != (spec.md §4.6 "Cross-kind
// string equality ... is allowed for == after resolving types").
func (vm *VM) applyCrossStringEquality(op opcode.Op, left, right value.Value) (value.Value, error) {
	if op != opcode.Equals && op != opcode.NotEquals {
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}

	var immediate string
	var h value.Value
	if left.Kind == value.KindUtf8 {
		immediate, h = left.Utf8, right
	} else {
		immediate, h = right.Utf8, left
	}

	obj, err := vm.memory.Resolve(handleOf(h))
	if err != nil {
		return value.Nothing, vm.wrapError(err)
	}
	if obj.Kind != heap.KindString {
		return value.Nothing, vm.invalidBinaryOp(op, left, right)
	}

	equal := immediate == obj.Str.Text
	if op == opcode.NotEquals {
		equal = !equal
	}
	return value.NewBool(equal), nil
}
