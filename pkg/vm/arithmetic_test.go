package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
	"github.com/kristofer/egovm/pkg/opcode"
	"github.com/kristofer/egovm/pkg/value"
)

// run executes program on a fresh VM and returns its result. It makes no
// claim about outstanding handles: a literal constructed and consumed
// without ever being bound to a variable is never retained, so it is never
// released either - see memory_test.go for the handle-lifecycle tests that
// do assert on Memory().Live().
func run(t *testing.T, program []byte) (value.Value, error) {
	t.Helper()
	m := New()
	result, err := m.Run(context.Background(), program)
	if err != nil {
		return value.Nothing, err
	}
	return result, nil
}

func TestArithmeticIsDeterministic(t *testing.T) {
	program := asm.New().LoadI32(2).LoadI32(3).Mul().LoadI32(4).Add().Return().Bytes()

	m := New()
	r1, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	r2, err := m.Run(context.Background(), program)
	require.NoError(t, err)

	assert.Equal(t, int32(10), r1.I32)
	assert.Equal(t, r1, r2, "running the same program twice must produce the same result")
}

func TestDivisionByZeroReportsTypedError(t *testing.T) {
	program := asm.New().LoadI32(1).LoadI32(0).Div().Return().Bytes()
	_, err := run(t, program)
	require.Error(t, err)
	var divErr *DivisionByZeroError
	assert.ErrorAs(t, err, &divErr)
}

func TestComparisonOperators(t *testing.T) {
	cases := []struct {
		name string
		b    *asm.Builder
		want bool
	}{
		{"gt true", asm.New().LoadI32(5).LoadI32(3).Gt(), true},
		{"gt false", asm.New().LoadI32(3).LoadI32(5).Gt(), false},
		{"lt true", asm.New().LoadI32(3).LoadI32(5).Lt(), true},
		{"eq true", asm.New().LoadI32(7).LoadI32(7).Eq(), true},
		{"neq true", asm.New().LoadI32(7).LoadI32(8).Neq(), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			program := c.b.Return().Bytes()
			result, err := run(t, program)
			require.NoError(t, err)
			assert.Equal(t, c.want, result.Bool)
		})
	}
}

func TestJumpIfFalseSkipsBranch(t *testing.T) {
	b := asm.New()
	b.LoadBool(false)
	patch := b.JumpPatch(opcode.JumpIfFalse)
	b.LoadI32(111)
	b.Return()
	b.Patch(patch)
	b.LoadI32(222)
	program := b.Return().Bytes()

	result, err := run(t, program)
	require.NoError(t, err)
	assert.Equal(t, int32(222), result.I32)
}

func TestJumpIfFalseTakesBranchWhenTrue(t *testing.T) {
	b := asm.New()
	b.LoadBool(true)
	patch := b.JumpPatch(opcode.JumpIfFalse)
	b.LoadI32(111)
	b.Return()
	b.Patch(patch)
	b.LoadI32(222)
	program := b.Return().Bytes()

	result, err := run(t, program)
	require.NoError(t, err)
	assert.Equal(t, int32(111), result.I32)
}

func TestMismatchedOperandTypesRejected(t *testing.T) {
	program := asm.New().LoadI32(1).LoadUtf8("x").Add().Return().Bytes()
	_, err := run(t, program)
	require.Error(t, err)
	var mismatch *InvalidBinaryOperationError
	assert.ErrorAs(t, err, &mismatch)
}

func TestStackUnderflowIsFatal(t *testing.T) {
	program := asm.New().Add().Return().Bytes()
	m := New()
	_, err := m.Run(context.Background(), program)
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Fatal)
}
