package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
	"github.com/kristofer/egovm/pkg/opcode"
)

func TestNumericKindMismatchIsTypeCoercionError(t *testing.T) {
	program := asm.New().LoadI32(1).LoadI64(1).Add().Return().Bytes()
	_, err := run(t, program)
	require.Error(t, err)
	var coerce *TypeCoercionError
	assert.ErrorAs(t, err, &coerce)
}

func TestJumpIfFalseOnNonBoolIsTypeMismatch(t *testing.T) {
	b := asm.New()
	b.LoadI32(1)
	patch := b.JumpPatch(opcode.JumpIfFalse)
	b.Patch(patch)
	program := b.Return().Bytes()

	_, err := run(t, program)
	require.Error(t, err)
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestExportingUndeclaredNameIsInvalidMemberTypeOnImport(t *testing.T) {
	moduleBody := asm.New().LoadUtf8("never_bound").Export().LoadI32(0).Return().Bytes()
	program := asm.New().Import("m", moduleBody).Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.Error(t, err)
	var invalid *ExportInvalidMemberTypeError
	assert.ErrorAs(t, err, &invalid)
}

func TestRuntimeErrorCarriesCallStackTrace(t *testing.T) {
	inner := asm.New().LoadI32(1).LoadUtf8("x").Add().Return().Bytes()
	program := asm.New().
		FunctionDeclaration("boom", nil, inner).
		LoadVar("boom").Call(0).
		Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Trace, "boom")
	assert.Contains(t, re.Trace, "main program")
}
