package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/opcode"
)

func TestLoadConstScalarsDecodeBack(t *testing.T) {
	program := New().LoadI32(7).LoadBool(true).LoadUtf8("hi").Bytes()
	cur := bytecode.NewCursor(program)

	op, err := cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.LoadConst), op)
	tag, err := cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.TypeI32), tag)
	v, err := cur.ReadI32()
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	op, err = cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.LoadConst), op)
	tag, err = cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.TypeBool), tag)
	b, err := cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	op, err = cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.LoadConst), op)
	tag, err = cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.TypeUtf8), tag)
	s, err := cur.ReadUtf8Payload()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	assert.True(t, cur.Done())
}

func TestLoadVarStoreVarUseIdentifierFormat(t *testing.T) {
	program := New().LoadVar("x").StoreVar(opcode.Mutable, "y").Bytes()
	cur := bytecode.NewCursor(program)

	op, _ := cur.ReadByte()
	assert.Equal(t, byte(opcode.LoadVar), op)
	name, err := cur.ReadIdentifier()
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	op, _ = cur.ReadByte()
	assert.Equal(t, byte(opcode.StoreVar), op)
	mut, err := cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(opcode.Mutable), mut)
	name, err = cur.ReadIdentifier()
	require.NoError(t, err)
	assert.Equal(t, "y", name)
}

func TestJumpPatchComputesOffsetRelativeToLandingPoint(t *testing.T) {
	b := New()
	b.LoadBool(false)
	patch := b.JumpPatch(opcode.JumpIfFalse)
	b.LoadI32(1) // skipped branch
	b.Patch(patch)
	b.LoadI32(2) // landing point

	program := b.Bytes()
	cur := bytecode.NewCursor(program)

	// load_const bool false
	_, _ = cur.ReadByte()
	_, _ = cur.ReadByte()
	_, _ = cur.ReadByte()

	op, _ := cur.ReadByte()
	assert.Equal(t, byte(opcode.JumpIfFalse), op)
	offset, err := cur.ReadI32()
	require.NoError(t, err)

	landingPos := cur.Pos + int(offset)
	cur.Jump(offset)
	assert.Equal(t, landingPos, cur.Pos)

	op, _ = cur.ReadByte()
	assert.Equal(t, byte(opcode.LoadConst), op)
	tag, _ := cur.ReadByte()
	assert.Equal(t, byte(opcode.TypeI32), tag)
	v, err := cur.ReadI32()
	require.NoError(t, err)
	assert.Equal(t, int32(2), v, "jump must land exactly on the second load_const, skipping the first")
}

func TestFunctionDeclarationEncodesNameParamsAndBody(t *testing.T) {
	body := New().LoadI32(1).Return().Bytes()
	program := New().FunctionDeclaration("add", []string{"a", "b"}, body).Bytes()

	cur := bytecode.NewCursor(program)
	op, _ := cur.ReadByte()
	assert.Equal(t, byte(opcode.FunctionDeclaration), op)

	name, err := cur.ReadIdentifier()
	require.NoError(t, err)
	assert.Equal(t, "add", name)

	paramsCount, err := cur.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), paramsCount)

	bodyLen, err := cur.ReadU32()
	require.NoError(t, err)
	gotBody, err := cur.ReadBytes(int(bodyLen))
	require.NoError(t, err)
	assert.Equal(t, body, gotBody)
}

func TestStructDeclarationEncodesFields(t *testing.T) {
	program := New().StructDeclaration("Point", []Field{
		{Name: "x", TypeTag: opcode.TypeI32},
		{Name: "y", TypeTag: opcode.TypeI32},
	}).Bytes()

	cur := bytecode.NewCursor(program)
	op, _ := cur.ReadByte()
	assert.Equal(t, byte(opcode.StructDeclaration), op)

	name, err := cur.ReadIdentifier()
	require.NoError(t, err)
	assert.Equal(t, "Point", name)

	fieldCount, err := cur.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), fieldCount)

	for _, want := range []string{"x", "y"} {
		fieldName, err := cur.ReadIdentifier()
		require.NoError(t, err)
		assert.Equal(t, want, fieldName)
		tag, err := cur.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte(opcode.TypeI32), tag)
	}
}
