package disasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
	"github.com/kristofer/egovm/pkg/opcode"
)

func TestDisassembleScalarsAndArithmetic(t *testing.T) {
	program := asm.New().LoadI32(1).LoadI32(2).Add().Bytes()
	out, err := Disassemble(program)
	require.NoError(t, err)

	assert.Contains(t, out, "load_const i32 1")
	assert.Contains(t, out, "load_const i32 2")
	assert.Contains(t, out, "add")
}

func TestDisassembleJumpShowsComputedTarget(t *testing.T) {
	b := asm.New()
	b.LoadBool(false)
	patch := b.JumpPatch(opcode.JumpIfFalse)
	b.LoadI32(1)
	b.Patch(patch)
	b.LoadI32(2)
	program := b.Bytes()

	out, err := Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, "jump_if_false")
	assert.Contains(t, out, "->")
}

func TestDisassembleStructLiteralAndVectorNoteStackSource(t *testing.T) {
	program := asm.New().LoadUtf8("x").LoadI32(1).LoadStructLiteral(1).Bytes()
	out, err := Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, "load_const struct_literal fields=1 (from stack)")

	program = asm.New().LoadI32(1).LoadI32(2).LoadVector(2).Bytes()
	out, err = Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, "load_const vector len=2 (from stack)")
}

func TestDisassembleFunctionDeclarationRecursesIntoBody(t *testing.T) {
	body := asm.New().LoadVar("a").Return().Bytes()
	program := asm.New().LoadUtf8("a").FunctionDeclaration("id", []string{"a"}, body).Bytes()

	out, err := Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, `function_declaration "id" params=1 (from stack)`)
	assert.Contains(t, out, `load_var "a"`)
	assert.Contains(t, out, "return")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var bodyLine string
	for _, l := range lines {
		if strings.Contains(l, "load_var") {
			bodyLine = l
		}
	}
	require.NotEmpty(t, bodyLine)
	assert.True(t, strings.HasPrefix(bodyLine, "  "), "nested body lines should be indented one level deeper")
}

func TestDisassembleStructDeclarationListsFields(t *testing.T) {
	program := asm.New().StructDeclaration("Point", []asm.Field{
		{Name: "x", TypeTag: opcode.TypeI32},
		{Name: "y", TypeTag: opcode.TypeI32},
	}).Bytes()

	out, err := Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, `struct_declaration "Point" fields=2`)
	assert.Contains(t, out, ".x: i32")
	assert.Contains(t, out, ".y: i32")
}

func TestDisassembleImportRecursesIntoModuleBody(t *testing.T) {
	moduleBody := asm.New().LoadI32(1).Return().Bytes()
	program := asm.New().Import("time", moduleBody).Bytes()

	out, err := Disassemble(program)
	require.NoError(t, err)
	assert.Contains(t, out, "import (module name on stack)")
	assert.Contains(t, out, "load_const i32 1")
}

func TestDisassembleRejectsTruncatedProgram(t *testing.T) {
	program := []byte{byte(opcode.LoadConst), byte(opcode.TypeI32), 0x01}
	_, err := Disassemble(program)
	assert.Error(t, err)
}
