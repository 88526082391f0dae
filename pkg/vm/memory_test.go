package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
)

// TestFunctionDeclarationAtTopLevelStaysRetained exercises spec.md §8
// scenario 3: a function bound in the top-level frame stays retained after
// Run returns, its single reference held by that frame, since the top-level
// frame - unlike a function or module sub-frame - is never torn down.
func TestFunctionDeclarationAtTopLevelStaysRetained(t *testing.T) {
	body := asm.New().LoadI32(1).Return().Bytes()
	program := asm.New().
		FunctionDeclaration("f", nil, body).
		LoadI32(0).
		Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Memory().Live(), "the top-level frame holds the function's only reference")
}

// TestReassigningANonHandleVariableAllocatesNothing covers a store_var
// rebind whose old and new values are both Utf8 immediates: no heap object
// is allocated, so nothing is left live.
func TestReassigningANonHandleVariableAllocatesNothing(t *testing.T) {
	program := asm.New().
		LoadUtf8("first").StoreVar(0, "s").
		LoadUtf8("second").StoreVar(0, "s").
		LoadI32(0).
		Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	// Utf8 is a stack-immediate value, not a Handle, so this program never
	// allocates heap objects at all - it documents that store_var's
	// release-then-retain path is a no-op for non-Handle values.
	assert.Equal(t, 0, m.Memory().Live())
}

// TestUnboundStructLiteralIsNeverFreed documents the refcount-0 leak case:
// a struct literal built and consumed purely on the operand stack (never
// stored, returned, or exported) is allocated with refcount 0 and nothing
// ever calls Release on it, so its handle stays live.
func TestUnboundStructLiteralIsNeverFreed(t *testing.T) {
	program := asm.New().
		LoadUtf8("x").LoadI32(1).
		LoadStructLiteral(1).
		Drop().
		LoadI32(0).
		Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Memory().Live(), "an unretained literal is never released, by construction")
}

// TestExportedBindingSurvivesModuleFrameTeardown imports a module whose one
// export is a Utf8 immediate and checks that exactly one handle stays live:
// the module's StructLiteral, bound in the top-level frame. The export is not
// a Handle, so releaseFrameOwnedHandles' exclusion of exported names is not
// exercised here.
func TestExportedBindingSurvivesModuleFrameTeardown(t *testing.T) {
	moduleBody := asm.New().
		LoadUtf8("hi").StoreVar(0, "greeting").
		LoadUtf8("greeting").Export().
		LoadI32(0).Return().
		Bytes()

	program := asm.New().Import("hello", moduleBody).LoadI32(0).Return().Bytes()

	m := New()
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	// greeting itself is a stack-immediate Utf8, never a Handle, so the
	// only Handle in play is the module's own StructLiteral, bound as
	// "hello" in the main frame. The top-level frame is never torn down, so
	// that reference stays live for the VM's lifetime.
	assert.Equal(t, 1, m.Memory().Live())
}
