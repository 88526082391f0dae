// Package asm builds valid bytecode programs for the ego VM (spec.md §6.1)
// without a lexer, parser, or compiler - those are explicitly out of scope
// (spec.md §1). Builder stands in for "whatever produces bytecode in the
// shape of §6.1": tests construct fixtures with it. cmd/egovm does not use
// it; its `run` and `disassemble` subcommands read already-encoded bytecode
// files.
//
// The fluent, chainable method style (each call returns *Builder) mirrors
// the teacher's own pkg/compiler.Compiler, which accumulates instructions
// onto a single Bytecode value one method call at a time; this package
// accumulates raw bytes onto a single []byte the same way.
package asm

import (
	"encoding/binary"
	"math"

	"github.com/kristofer/egovm/pkg/opcode"
)

// Field describes one struct_declaration field for StructDeclaration.
type Field struct {
	Name    string
	TypeTag opcode.Type
}

// Builder accumulates bytecode. The zero value is not usable; construct
// with New.
type Builder struct {
	buf []byte
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Bytes returns the program built so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len reports the number of bytes emitted so far, useful for computing jump
// targets by hand when Jump/JumpIfFalse's patch-based API isn't a fit.
func (b *Builder) Len() int {
	return len(b.buf)
}

func (b *Builder) op(o opcode.Op) *Builder {
	b.buf = append(b.buf, byte(o))
	return b
}

func (b *Builder) byteVal(v byte) *Builder {
	b.buf = append(b.buf, v)
	return b
}

func (b *Builder) u32(v uint32) *Builder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

func (b *Builder) i32(v int32) *Builder {
	return b.u32(uint32(v))
}

func (b *Builder) u64(v uint64) *Builder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
	return b
}

func (b *Builder) i64(v int64) *Builder {
	return b.u64(uint64(v))
}

func (b *Builder) f64(v float64) *Builder {
	return b.u64(math.Float64bits(v))
}

// rawString writes the `u32 <4-byte length> <bytes>` tail shared by
// identifiers and the Utf8 load_const payload (spec.md §4.3's string
// operand layout, minus whichever leading `utf8` tag the caller already
// wrote).
func (b *Builder) rawString(s string) *Builder {
	b.byteVal(byte(opcode.TypeU32))
	b.u32(uint32(len(s)))
	b.buf = append(b.buf, s...)
	return b
}

// identifier writes the full doubly-tagged identifier format: `utf8 u32
// <length> <bytes>`, used for load_var, store_var, function_declaration,
// struct_declaration, and struct_declaration field names.
func (b *Builder) identifier(s string) *Builder {
	b.byteVal(byte(opcode.TypeUtf8))
	return b.rawString(s)
}

// LoadNothing emits `load_const nothing`.
func (b *Builder) LoadNothing() *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeNothing))
}

// LoadI32 emits `load_const i32 <v>`.
func (b *Builder) LoadI32(v int32) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeI32)).i32(v)
}

// LoadI64 emits `load_const i64 <v>`.
func (b *Builder) LoadI64(v int64) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeI64)).i64(v)
}

// LoadU32 emits `load_const u32 <v>`.
func (b *Builder) LoadU32(v uint32) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeU32)).u32(v)
}

// LoadU64 emits `load_const u64 <v>`.
func (b *Builder) LoadU64(v uint64) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeU64)).u64(v)
}

// LoadF64 emits `load_const f64 <v>`.
func (b *Builder) LoadF64(v float64) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeF64)).f64(v)
}

// LoadBool emits `load_const bool <v>`.
func (b *Builder) LoadBool(v bool) *Builder {
	b.op(opcode.LoadConst).byteVal(byte(opcode.TypeBool))
	if v {
		return b.byteVal(1)
	}
	return b.byteVal(0)
}

// LoadUtf8 emits `load_const utf8 <v>` as a stack-immediate string.
func (b *Builder) LoadUtf8(s string) *Builder {
	b.op(opcode.LoadConst).byteVal(byte(opcode.TypeUtf8))
	return b.rawString(s)
}

// LoadStructLiteral emits the struct_literal load_const payload. The
// caller must already have pushed fieldCount (name, value) pairs (e.g. via
// LoadUtf8 for each name, interleaved with a value-pushing instruction)
// before calling this.
func (b *Builder) LoadStructLiteral(fieldCount uint32) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeStructLiteral)).u32(fieldCount)
}

// LoadVector emits the vector load_const payload. The caller must already
// have pushed count elements before calling this.
func (b *Builder) LoadVector(count uint32) *Builder {
	return b.op(opcode.LoadConst).byteVal(byte(opcode.TypeVector)).u32(count)
}

// LoadLambda emits the lambda load_const payload. The caller must already
// have pushed len(params) parameter-name strings (via LoadUtf8) before
// calling this, mirroring FunctionDeclaration's parameter convention.
func (b *Builder) LoadLambda(paramsCount uint32, body []byte) *Builder {
	b.op(opcode.LoadConst).byteVal(byte(opcode.TypeLambda)).u32(paramsCount).u32(uint32(len(body)))
	b.buf = append(b.buf, body...)
	return b
}

// LoadVar emits `load_var <identifier>`.
func (b *Builder) LoadVar(name string) *Builder {
	return b.op(opcode.LoadVar).identifier(name)
}

// StoreVar emits `store_var <mutability> <identifier>`.
func (b *Builder) StoreVar(mut opcode.Mutability, name string) *Builder {
	return b.op(opcode.StoreVar).byteVal(byte(mut)).identifier(name)
}

// Drop emits `drop`.
func (b *Builder) Drop() *Builder {
	return b.op(opcode.Drop)
}

// Jump emits `jump <offset>`, where offset is relative to the instruction
// immediately after the 4-byte offset field (matching bytecode.Cursor.Jump).
func (b *Builder) Jump(offset int32) *Builder {
	return b.op(opcode.Jump).i32(offset)
}

// JumpIfFalse emits `jump_if_false <offset>`.
func (b *Builder) JumpIfFalse(offset int32) *Builder {
	return b.op(opcode.JumpIfFalse).i32(offset)
}

// JumpPatch marks a forward jump whose offset isn't known yet: it emits the
// opcode and a zero placeholder, returning the buffer position of the start
// of the 4-byte offset field. Patch fills it in once the jump target is
// known.
func (b *Builder) JumpPatch(op opcode.Op) int {
	b.op(op)
	pos := len(b.buf)
	b.u32(0)
	return pos
}

// Patch fills in a forward jump emitted by JumpPatch, computing the offset
// relative to the current end of the buffer (the jump's landing point),
// exactly as bytecode.Cursor.Jump will apply it at run time.
func (b *Builder) Patch(patchPos int) *Builder {
	offset := int32(len(b.buf) - (patchPos + 4))
	binary.LittleEndian.PutUint32(b.buf[patchPos:patchPos+4], uint32(offset))
	return b
}

// FunctionDeclaration emits the function_declaration instruction. The
// caller must already have pushed len(params) parameter-name strings (via
// LoadUtf8) before calling this (spec.md §6.1: "parameter names are pushed
// before the declaration opcode by the compiler").
func (b *Builder) FunctionDeclaration(name string, params []string, body []byte) *Builder {
	b.op(opcode.FunctionDeclaration).identifier(name).u32(uint32(len(params)))
	b.u32(uint32(len(body)))
	b.buf = append(b.buf, body...)
	return b
}

// StructDeclaration emits the struct_declaration instruction with its
// fields read directly from the instruction stream.
func (b *Builder) StructDeclaration(name string, fields []Field) *Builder {
	b.op(opcode.StructDeclaration).identifier(name).u32(uint32(len(fields)))
	for _, f := range fields {
		b.identifier(f.Name).byteVal(byte(f.TypeTag))
	}
	return b
}

// GetProperty emits `get_property`. The caller must have pushed the
// property-name string (via LoadUtf8) first, then the object value, so the
// object ends up on top - the object is popped first at run time, followed
// by the property name.
func (b *Builder) GetProperty() *Builder {
	return b.op(opcode.GetProperty)
}

// Call emits `call <argCount>`. The caller must have pushed the callee,
// then argCount argument values in left-to-right order, before calling
// this.
func (b *Builder) Call(argCount uint32) *Builder {
	return b.op(opcode.Call).u32(argCount)
}

// Print emits `print <argCount>`.
func (b *Builder) Print(argCount uint32) *Builder {
	return b.op(opcode.Print).u32(argCount)
}

// Println emits `println <argCount>`.
func (b *Builder) Println(argCount uint32) *Builder {
	return b.op(opcode.Println).u32(argCount)
}

// Return emits `return`. The caller must have pushed the result value.
func (b *Builder) Return() *Builder {
	return b.op(opcode.Return)
}

// Import emits the import instruction: pushes the module name (so it is on
// top of the operand stack when `import` runs), then the opcode and the
// embedded module bytecode (possibly empty, for a native-only import).
func (b *Builder) Import(name string, moduleBytecode []byte) *Builder {
	b.LoadUtf8(name)
	b.op(opcode.Import).u32(uint32(len(moduleBytecode)))
	b.buf = append(b.buf, moduleBytecode...)
	return b
}

// Export emits the export instruction. The caller must have pushed the
// identifier string (via LoadUtf8) before calling this.
func (b *Builder) Export() *Builder {
	return b.op(opcode.Export)
}

// Add, Sub, Mul, Div, Gt, Lt, Eq, Neq emit the eight binary operator
// opcodes. Each expects its two operands already pushed, left then right.
func (b *Builder) Add() *Builder { return b.op(opcode.Add) }
func (b *Builder) Sub() *Builder { return b.op(opcode.Substract) }
func (b *Builder) Mul() *Builder { return b.op(opcode.Multiply) }
func (b *Builder) Div() *Builder { return b.op(opcode.Divide) }
func (b *Builder) Gt() *Builder  { return b.op(opcode.GreaterThan) }
func (b *Builder) Lt() *Builder  { return b.op(opcode.LessThan) }
func (b *Builder) Eq() *Builder  { return b.op(opcode.Equals) }
func (b *Builder) Neq() *Builder { return b.op(opcode.NotEquals) }

// FFICall emits `ffi_call <argCount>`.
func (b *Builder) FFICall(argCount uint32) *Builder {
	return b.op(opcode.FFICall).u32(argCount)
}
