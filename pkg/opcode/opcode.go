// Package opcode defines the fixed bytecode instruction set for the ego VM.
//
// This is the one source of truth for the mapping between a mnemonic and its
// single-byte encoding, and between a runtime type and its single-byte type
// tag. Both the assembler (pkg/asm, standing in for "whatever compiles to
// this format") and the interpreter (pkg/vm) import this package so the two
// sides can never drift apart.
//
// Every instruction starts with one opcode byte. Some opcodes are followed
// by further operand bytes whose shape depends on the opcode; those shapes
// are not repeated here - pkg/asm's emitters encode them and pkg/vm's
// dispatch and pkg/disasm decode them. All multi-byte integers
// are little-endian; jump offsets are signed 32-bit.
package opcode

// Op is a single bytecode instruction opcode.
type Op byte

// Fixed opcode values. These values are part of the wire format and must
// never be renumbered once a bytecode file with this encoding exists in the
// wild (spec.md explicitly does not promise bytecode stability across
// versions, but within a version the table is load-bearing).
const (
	LoadConst           Op = 0x01
	Print               Op = 0x02
	Add                 Op = 0x03
	StoreVar            Op = 0x04
	LoadVar             Op = 0x05
	FFICall             Op = 0x06
	Println             Op = 0x07
	Substract           Op = 0x08
	Multiply            Op = 0x09
	Call                Op = 0x0A
	Divide              Op = 0x0B
	JumpIfFalse         Op = 0x0C
	Jump                Op = 0x0D
	GreaterThan         Op = 0x0E
	LessThan            Op = 0x0F
	Equals              Op = 0x10
	NotEquals           Op = 0x11
	FunctionDeclaration Op = 0x12
	StructDeclaration   Op = 0x13
	GetProperty         Op = 0x14
	Import              Op = 0x15
	Export              Op = 0x16
	Return              Op = 0x17
	Drop                Op = 0x18
)

// String renders an opcode mnemonic, used for disassembly and error text.
func (op Op) String() string {
	switch op {
	case LoadConst:
		return "load_const"
	case Print:
		return "print"
	case Add:
		return "add"
	case StoreVar:
		return "store_var"
	case LoadVar:
		return "load_var"
	case FFICall:
		return "ffi_call"
	case Println:
		return "println"
	case Substract:
		return "substract"
	case Multiply:
		return "multiply"
	case Call:
		return "call"
	case Divide:
		return "divide"
	case JumpIfFalse:
		return "jump_if_false"
	case Jump:
		return "jump"
	case GreaterThan:
		return "greater_than"
	case LessThan:
		return "less_than"
	case Equals:
		return "equals"
	case NotEquals:
		return "not_equals"
	case FunctionDeclaration:
		return "function_declaration"
	case StructDeclaration:
		return "struct_declaration"
	case GetProperty:
		return "get_property"
	case Import:
		return "import"
	case Export:
		return "export"
	case Return:
		return "return"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// IsBinaryOperator reports whether op is one of the eight binary operator
// opcodes that pkg/vm/operators.go handles uniformly.
func (op Op) IsBinaryOperator() bool {
	switch op {
	case Add, Substract, Multiply, Divide, GreaterThan, LessThan, Equals, NotEquals:
		return true
	default:
		return false
	}
}

// Mutability flags read by store_var, one byte preceding the identifier.
type Mutability byte

const (
	Immutable Mutability = 0x00
	Mutable   Mutability = 0x01
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mut"
	}
	return "inmut"
}

// Type is the single-byte type tag that follows load_const (and appears
// inside nested constant payloads such as struct fields).
type Type byte

const (
	TypeNothing       Type = 0x00
	TypeI32           Type = 0x01
	TypeI64           Type = 0x02
	TypeU32           Type = 0x03
	TypeU64           Type = 0x04
	TypeUtf8          Type = 0x05
	TypeBool          Type = 0x06
	TypeF64           Type = 0x07
	TypeStructLiteral Type = 0x08
	TypeVector        Type = 0x09
	TypeLambda        Type = 0x0A
)

func (t Type) String() string {
	switch t {
	case TypeNothing:
		return "nothing"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeUtf8:
		return "utf8"
	case TypeBool:
		return "bool"
	case TypeF64:
		return "f64"
	case TypeStructLiteral:
		return "struct_literal"
	case TypeVector:
		return "vector"
	case TypeLambda:
		return "lambda"
	default:
		return "unknown"
	}
}
