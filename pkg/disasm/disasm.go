// Package disasm renders a bytecode program as human-readable text, the way
// the teacher's cmd/smog disassembleFile prints a .sg file's constant pool
// and instructions for debugging. This implementation walks the flat
// instruction stream directly instead of a separate constant pool, since
// spec.md §6.1 inlines every operand next to the opcode that consumes it.
//
// Disassembly cannot fully resolve struct_literal, vector, or call operand
// values - those are already on the operand stack by the time their opcode
// runs, not encoded in the stream - so this only prints what the stream
// itself carries (counts, identifiers, nested bodies) plus a note that the
// rest comes from the stack, matching how an interpreter actually sees it.
package disasm

import (
	"fmt"
	"strings"

	"github.com/kristofer/egovm/pkg/bytecode"
	"github.com/kristofer/egovm/pkg/opcode"
)

// Disassemble renders program as one line per instruction, indenting nested
// function/lambda bodies.
func Disassemble(program []byte) (string, error) {
	var b strings.Builder
	if err := disassembleInto(&b, program, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func disassembleInto(b *strings.Builder, program []byte, depth int) error {
	cur := bytecode.NewCursor(program)
	indent := strings.Repeat("  ", depth)

	for !cur.Done() {
		offset := cur.Pos
		opByte, err := cur.ReadByte()
		if err != nil {
			return fmt.Errorf("offset %d: %w", offset, err)
		}
		op := opcode.Op(opByte)

		if op.IsBinaryOperator() {
			fmt.Fprintf(b, "%s%4d  %s\n", indent, offset, op)
			continue
		}

		switch op {
		case opcode.LoadConst:
			if err := disassembleLoadConst(b, cur, indent, offset, depth); err != nil {
				return err
			}

		case opcode.LoadVar:
			name, err := cur.ReadIdentifier()
			if err != nil {
				return fmt.Errorf("offset %d: load_var: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  load_var %q\n", indent, offset, name)

		case opcode.StoreVar:
			mutByte, err := cur.ReadByte()
			if err != nil {
				return fmt.Errorf("offset %d: store_var: %w", offset, err)
			}
			name, err := cur.ReadIdentifier()
			if err != nil {
				return fmt.Errorf("offset %d: store_var: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  store_var %s %q\n", indent, offset, opcode.Mutability(mutByte), name)

		case opcode.Drop:
			fmt.Fprintf(b, "%s%4d  drop\n", indent, offset)

		case opcode.Jump:
			off, err := cur.ReadI32()
			if err != nil {
				return fmt.Errorf("offset %d: jump: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  jump %+d -> %d\n", indent, offset, off, cur.Pos+int(off))

		case opcode.JumpIfFalse:
			off, err := cur.ReadI32()
			if err != nil {
				return fmt.Errorf("offset %d: jump_if_false: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  jump_if_false %+d -> %d\n", indent, offset, off, cur.Pos+int(off))

		case opcode.FunctionDeclaration:
			if err := disassembleFunctionDeclaration(b, cur, indent, offset, depth); err != nil {
				return err
			}

		case opcode.StructDeclaration:
			if err := disassembleStructDeclaration(b, cur, indent, offset); err != nil {
				return err
			}

		case opcode.GetProperty:
			fmt.Fprintf(b, "%s%4d  get_property\n", indent, offset)

		case opcode.Call:
			argCount, err := cur.ReadU32()
			if err != nil {
				return fmt.Errorf("offset %d: call: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  call argc=%d\n", indent, offset, argCount)

		case opcode.Print, opcode.Println:
			argCount, err := cur.ReadU32()
			if err != nil {
				return fmt.Errorf("offset %d: %s: %w", offset, op, err)
			}
			fmt.Fprintf(b, "%s%4d  %s argc=%d\n", indent, offset, op, argCount)

		case opcode.Return:
			fmt.Fprintf(b, "%s%4d  return\n", indent, offset)

		case opcode.Import:
			bodyLen, err := cur.ReadU32()
			if err != nil {
				return fmt.Errorf("offset %d: import: %w", offset, err)
			}
			body, err := cur.ReadBytes(int(bodyLen))
			if err != nil {
				return fmt.Errorf("offset %d: import: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  import (module name on stack) body=%d byte(s)\n", indent, offset, len(body))
			if len(body) > 0 {
				if err := disassembleInto(b, body, depth+1); err != nil {
					return err
				}
			}

		case opcode.Export:
			fmt.Fprintf(b, "%s%4d  export (identifier on stack)\n", indent, offset)

		case opcode.FFICall:
			argCount, err := cur.ReadU32()
			if err != nil {
				return fmt.Errorf("offset %d: ffi_call: %w", offset, err)
			}
			fmt.Fprintf(b, "%s%4d  ffi_call argc=%d\n", indent, offset, argCount)

		default:
			return fmt.Errorf("offset %d: unknown opcode 0x%02X", offset, opByte)
		}
	}
	return nil
}

func disassembleLoadConst(b *strings.Builder, cur *bytecode.Cursor, indent string, offset, depth int) error {
	tagByte, err := cur.ReadByte()
	if err != nil {
		return fmt.Errorf("offset %d: load_const: %w", offset, err)
	}
	tag := opcode.Type(tagByte)

	switch tag {
	case opcode.TypeNothing:
		fmt.Fprintf(b, "%s%4d  load_const nothing\n", indent, offset)
	case opcode.TypeI32:
		v, err := cur.ReadI32()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const i32 %d\n", indent, offset, v)
	case opcode.TypeI64:
		v, err := cur.ReadI64()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const i64 %d\n", indent, offset, v)
	case opcode.TypeU32:
		v, err := cur.ReadU32()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const u32 %d\n", indent, offset, v)
	case opcode.TypeU64:
		v, err := cur.ReadU64()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const u64 %d\n", indent, offset, v)
	case opcode.TypeF64:
		v, err := cur.ReadF64()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const f64 %g\n", indent, offset, v)
	case opcode.TypeBool:
		v, err := cur.ReadByte()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const bool %t\n", indent, offset, v != 0)
	case opcode.TypeUtf8:
		s, err := cur.ReadUtf8Payload()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const utf8 %q\n", indent, offset, s)
	case opcode.TypeStructLiteral:
		count, err := cur.ReadU32()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const struct_literal fields=%d (from stack)\n", indent, offset, count)
	case opcode.TypeVector:
		count, err := cur.ReadU32()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const vector len=%d (from stack)\n", indent, offset, count)
	case opcode.TypeLambda:
		paramsCount, err := cur.ReadU32()
		if err != nil {
			return err
		}
		bodyLen, err := cur.ReadU32()
		if err != nil {
			return err
		}
		body, err := cur.ReadBytes(int(bodyLen))
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%4d  load_const lambda params=%d (from stack) body=%d byte(s)\n", indent, offset, paramsCount, len(body))
		return disassembleInto(b, body, depth+1)
	default:
		return fmt.Errorf("offset %d: load_const: unknown type tag 0x%02X", offset, tagByte)
	}
	return nil
}

func disassembleFunctionDeclaration(b *strings.Builder, cur *bytecode.Cursor, indent string, offset, depth int) error {
	name, err := cur.ReadIdentifier()
	if err != nil {
		return fmt.Errorf("offset %d: function_declaration: %w", offset, err)
	}
	paramsCount, err := cur.ReadU32()
	if err != nil {
		return err
	}
	bodyLen, err := cur.ReadU32()
	if err != nil {
		return err
	}
	body, err := cur.ReadBytes(int(bodyLen))
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s%4d  function_declaration %q params=%d (from stack) body=%d byte(s)\n", indent, offset, name, paramsCount, len(body))
	return disassembleInto(b, body, depth+1)
}

func disassembleStructDeclaration(b *strings.Builder, cur *bytecode.Cursor, indent string, offset int) error {
	name, err := cur.ReadIdentifier()
	if err != nil {
		return fmt.Errorf("offset %d: struct_declaration: %w", offset, err)
	}
	fieldCount, err := cur.ReadU32()
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s%4d  struct_declaration %q fields=%d\n", indent, offset, name, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		fieldName, err := cur.ReadIdentifier()
		if err != nil {
			return fmt.Errorf("offset %d: struct_declaration field %d: %w", offset, i, err)
		}
		typeTag, err := cur.ReadByte()
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s        .%s: %s\n", indent, fieldName, opcode.Type(typeTag))
	}
	return nil
}
