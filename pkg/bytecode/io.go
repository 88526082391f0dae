// Package bytecode provides the little-endian binary read/write primitives
// of the VM's wire format. The interpreter (pkg/vm) and the disassembler
// (pkg/disasm) read it through a Cursor; the assembler (pkg/asm) encodes the
// same layout with encoding/binary directly, not through these helpers.
//
// Unlike a typical bytecode IR that separates instructions from a constant
// pool, the wire format specified for this VM (spec.md §6.1) is a single
// flat byte stream: every operand is encoded inline, immediately after the
// opcode that needs it. Strings are length-prefixed UTF-8; numbers are
// type-tagged followed by their fixed-width encoding; everything is
// little-endian. This file supplies the primitives for reading and writing
// that stream; the Write* half mirrors the encoding pkg/asm emits, and the
// Read* half (via a Cursor) is how pkg/vm and pkg/disasm consume it.
//
// The read/write style here - small named helpers wrapping encoding/binary,
// each returning a wrapped error that names what failed to decode - is
// carried over from the teacher's pkg/bytecode/format.go, whose .sg file
// format used the same shape of helper even though the overall layout
// (structured instructions + constant pool) differed.
package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteU32 writes a 4-byte little-endian unsigned integer.
func WriteU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteI32 writes a 4-byte little-endian signed integer, used for jump
// offsets.
func WriteI32(w io.Writer, v int32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteU64 writes an 8-byte little-endian unsigned integer.
func WriteU64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteI64 writes an 8-byte little-endian signed integer.
func WriteI64(w io.Writer, v int64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteF64 writes an 8-byte little-endian IEEE-754 double.
func WriteF64(w io.Writer, v float64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteByte writes a single byte, used for opcodes, type tags, and flags.
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// WriteString writes the length-prefixed UTF-8 payload spec.md §6.1
// describes: a 4-byte little-endian length followed by the raw bytes. It
// does NOT write the leading `utf8` type tag - callers that need the full
// `load_const` payload write that tag themselves first.
func WriteString(w io.Writer, s string) error {
	if err := WriteU32(w, uint32(len(s))); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	_, err := io.WriteString(w, s)
	return err
}

// identifierUtf8Tag and identifierU32Tag mirror pkg/opcode's TypeUtf8 (0x05)
// and TypeU32 (0x03). They are duplicated as raw byte literals rather than
// imported from pkg/opcode so this package stays a dependency-free leaf
// (pkg/opcode never needs to import pkg/bytecode, and keeping it that way
// avoids the two small packages growing a cycle later).
const (
	identifierUtf8Tag byte = 0x05
	identifierU32Tag  byte = 0x03
)

// WriteIdentifier writes the doubly-tagged string format spec.md §6.1
// describes for string operands embedded directly in the instruction
// stream (as opposed to strings that arrive via the operand stack):
// `utf8 u32 <4-byte length> <bytes>`. load_var, store_var,
// function_declaration, and struct_declaration all read their identifiers
// this way.
func WriteIdentifier(w io.Writer, s string) error {
	if err := WriteByte(w, identifierUtf8Tag); err != nil {
		return err
	}
	return WriteUtf8Payload(w, s)
}

// WriteUtf8Payload writes the `u32 <4-byte length> <bytes>` tail of a string
// operand, for callers (load_const's Utf8 case) that write the leading
// `utf8` type tag themselves as part of a different encoding step.
func WriteUtf8Payload(w io.Writer, s string) error {
	if err := WriteByte(w, identifierU32Tag); err != nil {
		return err
	}
	return WriteString(w, s)
}

// Cursor is a read-only view over a bytecode program with an explicit
// program counter. pkg/vm advances a Cursor's Pos field directly so jump
// instructions can relocate it; the decode helpers below always read from
// (and advance past) the current Pos.
type Cursor struct {
	Program []byte
	Pos     int
}

// NewCursor wraps a byte program for decoding starting at position 0.
func NewCursor(program []byte) *Cursor {
	return &Cursor{Program: program}
}

// Done reports whether the cursor has consumed the entire program.
func (c *Cursor) Done() bool {
	return c.Pos >= len(c.Program)
}

func (c *Cursor) need(n int) error {
	if c.Pos+n > len(c.Program) {
		return fmt.Errorf("unexpected end of bytecode at offset %d, need %d more byte(s)", c.Pos, n)
	}
	return nil
}

// ReadByte reads and advances past a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.Program[c.Pos]
	c.Pos++
	return b, nil
}

// ReadU32 reads a 4-byte little-endian unsigned integer.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.Program[c.Pos:])
	c.Pos += 4
	return v, nil
}

// ReadI32 reads a 4-byte little-endian signed integer, used for jump
// offsets.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadU64 reads an 8-byte little-endian unsigned integer.
func (c *Cursor) ReadU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.Program[c.Pos:])
	c.Pos += 8
	return v, nil
}

// ReadI64 reads an 8-byte little-endian signed integer.
func (c *Cursor) ReadI64() (int64, error) {
	v, err := c.ReadU64()
	return int64(v), err
}

// ReadF64 reads an 8-byte little-endian IEEE-754 double.
func (c *Cursor) ReadF64() (float64, error) {
	v, err := c.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadString reads a length-prefixed UTF-8 string (no leading type tag;
// callers that expect a `utf8` tag first must read and check it themselves).
func (c *Cursor) ReadString() (string, error) {
	n, err := c.ReadU32()
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if err := c.need(int(n)); err != nil {
		return "", fmt.Errorf("read string body: %w", err)
	}
	s := string(c.Program[c.Pos : c.Pos+int(n)])
	c.Pos += int(n)
	return s, nil
}

// ReadIdentifier reads the doubly-tagged string format written by
// WriteIdentifier: a `utf8` tag byte, a `u32` tag byte, then the usual
// length-prefixed string. It errors if either tag byte doesn't match,
// since a mismatch means the cursor has drifted out of sync with the
// instruction stream.
func (c *Cursor) ReadIdentifier() (string, error) {
	utf8Tag, err := c.ReadByte()
	if err != nil {
		return "", fmt.Errorf("read identifier utf8 tag: %w", err)
	}
	if utf8Tag != identifierUtf8Tag {
		return "", fmt.Errorf("read identifier: expected utf8 tag 0x%02X, got 0x%02X", identifierUtf8Tag, utf8Tag)
	}
	return c.ReadUtf8Payload()
}

// ReadUtf8Payload reads the `u32 <4-byte length> <bytes>` tail of a string
// operand, for callers that have already consumed the leading `utf8` type
// tag themselves - load_const's generic "read type tag, then the encoded
// value" step does exactly that before dispatching here for TypeUtf8.
func (c *Cursor) ReadUtf8Payload() (string, error) {
	u32Tag, err := c.ReadByte()
	if err != nil {
		return "", fmt.Errorf("read identifier u32 tag: %w", err)
	}
	if u32Tag != identifierU32Tag {
		return "", fmt.Errorf("read identifier: expected u32 tag 0x%02X, got 0x%02X", identifierU32Tag, u32Tag)
	}
	return c.ReadString()
}

// ReadBytes reads and returns a raw slice of n bytes, used for function and
// lambda bodies whose length is given up front.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative byte count %d", n)
	}
	if err := c.need(n); err != nil {
		return nil, fmt.Errorf("read %d raw byte(s): %w", n, err)
	}
	b := c.Program[c.Pos : c.Pos+n]
	c.Pos += n
	return b, nil
}

// Jump relocates the cursor by a signed offset relative to the current
// position, as jump/jump_if_false instructions do.
func (c *Cursor) Jump(offset int32) {
	c.Pos += int(offset)
}
