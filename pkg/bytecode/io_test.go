package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Round-trip tests (spec.md §8: "round-trip string" property)
// ============================================================================

func TestWriteReadIdentifierRoundTrip(t *testing.T) {
	cases := []string{"", "x", "counter", "こんにちは", "with space"}

	for _, name := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteIdentifier(&buf, name))

		cur := NewCursor(buf.Bytes())
		got, err := cur.ReadIdentifier()
		require.NoError(t, err)
		assert.Equal(t, name, got)
		assert.True(t, cur.Done(), "cursor should be fully consumed")
	}
}

func TestWriteReadUtf8PayloadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUtf8Payload(&buf, "hello"))

	cur := NewCursor(buf.Bytes())
	got, err := cur.ReadUtf8Payload()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestReadIdentifierRejectsWrongTag(t *testing.T) {
	// A raw string payload (ReadString's format) has no leading utf8 tag, so
	// reading it as an identifier must fail rather than silently drift.
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "oops"))

	cur := NewCursor(buf.Bytes())
	_, err := cur.ReadIdentifier()
	assert.Error(t, err)
}

// ============================================================================
// Numeric round-trips
// ============================================================================

func TestNumericRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteI32(&buf, -7))
	require.NoError(t, WriteU32(&buf, 42))
	require.NoError(t, WriteI64(&buf, -9000000000))
	require.NoError(t, WriteU64(&buf, 9000000000))
	require.NoError(t, WriteF64(&buf, 3.5))
	require.NoError(t, WriteByte(&buf, 0xAB))

	cur := NewCursor(buf.Bytes())

	i32, err := cur.ReadI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i32)

	u32, err := cur.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), u32)

	i64, err := cur.ReadI64()
	require.NoError(t, err)
	assert.Equal(t, int64(-9000000000), i64)

	u64, err := cur.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(9000000000), u64)

	f64, err := cur.ReadF64()
	require.NoError(t, err)
	assert.InDelta(t, 3.5, f64, 0.0001)

	b, err := cur.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), b)

	assert.True(t, cur.Done())
}

// ============================================================================
// Cursor.Jump arithmetic (spec.md §8: "jump arithmetic" property)
// ============================================================================

func TestCursorJumpIsRelativeToPostOffsetPosition(t *testing.T) {
	cur := &Cursor{Program: make([]byte, 100), Pos: 20}
	cur.Jump(5)
	assert.Equal(t, 25, cur.Pos)

	cur.Jump(-10)
	assert.Equal(t, 15, cur.Pos)
}

func TestReadBytesErrorsPastEnd(t *testing.T) {
	cur := NewCursor([]byte{1, 2, 3})
	_, err := cur.ReadBytes(10)
	assert.Error(t, err)
}
