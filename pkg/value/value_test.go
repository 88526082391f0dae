package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapResolvesBoundAccess(t *testing.T) {
	inner := NewI32(7)
	bound := NewBoundAccess(42, inner)

	assert.Equal(t, inner, bound.Unwrap())
	assert.Equal(t, NewI32(7), NewI32(7).Unwrap(), "unwrapping a non-BoundAccess is a no-op")
}

func TestAsBoolUnwrapsFirst(t *testing.T) {
	bound := NewBoundAccess(1, NewBool(true))
	b, err := bound.AsBool()
	assert.NoError(t, err)
	assert.True(t, b)

	_, err = NewI32(1).AsBool()
	assert.Error(t, err)
}

func TestIsNumeric(t *testing.T) {
	numeric := []Value{NewI32(1), NewI64(1), NewU32(1), NewU64(1), NewF64(1)}
	for _, v := range numeric {
		assert.True(t, v.IsNumeric(), "%s should be numeric", v.Kind)
	}

	nonNumeric := []Value{Nothing, NewBool(true), NewUtf8("x"), NewHandle(1)}
	for _, v := range nonNumeric {
		assert.False(t, v.IsNumeric(), "%s should not be numeric", v.Kind)
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nothing, "nothing"},
		{NewBool(true), "true"},
		{NewBool(false), "false"},
		{NewI32(-3), "-3"},
		{NewU64(9), "9"},
		{NewUtf8("hi"), "hi"},
		{NewHandle(5), "<handle #5>"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.String())
	}
}

func TestIsHandle(t *testing.T) {
	assert.True(t, NewHandle(1).IsHandle())
	assert.False(t, NewI32(1).IsHandle())
}
