package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAssignsStableDistinctRefs(t *testing.T) {
	h := New()
	r1 := h.Append(&Object{Kind: KindString, Str: &StringObj{Text: "a"}})
	r2 := h.Append(&Object{Kind: KindString, Str: &StringObj{Text: "b"}})

	assert.NotEqual(t, r1, r2)
	assert.Equal(t, "a", h.Get(r1).Str.Text)
	assert.Equal(t, "b", h.Get(r2).Str.Text)
	assert.Equal(t, 2, h.Len())
}

func TestFreeNilsSlotWithoutReassigningIt(t *testing.T) {
	h := New()
	r := h.Append(&Object{Kind: KindString, Str: &StringObj{Text: "doomed"}})
	h.Free(r)

	assert.Nil(t, h.Get(r))

	// A later Append must not reuse r's slot for a different object; the
	// heap is append-only, so the next ref is always len(slots).
	r2 := h.Append(&Object{Kind: KindString, Str: &StringObj{Text: "new"}})
	assert.NotEqual(t, r, r2)
	assert.Nil(t, h.Get(r), "freed ref must stay nil even after further appends")
}

func TestGetOutOfRangeReturnsNil(t *testing.T) {
	h := New()
	assert.Nil(t, h.Get(Ref(0)))
	assert.Nil(t, h.Get(Ref(-1)))
}

func TestKindStringer(t *testing.T) {
	assert.Equal(t, "String", KindString.String())
	assert.Equal(t, "Vector", KindVector.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}
