package vm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
	"github.com/kristofer/egovm/pkg/natives/timers"
)

// TestRunReturnsWithoutErrorWithATimeoutPending exercises Run's
// non-blocking drainEvents pass with a 1 ms timeout scheduled: Run must
// return without error whether or not the timeout's event has arrived yet.
// A bounded Pump afterwards gives the callback its chance to run; its
// outcome is not asserted.
func TestRunReturnsWithoutErrorWithATimeoutPending(t *testing.T) {
	callbackBody := asm.New().LoadI32(1).Return().Bytes()
	program := asm.New().
		Import("time", nil).
		LoadUtf8("timeout").
		LoadVar("time").
		GetProperty().
		LoadI32(1).
		LoadLambda(0, callbackBody).
		Call(2).
		Drop().
		LoadI32(0).
		Return().Bytes()

	m := New()
	m.Natives().Register(timers.Module())

	// Bytecode cannot sleep until the timer fires, so this asserts only that
	// Run (including drainEvents) does not error when the event may not have
	// arrived yet; the bounded Pump below then lets the delayed callback run,
	// without asserting on it.
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)

	pumpCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = m.Pump(pumpCtx)
}

// TestPumpStopsWhenContextCanceled ensures a host's Pump call returns
// instead of blocking forever once its context is done, even with no
// events ever arriving.
func TestPumpStopsWhenContextCanceled(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Pump(ctx)
	assert.Error(t, err, "Pump must return once its context is canceled, not block forever")
}

// TestEventCallbackRunsInItsOwnFrame ensures handleEvent's "event callback"
// frame does not leak into the names visible to later top-level code.
func TestEventCallbackRunsInItsOwnFrame(t *testing.T) {
	callbackBody := asm.New().
		LoadI32(99).StoreVar(0, "leaked").
		LoadI32(0).Return().Bytes()
	program := asm.New().
		Import("time", nil).
		LoadUtf8("timeout").
		LoadVar("time").
		GetProperty().
		LoadI32(1).
		LoadLambda(0, callbackBody).
		Call(2).
		Drop().
		LoadI32(0).
		Return().Bytes()

	m := New()
	m.Natives().Register(timers.Module())
	_, err := m.Run(context.Background(), program)
	require.NoError(t, err)

	pumpCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = m.Pump(pumpCtx)

	_, ok := m.frames.Lookup("leaked")
	assert.False(t, ok, "a callback's bindings must not escape into the frame stack visible after it returns")
	assert.Equal(t, 1, m.frames.Depth(), "only the top-level frame remains once the callback's own frame is popped")
}
