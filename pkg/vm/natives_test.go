package vm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/egovm/pkg/asm"
	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/natives"
	"github.com/kristofer/egovm/pkg/natives/timers"
	"github.com/kristofer/egovm/pkg/value"
)

// doubleModule is a tiny synchronous native module used to exercise the
// EngineNative call path without depending on pkg/natives/timers.
func doubleModule() *natives.Module {
	return &natives.Module{
		Name: "mathx",
		Members: []natives.Member{
			natives.Func("double", func(env heap.NativeEnv, self *uint64, args []value.Value, debug bool) (value.Value, error) {
				if len(args) != 1 || args[0].Kind != value.KindI32 {
					return value.Nothing, &natives.Error{Domain: "mathx", Err: assertArgErr}
				}
				return value.NewI32(args[0].I32 * 2), nil
			}),
		},
	}
}

var assertArgErr = assertArgError{}

type assertArgError struct{}

func (assertArgError) Error() string { return "mathx.double expects one i32 argument" }

func TestImportNativeModuleAndCallSyncFunction(t *testing.T) {
	program := asm.New().
		Import("mathx", nil).
		LoadUtf8("double").
		LoadVar("mathx").
		GetProperty().
		LoadI32(21).Call(1).
		Return().Bytes()

	m := New(WithRegistry(func() *natives.Registry {
		r := natives.NewRegistry()
		r.Register(doubleModule())
		return r
	}()))

	result, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, int32(42), result.Unwrap().I32)
}

func TestImportUnknownModuleFails(t *testing.T) {
	program := asm.New().Import("nope", nil).Return().Bytes()
	m := New()
	_, err := m.Run(context.Background(), program)
	require.Error(t, err)
	var notFound *ModuleNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestImportCustomModuleExposesExportedFields(t *testing.T) {
	moduleBody := asm.New().
		LoadI32(7).StoreVar(0, "answer").
		LoadUtf8("answer").Export().
		LoadI32(0).Return().Bytes()

	program := asm.New().
		Import("mod", moduleBody).
		LoadUtf8("answer").
		LoadVar("mod").
		GetProperty().
		Return().Bytes()

	m := New()
	result, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, int32(7), result.Unwrap().I32)
}

func TestAsyncNativeResolvesImmediatelyAndSchedulesCallback(t *testing.T) {
	callbackBody := asm.New().LoadI32(1).Return().Bytes()
	program := asm.New().
		Import("time", nil).
		LoadUtf8("timeout").
		LoadVar("time").
		GetProperty().
		LoadI32(5).
		LoadLambda(0, callbackBody).
		Call(2).
		Return().Bytes()

	m := New()
	m.Natives().Register(timers.Module())

	result, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	// timeout resolves synchronously with a handle to a TimerHandle, the
	// tick itself is delivered later through the event queue.
	assert.True(t, result.Unwrap().IsHandle())

	pumpCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = m.Pump(pumpCtx)
	assert.True(t, err == nil || pumpCtx.Err() != nil)
}

func TestFFICallWithNilHandlerIsNoOp(t *testing.T) {
	program := asm.New().LoadUtf8("arg").FFICall(1).Return().Bytes()
	m := New()
	result, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, value.KindNothing, result.Kind)
}

func TestFFICallInvokesHostHandlerWithRenderedArgs(t *testing.T) {
	program := asm.New().LoadUtf8("hello").LoadI32(3).FFICall(2).Return().Bytes()
	m := New()
	var gotArgs []string
	m.FFI = func(args []string) (value.Value, error) {
		gotArgs = args
		return value.NewUtf8("handled"), nil
	}

	result, err := m.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "3"}, gotArgs)
	assert.Equal(t, "handled", result.Utf8)
}
