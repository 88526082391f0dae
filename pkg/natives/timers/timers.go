// Package timers implements the "time" native module: interval and timeout,
// the two asynchronous natives spec.md §4.7 names as the concrete
// instantiation of "long-running work that must not block the
// interpreter." It is this repository's one concrete native module,
// grounded on the teacher's own stdlib primitives (pkg/vm/primitives.go in
// kristofer-smog reaches for the standard `time` package for its date/time
// helpers) but restructured around the async-native + event-queue contract
// spec.md §4.5/§4.7 define rather than the teacher's synchronous-only
// primitive functions.
package timers

import (
	"context"
	"sync"
	"time"

	"github.com/kristofer/egovm/pkg/heap"
	"github.com/kristofer/egovm/pkg/natives"
	"github.com/kristofer/egovm/pkg/value"
)

// domain names every error this package produces for natives.Error.
const domain = "time"

// handle is the NativeStruct this module returns from both `interval` and
// `timeout`: a typed, host-provided controller. Bytecode sees only the
// read-only properties `kind` and `stopped`; cancellation is the Go method
// Stop (idempotent). There is no start: a stopped handle cannot be
// restarted.
type handle struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	kind    string // "interval" or "timeout"
	stopped bool
}

func (h *handle) PropertyAccess(name string) (value.Value, bool) {
	switch name {
	case "kind":
		return value.NewUtf8(h.kind), true
	case "stopped":
		h.mu.Lock()
		defer h.mu.Unlock()
		return value.NewBool(h.stopped), true
	default:
		return value.Nothing, false
	}
}

func (h *handle) ToString() string {
	return "<" + h.kind + " handle>"
}

func (h *handle) TypeName() string {
	return "TimerHandle"
}

// Stop cancels the handle's background task. Calling Stop on an
// already-stopped handle is a no-op (spec.md §4.7's cancellation is
// idempotent by construction: stopping removes the spawned tick task).
func (h *handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.cancel()
}

// Module builds the "time" native module. The returned module's two members,
// `interval` and `timeout`, are both asynchronous natives per spec.md §4.4.
func Module() *natives.Module {
	return &natives.Module{
		Name: "time",
		Members: []natives.Member{
			natives.AsyncFunc("interval", intervalFn),
			natives.AsyncFunc("timeout", timeoutFn),
		},
	}
}

// intervalFn schedules fn to be posted to the event queue every duration
// milliseconds until the returned handle's Stop is called. The async native
// resolves immediately with a NativeStruct handle - the repeated callback
// invocations happen later, one event per tick, exactly as spec.md §4.7
// describes: "stopping removes the spawned tick task," not the other way
// around (the call itself never "waits" for ticks).
func intervalFn(env heap.NativeEnv, self *uint64, args []value.Value, debug bool) (<-chan heap.NativeAsyncResult, error) {
	out := make(chan heap.NativeAsyncResult, 1)
	millis, fn, err := parseTimerArgs(args)
	if err != nil {
		out <- heap.NativeAsyncResult{Err: &natives.Error{Domain: domain, Err: err}}
		close(out)
		return out, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, kind: "interval"}
	notifier := env.Notify()

	go func() {
		ticker := time.NewTicker(time.Duration(millis) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Best-effort delivery: a full queue drops this tick rather
				// than blocking the timer goroutine forever, matching
				// spec.md §6.3's "Backpressure is best-effort."
				_ = notifier.Send(fn)
			}
		}
	}()

	hv := env.Alloc(heap.Object{Kind: heap.KindNativeStruct, Native: h})
	out <- heap.NativeAsyncResult{Value: value.NewHandle(hv)}
	close(out)
	return out, nil
}

// timeoutFn schedules fn to be posted to the event queue once, after
// duration milliseconds, then self-terminates its background task (spec.md
// §4.7: "A timeout's one-shot task completes and self-terminates").
func timeoutFn(env heap.NativeEnv, self *uint64, args []value.Value, debug bool) (<-chan heap.NativeAsyncResult, error) {
	out := make(chan heap.NativeAsyncResult, 1)
	millis, fn, err := parseTimerArgs(args)
	if err != nil {
		out <- heap.NativeAsyncResult{Err: &natives.Error{Domain: domain, Err: err}}
		close(out)
		return out, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, kind: "timeout"}
	notifier := env.Notify()

	go func() {
		timer := time.NewTimer(time.Duration(millis) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			_ = notifier.Send(fn)
			h.Stop()
		}
	}()

	hv := env.Alloc(heap.Object{Kind: heap.KindNativeStruct, Native: h})
	out <- heap.NativeAsyncResult{Value: value.NewHandle(hv)}
	close(out)
	return out, nil
}

func parseTimerArgs(args []value.Value) (int64, value.Value, error) {
	if len(args) < 2 {
		return 0, value.Nothing, &natives.Error{Domain: domain, Err: errInvalidArgsCount(2, len(args))}
	}
	millis, err := asMillis(args[0])
	if err != nil {
		return 0, value.Nothing, err
	}
	return millis, args[1], nil
}

func asMillis(v value.Value) (int64, error) {
	switch v.Kind {
	case value.KindI32:
		return int64(v.I32), nil
	case value.KindI64:
		return v.I64, nil
	case value.KindU32:
		return int64(v.U32), nil
	case value.KindU64:
		return int64(v.U64), nil
	default:
		return 0, errInvalidDuration(v.Kind.String())
	}
}
