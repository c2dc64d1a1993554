package hook

import (
	"context"

	"github.com/fieldwatch/fieldwatch/internal/field"
)

// Handler is a hook body bound to an instance at dispatch time. The two
// implementations are Func (synchronous) and AsyncFunc; which one a
// declaration uses determines the descriptor's async flag, mirroring how the
// body's calling convention - not a separate argument - decides it.
type Handler interface {
	// Invoke runs the hook body against an instance.
	Invoke(ctx context.Context, obj field.Object) error

	// Async reports whether the body may suspend. Async handlers are
	// skipped entirely when dispatch runs in a synchronous context.
	Async() bool
}

// Func is a synchronous hook body. It runs inline in both dispatch modes.
type Func func(ctx context.Context, obj field.Object) error

// Invoke implements Handler.
func (f Func) Invoke(ctx context.Context, obj field.Object) error { return f(ctx, obj) }

// Async implements Handler.
func (Func) Async() bool { return false }

// AsyncFunc is a hook body that may suspend (perform I/O, wait on external
// services). It only runs when dispatch happens in an asynchronous context;
// synchronous dispatch skips it without error - a documented trade-off, not
// a failure.
type AsyncFunc func(ctx context.Context, obj field.Object) error

// Invoke implements Handler.
func (f AsyncFunc) Invoke(ctx context.Context, obj field.Object) error { return f(ctx, obj) }

// Async implements Handler.
func (AsyncFunc) Async() bool { return true }

// Typed adapts a hook body over a concrete object type to a Func. Dispatch
// guarantees the instance is of the registered type, so the assertion holds
// by construction.
func Typed[T field.Object](fn func(ctx context.Context, obj T) error) Func {
	return func(ctx context.Context, obj field.Object) error {
		return fn(ctx, obj.(T))
	}
}

// TypedAsync is Typed for asynchronous bodies.
func TypedAsync[T field.Object](fn func(ctx context.Context, obj T) error) AsyncFunc {
	return func(ctx context.Context, obj field.Object) error {
		return fn(ctx, obj.(T))
	}
}
