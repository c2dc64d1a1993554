package engine

import (
	"errors"
	"fmt"

	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// HookError wraps a fault raised by a hook body. It aborts the remaining
// hooks of the dispatch pass and propagates to the dispatch caller; for
// commit-deferred hooks it surfaces when the transaction's callbacks run,
// outside the original call stack.
type HookError struct {
	Hook    string
	Trigger hook.Trigger
	Err     error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q (%s): %v", e.Hook, e.Trigger, e.Err)
}

// Unwrap returns the underlying fault.
func (e *HookError) Unwrap() error { return e.Err }

// IsHookError reports whether err is (or wraps) a HookError.
func IsHookError(err error) bool {
	var he *HookError
	return errors.As(err, &he)
}
