// Package engine implements the lifecycle dispatch engine.
//
// Given an instance and a lifecycle trigger, the dispatcher looks up the
// type's hook table, computes a change record from the instance's sparse
// snapshot, filters hooks through their effective conditions, and runs the
// eligible ones strictly in priority order.
//
// ARCHITECTURE:
//
// Deterministic Single-Pass Execution:
// Hooks for one dispatch run one at a time, in the registry's order
// (priority descending, declaration order ascending). There is no internal
// parallelism, so side-effect ordering is predictable and reproducible.
// Distinct instances may be dispatched concurrently by the host: the
// registry and watch sets are immutable after their one-time build, and the
// snapshot and suppression counter are exclusively owned by their instance.
//
// Fail-Fast Faults:
// A hook returning an error aborts the remaining hooks of that pass and
// propagates to the dispatch caller. A fault from a before-trigger is the
// persistence engine's signal to abort the write; a fault from an
// after-trigger arrives after the write already succeeded.
//
// Commit Deferral:
// Descriptors declared with DeferToCommit are not run during dispatch when
// a transaction is ambient; they are appended to the transaction's
// post-commit callbacks and never run if it rolls back. Without an ambient
// transaction they run in place, in the slot their ordering assigns.
//
// Sync/Async Contexts:
// Asynchronous hook bodies only run when dispatch is invoked in an
// asynchronous context; synchronous dispatch skips them silently. This is a
// documented policy trade-off carried over from the source behavior, not a
// technical necessity.
package engine
