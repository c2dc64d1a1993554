// Package field implements the watched-field layer of the lifecycle engine:
// dotted path resolution across object graphs, sparse per-instance snapshots,
// and the change records that condition evaluation runs against.
//
// ARCHITECTURE:
//
// Sparse Snapshots:
// A snapshot holds entries for exactly the paths a type's registry watches -
// never the whole object. Snapshot size is O(watched paths), not O(fields).
//
// Relation Identity:
// A resolution carries the key of the object that owns the terminal segment.
// Swapping a related object for a different one with identical scalar values
// still counts as a change (identity is part of the watched state).
//
// Absent Sentinel:
// An unreachable resolution (nil relation hop, unsaved instance with no
// snapshot) is represented by Reachable=false. An absent value never equals
// any concrete value, so Was-style matches fail and HasChanged reports true
// whenever the current value is concrete.
//
// The resolver is pure with respect to the object graph at the moment it
// runs; it performs no writes and no reflection.
package field
