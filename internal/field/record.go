package field

import "fmt"

// Snapshot is the sparse per-instance record of initial resolutions, keyed
// by watched path. It contains entries for exactly the owning type's watch
// set - no more, no less.
type Snapshot map[string]Resolution

// CaptureSnapshot resolves every watched path against the object's current
// state and returns a fresh snapshot.
func CaptureSnapshot(obj Object, paths []string) Snapshot {
	snap := make(Snapshot, len(paths))
	for _, p := range paths {
		snap[p] = Resolve(obj, p)
	}
	return snap
}

// Change is the per-path entry of a ChangeRecord.
type Change struct {
	Initial Resolution
	Current Resolution
	Changed bool
}

// ChangeRecord is the ephemeral per-dispatch view of (initial, current,
// changed) for every watched path. It is computed on demand and never
// persisted.
type ChangeRecord struct {
	changes map[string]Change
}

// BuildRecord computes a change record for the given paths from the
// instance's snapshot and its current field values. A nil snapshot (unsaved
// instance) makes every initial resolution Absent, so concrete current
// values read as changed.
func BuildRecord(obj Object, paths []string, snap Snapshot) *ChangeRecord {
	changes := make(map[string]Change, len(paths))
	for _, p := range paths {
		initial := snap[p] // zero value is Absent
		current := Resolve(obj, p)
		changes[p] = Change{
			Initial: initial,
			Current: current,
			Changed: Changed(initial, current),
		}
	}
	return &ChangeRecord{changes: changes}
}

// Lookup returns the change entry for a path.
//
// Every path a registered hook can reference is validated into the watch set
// at registration time, so a miss here is an internal invariant violation,
// not a user error - it panics rather than degrading silently.
func (r *ChangeRecord) Lookup(path string) Change {
	c, ok := r.changes[path]
	if !ok {
		panic(fmt.Sprintf("field: path %q absent from change record; registration-time validation should make this unreachable", path))
	}
	return c
}

// Has reports whether the record tracks a path.
func (r *ChangeRecord) Has(path string) bool {
	_, ok := r.changes[path]
	return ok
}

// Len returns the number of tracked paths.
func (r *ChangeRecord) Len() int {
	return len(r.changes)
}
