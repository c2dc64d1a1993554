package field

import (
	"reflect"
	"strings"
)

// Resolution is the observed state of one watched path at one point in time.
type Resolution struct {
	// Value is the terminal value. For a path ending on a relation it is
	// the related object's key.
	Value any

	// Owner is the key of the object that owns the terminal segment.
	// Identity changes along the path surface here even when Value is
	// unchanged.
	Owner string

	// Reachable is false when a relation hop along the path was unset or
	// the terminal segment did not resolve. An unreachable resolution is
	// the absent sentinel: it never equals any concrete value.
	Reachable bool
}

// Absent is the resolution of a path that could not be reached, and the
// implicit initial state of every watched path on an unsaved instance.
var Absent = Resolution{}

// Resolve traverses a dotted path from root and returns the terminal
// resolution. A nil relation anywhere along the path yields Absent rather
// than an error; watch conditions treat that as "no value".
func Resolve(root Object, path string) Resolution {
	cur := root
	segs := splitPath(path)
	for i, seg := range segs {
		last := i == len(segs)-1

		if related, ok := cur.Relation(seg); ok {
			if related == nil {
				return Absent
			}
			if last {
				// Watching a relation watches its identity.
				return Resolution{Value: related.Key(), Owner: cur.Key(), Reachable: true}
			}
			cur = related
			continue
		}

		if !last {
			// Scalar (or unknown) segment mid-path: nothing beyond it.
			return Absent
		}
		v, ok := cur.FieldValue(seg)
		if !ok {
			return Absent
		}
		return Resolution{Value: v, Owner: cur.Key(), Reachable: true}
	}
	return Absent
}

// Equal reports whether two field values compare equal. Deep equality is
// used so slice- and struct-valued fields behave sensibly; values of
// different dynamic types are never equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

// EqualValue reports whether a resolution holds a concrete value equal to v.
// Always false for an absent resolution.
func (r Resolution) EqualValue(v any) bool {
	return r.Reachable && Equal(r.Value, v)
}

// Changed reports whether the path's state moved between two resolutions.
// Reachability transitions, identity changes of the terminal owner, and
// value inequality all count.
func Changed(initial, current Resolution) bool {
	if initial.Reachable != current.Reachable {
		return true
	}
	if !initial.Reachable {
		return false
	}
	if initial.Owner != current.Owner {
		return true
	}
	return !Equal(initial.Value, current.Value)
}

func splitPath(path string) []string {
	return strings.Split(path, Separator)
}
