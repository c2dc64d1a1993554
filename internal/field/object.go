package field

import "fmt"

// Separator splits the segments of a dotted watch path.
const Separator = "."

// Object is the minimal contract a persistent object must expose to the
// lifecycle engine. Implementations are plain structs with hand-written
// accessors - no reflection is consulted at dispatch time.
type Object interface {
	// Key returns the object's persistent identity, or "" if the object
	// has not been persisted yet.
	Key() string

	// FieldValue returns the current value of a scalar field by name.
	// ok is false if the name is not a scalar field of this object.
	FieldValue(name string) (value any, ok bool)

	// Relation returns the currently related object for a relation name.
	// ok is false if the name is not a relation. A relation that exists
	// but is unset returns (nil, true).
	Relation(name string) (related Object, ok bool)
}

// Schema describes the declarable surface of an object type: its scalar
// fields and its relations. It is the type-introspection collaborator used
// to validate watch paths when hooks are registered; it is never consulted
// during dispatch.
//
// Schemas may be cyclic (an author's articles relating back to the author);
// build them as package-level values and link relations in init functions
// when a cycle exists.
type Schema struct {
	// Name uniquely identifies the object type within a registry.
	Name string

	// Fields lists the declarable scalar field names.
	Fields []string

	// Relations maps relation names to the target type's schema.
	Relations map[string]*Schema
}

// HasField reports whether name is a declarable scalar field.
func (s *Schema) HasField(name string) bool {
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// ValidatePath checks a dotted watch path against the schema. Every
// intermediate segment must be a relation; the terminal segment must be a
// scalar field or a relation (watching a relation watches its identity).
func (s *Schema) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty watch path")
	}

	cur := s
	segs := splitPath(path)
	for i, seg := range segs {
		last := i == len(segs)-1
		if target, ok := cur.Relations[seg]; ok {
			if !last {
				cur = target
			}
			continue
		}
		if cur.HasField(seg) {
			if !last {
				return fmt.Errorf("path %q: segment %q of type %s is a scalar field, not a relation", path, seg, cur.Name)
			}
			continue
		}
		return fmt.Errorf("path %q: type %s has no field or relation %q", path, cur.Name, seg)
	}
	return nil
}
