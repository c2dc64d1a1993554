package hook

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// Property: for any sequence of priorities, the built table is sorted by
// priority descending with declaration order breaking ties, and rebuilding
// from the same declarations yields the identical sequence.
func TestBuildOrder_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		priorities := rapid.SliceOfN(rapid.IntRange(-5, 5), 1, 40).Draw(t, "priorities")

		build := func() []*Descriptor {
			r := NewRegistry()
			for i, p := range priorities {
				r.MustAdd(widgetSchema, fmt.Sprintf("h%03d", i), BeforeSave, Func(noop), WithPriority(p))
			}
			return r.Hooks("Widget", BeforeSave)
		}

		hooks := build()
		if len(hooks) != len(priorities) {
			t.Fatalf("built %d hooks from %d declarations", len(hooks), len(priorities))
		}

		for i := 1; i < len(hooks); i++ {
			prev, cur := hooks[i-1], hooks[i]
			if prev.Priority < cur.Priority {
				t.Fatalf("position %d: priority %d runs after %d", i, prev.Priority, cur.Priority)
			}
			if prev.Priority == cur.Priority && prev.Name >= cur.Name {
				t.Fatalf("position %d: tie between %s and %s not broken by declaration order", i, prev.Name, cur.Name)
			}
		}

		rebuilt := build()
		for i := range hooks {
			if hooks[i].Name != rebuilt[i].Name {
				t.Fatalf("rebuild diverged at %d: %s vs %s", i, hooks[i].Name, rebuilt[i].Name)
			}
		}
	})
}
