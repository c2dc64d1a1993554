// Package condition implements the boolean eligibility algebra for lifecycle
// hooks: primitive predicates over a change record, combined with AND, OR
// and NOT.
//
// Nodes are immutable values. Combinators return new nodes, so a condition
// built once at registration time can be shared by every instance of a type.
// Evaluation is pure and deterministic given a change record.
package condition

import (
	"fmt"
	"strings"

	"github.com/fieldwatch/fieldwatch/internal/field"
)

// Op tags the variant of a Node.
type Op int

const (
	// OpHasChanged is true iff the path changed since the snapshot.
	OpHasChanged Op = iota + 1
	// OpValueIs is true iff the current value equals the operand.
	OpValueIs
	// OpValueIsNot is the negation of OpValueIs.
	OpValueIsNot
	// OpValueWas is true iff the initial value equals the operand.
	OpValueWas
	// OpValueWasNot is the negation of OpValueWas.
	OpValueWasNot
	// OpValueChangesTo is true iff the path changed and the current value
	// equals the operand.
	OpValueChangesTo
	// OpAnd combines two children; short-circuits left to right.
	OpAnd
	// OpOr combines two children; short-circuits left to right.
	OpOr
	// OpNot inverts its child.
	OpNot
)

// Node is one vertex of a condition tree: either a predicate over a single
// watched path, or a combinator over child nodes. The zero value is not a
// valid node; use the constructors.
type Node struct {
	op          Op
	path        string
	value       any
	left, right *Node
}

// HasChanged matches when the path's value differs from its snapshot.
func HasChanged(path string) *Node {
	return &Node{op: OpHasChanged, path: path}
}

// ValueIs matches when the path's current value equals v. v must be a
// concrete value; wildcards exist only in the simple registration arguments.
func ValueIs(path string, v any) *Node {
	return &Node{op: OpValueIs, path: path, value: v}
}

// ValueIsNot matches when the path's current value does not equal v.
func ValueIsNot(path string, v any) *Node {
	return &Node{op: OpValueIsNot, path: path, value: v}
}

// ValueWas matches when the path's initial value equals v. Always false on
// an unsaved instance (the absent initial never equals a concrete value).
func ValueWas(path string, v any) *Node {
	return &Node{op: OpValueWas, path: path, value: v}
}

// ValueWasNot matches when the path's initial value does not equal v.
func ValueWasNot(path string, v any) *Node {
	return &Node{op: OpValueWasNot, path: path, value: v}
}

// ValueChangesTo matches when the path changed and now equals v.
func ValueChangesTo(path string, v any) *Node {
	return &Node{op: OpValueChangesTo, path: path, value: v}
}

// And returns a node matching when both n and other match.
func (n *Node) And(other *Node) *Node {
	return &Node{op: OpAnd, left: n, right: other}
}

// Or returns a node matching when either n or other matches.
func (n *Node) Or(other *Node) *Node {
	return &Node{op: OpOr, left: n, right: other}
}

// Not returns the inversion of n. Double negation collapses: n.Not().Not()
// returns n itself.
func (n *Node) Not() *Node {
	if n.op == OpNot {
		return n.left
	}
	return &Node{op: OpNot, left: n}
}

// Check evaluates the tree against a change record. AND and OR short-circuit
// left to right. Predicates over paths outside the record's watch set panic;
// registration-time validation makes that unreachable.
func (n *Node) Check(rec *field.ChangeRecord) bool {
	switch n.op {
	case OpAnd:
		return n.left.Check(rec) && n.right.Check(rec)
	case OpOr:
		return n.left.Check(rec) || n.right.Check(rec)
	case OpNot:
		return !n.left.Check(rec)
	}

	ch := rec.Lookup(n.path)
	switch n.op {
	case OpHasChanged:
		return ch.Changed
	case OpValueIs:
		return ch.Current.EqualValue(n.value)
	case OpValueIsNot:
		return !ch.Current.EqualValue(n.value)
	case OpValueWas:
		return ch.Initial.EqualValue(n.value)
	case OpValueWasNot:
		return !ch.Initial.EqualValue(n.value)
	case OpValueChangesTo:
		return ch.Changed && ch.Current.EqualValue(n.value)
	default:
		panic(fmt.Sprintf("condition: invalid op %d", n.op))
	}
}

// Paths returns every path referenced by a predicate in the tree, in
// first-appearance order with duplicates removed. The registry folds these
// into the owning type's watch set.
func (n *Node) Paths() []string {
	var out []string
	seen := make(map[string]bool)
	n.walk(func(p *Node) {
		if p.path != "" && !seen[p.path] {
			seen[p.path] = true
			out = append(out, p.path)
		}
	})
	return out
}

func (n *Node) walk(visit func(*Node)) {
	visit(n)
	if n.left != nil {
		n.left.walk(visit)
	}
	if n.right != nil {
		n.right.walk(visit)
	}
}

// String renders the tree for diagnostics, e.g.
// "(ChangesTo(status=shipped) AND Is(is_paid=true))".
func (n *Node) String() string {
	switch n.op {
	case OpAnd:
		return "(" + n.left.String() + " AND " + n.right.String() + ")"
	case OpOr:
		return "(" + n.left.String() + " OR " + n.right.String() + ")"
	case OpNot:
		return "NOT " + n.left.String()
	case OpHasChanged:
		return fmt.Sprintf("HasChanged(%s)", n.path)
	case OpValueIs:
		return fmt.Sprintf("Is(%s=%v)", n.path, n.value)
	case OpValueIsNot:
		return fmt.Sprintf("IsNot(%s=%v)", n.path, n.value)
	case OpValueWas:
		return fmt.Sprintf("Was(%s=%v)", n.path, n.value)
	case OpValueWasNot:
		return fmt.Sprintf("WasNot(%s=%v)", n.path, n.value)
	case OpValueChangesTo:
		return fmt.Sprintf("ChangesTo(%s=%v)", n.path, n.value)
	default:
		return "<invalid>"
	}
}

// Summary renders the tree truncated to max runes for tabular listings.
func (n *Node) Summary(max int) string {
	s := n.String()
	if max > 3 && len(s) > max {
		var b strings.Builder
		for i, r := range s {
			if i >= max-3 {
				break
			}
			b.WriteRune(r)
		}
		return b.String() + "..."
	}
	return s
}
