package weave

import "fmt"

// AtomType is a closed, tagged set of atom kinds. Each value precomputes the
// three boolean facets that drive ordering and validation, rather than being
// expressed through a polymorphic object.
type AtomType uint8

const (
	// AtomStart is the single root atom of the tree region.
	AtomStart AtomType = iota
	// AtomEnd marks the start of the unparented region.
	AtomEnd
	// AtomNone is a regular tree atom (e.g. an inserted character).
	AtomNone
	// AtomDelete is a tombstone atom: its cause is the deleted atom.
	AtomDelete
	// AtomCommit is an unparented "weak" synchronization link, recording that
	// one site has observed another's yarn up to some point.
	AtomCommit
)

func (t AtomType) String() string {
	switch t {
	case AtomStart:
		return "start"
	case AtomEnd:
		return "end"
	case AtomNone:
		return "none"
	case AtomDelete:
		return "delete"
	case AtomCommit:
		return "commit"
	default:
		return fmt.Sprintf("AtomType(%d)", uint8(t))
	}
}

// Unparented reports whether atoms of this type live in the unparented
// region (commit and end atoms).
func (t AtomType) Unparented() bool {
	return t == AtomCommit || t == AtomEnd
}

// Childless reports whether atoms of this type can never have children
// (delete and end atoms).
func (t AtomType) Childless() bool {
	return t == AtomDelete || t == AtomEnd
}

// Priority reports whether atoms of this type are ordered before all
// non-priority siblings (delete atoms).
func (t AtomType) Priority() bool {
	return t == AtomDelete
}

// Atom is the immutable unit of the causal tree. V is the opaque value
// payload type: the only capability the core requires of V is that it be
// comparable, so that atom equality (used by the merge engine) and a zero
// value (used for the control atoms) are well defined. Serialization of V is
// the caller's concern, not the core's.
type Atom[V comparable] struct {
	// ID is the unique identifier of this atom.
	ID AtomID
	// Cause is the parent in the causal tree; NullAtomID for unparented atoms.
	Cause AtomID
	// Clock is an informational Lamport-style hint.
	Clock Clock
	// Value is the user payload, opaque to the core.
	Value V
	// Reference is an optional non-causal "weak" link (e.g. a commit target).
	Reference AtomID
	// Type determines this atom's ordering and validation facets.
	Type AtomType
}

func (a Atom[V]) String() string {
	return fmt.Sprintf("Atom{%v, cause=%v, type=%v, value=%v}", a.ID, a.Cause, a.Type, a.Value)
}

// siblingOrderBefore implements the canonical sibling order of §4.4, given an explicit
// "a is more aware than other" flag computed by the caller from the atoms'
// respective awareness wefts (see moreAware).
func (a Atom[V]) siblingOrderBefore(other Atom[V], aMoreAware bool) bool {
	if a.ID == other.ID {
		return false
	}
	aPriority, otherPriority := a.Type.Priority(), other.Type.Priority()
	if aPriority != otherPriority {
		return aPriority
	}
	return aMoreAware
}
