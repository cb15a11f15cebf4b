// Package weave implements the Causal Tree Weave: a convergent replicated data
// type representing an ordered collaborative document as a causal tree of atoms,
// linearized into a deterministic total order.
//
// Based on the causal tree structure proposed by Victor Grishchenko, following
// the explanation by Archagon (http://archagon.net/blog/2018/03/24/data-laced-with-history/),
// as implemented by github.com/brunokim/causal-tree.
package weave

import "fmt"

// SiteID identifies a replica. Sites are small integers assigned by an external
// collaborator (site-UUID directory, transport, etc.); the core never looks past
// the integer.
type SiteID uint32

// YarnIndex is a per-site sequence number: the position of an atom within the
// yarn (ordered sequence of atoms) created by its owning site.
type YarnIndex uint32

// Clock is a monotonic hint attached to an atom at creation time. It is
// informational only; the core never relies on it for ordering.
type Clock uint32

// ControlSite owns the start and end atoms. A real replica may also be
// assigned this SiteID (e.g. the first entry in a sorted site directory);
// its own atoms simply extend the same yarn after the two control atoms,
// which the yarn cache treats like any other append.
const ControlSite SiteID = 0

// InvalidSite and InvalidIndex together form NullAtomID.
const (
	InvalidSite  SiteID    = 1<<32 - 1
	InvalidIndex YarnIndex = 1<<32 - 1
)

// StartClock and EndClock are the reserved clocks of the start and end atoms.
const (
	StartClock Clock = 0
	EndClock   Clock = 1
)

// AtomID uniquely identifies an atom by the site that created it and its
// position in that site's yarn.
type AtomID struct {
	Site  SiteID
	Index YarnIndex
}

// NullAtomID represents the absence of an atom reference (no cause, no
// reference link).
var NullAtomID = AtomID{Site: InvalidSite, Index: InvalidIndex}

// StartAtomID and EndAtomID are the two atoms present in every weave.
var (
	StartAtomID = AtomID{Site: ControlSite, Index: 0}
	EndAtomID   = AtomID{Site: ControlSite, Index: 1}
)

// IsNull reports whether id is the null atom ID.
func (id AtomID) IsNull() bool {
	return id == NullAtomID
}

func (id AtomID) String() string {
	if id.IsNull() {
		return "null"
	}
	return fmt.Sprintf("(%d,%d)", id.Site, id.Index)
}

// Less returns the lexicographic order on AtomID: site ascending, then index
// ascending. This is the canonical order of the unparented region (§4.4).
func (id AtomID) Less(other AtomID) bool {
	if id.Site != other.Site {
		return id.Site < other.Site
	}
	return id.Index < other.Index
}

// unparentedAtomOrder reports whether a must precede b in the unparented
// region.
func unparentedAtomOrder(a, b AtomID) bool {
	return a.Less(b)
}

// Weft is a mapping from SiteID to the highest YarnIndex known for that site;
// it encodes a causal frontier. Wefts form a join-semilattice under pointwise
// max.
type Weft map[SiteID]YarnIndex

// NewWeft returns an empty weft.
func NewWeft() Weft {
	return make(Weft)
}

// Update sets weft[site] to the maximum of its current value and index.
func (w Weft) Update(site SiteID, index YarnIndex) {
	if cur, ok := w[site]; !ok || index > cur {
		w[site] = index
	}
}

// UpdateAtom is shorthand for Update(id.Site, id.Index).
func (w Weft) UpdateAtom(id AtomID) {
	if id.IsNull() {
		return
	}
	w.Update(id.Site, id.Index)
}

// Includes reports whether the weft includes the given atom ID. The null
// atom ID is included by every weft.
func (w Weft) Includes(id AtomID) bool {
	if id.IsNull() {
		return true
	}
	index, ok := w[id.Site]
	return ok && index >= id.Index
}

// Equal reports whether w and other contain the same site/index pairs.
func (w Weft) Equal(other Weft) bool {
	if len(w) != len(other) {
		return false
	}
	for site, index := range w {
		if otherIndex, ok := other[site]; !ok || otherIndex != index {
			return false
		}
	}
	return true
}

// LessEq reports whether w is pointwise less-than-or-equal to other, i.e.
// whether other is a superset of the atoms w includes.
func (w Weft) LessEq(other Weft) bool {
	for site, index := range w {
		if otherIndex, ok := other[site]; !ok || otherIndex < index {
			return false
		}
	}
	return true
}

// Dominates reports whether w is a pointwise superset of other (other.LessEq(w)).
func (w Weft) Dominates(other Weft) bool {
	return other.LessEq(w)
}

// Less is the tiebreak proxy described in §4.1: a lexicographic comparison
// over sites sorted by ID, used only to break ties between concurrent wefts
// that are otherwise incomparable under the partial order. A site missing
// from a weft sorts before any index present for that site.
func (w Weft) Less(other Weft) bool {
	sites := make(map[SiteID]bool, len(w)+len(other))
	for site := range w {
		sites[site] = true
	}
	for site := range other {
		sites[site] = true
	}
	ordered := make([]SiteID, 0, len(sites))
	for site := range sites {
		ordered = append(ordered, site)
	}
	sortSites(ordered)
	for _, site := range ordered {
		a, aok := w[site]
		b, bok := other[site]
		if aok != bok {
			return !aok
		}
		if a != b {
			return a < b
		}
	}
	return false
}

// Clone returns an independent copy of w.
func (w Weft) Clone() Weft {
	c := make(Weft, len(w))
	for site, index := range w {
		c[site] = index
	}
	return c
}

func sortSites(sites []SiteID) {
	// Insertion sort: the number of sites in a weave is expected to be small.
	for i := 1; i < len(sites); i++ {
		for j := i; j > 0 && sites[j] < sites[j-1]; j-- {
			sites[j], sites[j-1] = sites[j-1], sites[j]
		}
	}
}

// moreAware reports whether the atom with awareness `a` is to be considered
// more aware than the atom with awareness `b`, for the purposes of the
// canonical sibling order (§4.4). When neither weft dominates the other
// (concurrent atoms that never observed each other), the lexicographic tiebreak
// in Weft.Less is used so that the comparison remains a strict, deterministic
// total order.
func moreAware(a, b Weft) bool {
	aDominates := a.Dominates(b)
	bDominates := b.Dominates(a)
	switch {
	case aDominates && !bDominates:
		return true
	case bDominates && !aDominates:
		return false
	default:
		return b.Less(a)
	}
}
