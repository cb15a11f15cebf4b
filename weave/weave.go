package weave

import (
	"sort"
	"unsafe"
)

// Weave is a replicated ordered-document CvRDT: the canonical linearization of
// a causal tree of atoms, with O(1)/O(N) supporting indices.
//
// A Weave is a single-writer-per-replica structure (§5): only the owning
// replica's goroutine should call the mutating methods (AddAtom, DeleteAtom,
// AddCommit, Integrate, RemapIndices). Concurrency between replicas is
// expressed only through Integrate, never through shared memory.
type Weave[V comparable] struct {
	owner SiteID

	// atoms is the canonical linearization: atoms[0:boundary) is the tree
	// region, atoms[boundary:] is the unparented region.
	atoms    []Atom[V]
	boundary int

	weft  Weft
	cache yarnCache[V]

	// index is the auxiliary AtomID -> weave-index map: AtomWeaveIndex is O(1)
	// here, maintained on every mutation and merge. Validate() deliberately
	// does not trust it: it re-derives structure by independent means so a
	// corrupted index cannot mask a corrupted weave.
	index map[AtomID]int
}

// New creates a Weave seeded with the start and end atoms, owned by owner.
func New[V comparable](owner SiteID) *Weave[V] {
	w := &Weave[V]{
		owner: owner,
		weft:  NewWeft(),
		cache: newYarnCache[V](),
		index: make(map[AtomID]int),
	}
	start := Atom[V]{ID: StartAtomID, Cause: StartAtomID, Type: AtomStart, Clock: StartClock, Reference: NullAtomID}
	end := Atom[V]{ID: EndAtomID, Cause: NullAtomID, Type: AtomEnd, Clock: EndClock, Reference: NullAtomID}
	w.atoms = []Atom[V]{start, end}
	w.boundary = 1
	w.cache.append(start)
	w.cache.append(end)
	w.weft.UpdateAtom(start.ID)
	w.weft.UpdateAtom(end.ID)
	w.index[start.ID] = 0
	w.index[end.ID] = 1
	return w
}

// FromSerialized rebuilds a Weave's caches from a previously-serialized atom
// sequence, preserving weave order verbatim. It does not validate; call
// Validate explicitly if the source is untrusted.
func FromSerialized[V comparable](owner SiteID, atoms []Atom[V]) *Weave[V] {
	w := &Weave[V]{
		owner: owner,
		atoms: make([]Atom[V], len(atoms)),
		weft:  NewWeft(),
		cache: newYarnCache[V](),
		index: make(map[AtomID]int, len(atoms)),
	}
	copy(w.atoms, atoms)
	byID := make([]Atom[V], len(atoms))
	copy(byID, atoms)
	sort.Slice(byID, func(i, j int) bool { return byID[i].ID.Less(byID[j].ID) })
	for _, atom := range byID {
		w.cache.append(atom)
		w.weft.UpdateAtom(atom.ID)
	}
	for i, atom := range w.atoms {
		w.index[atom.ID] = i
		if !atom.Type.Unparented() {
			w.boundary = i + 1
		}
	}
	return w
}

// Owner returns the SiteID this weave instance writes as.
func (w *Weave[V]) Owner() SiteID { return w.owner }

// Atoms returns the canonical linearization. The returned slice aliases the
// weave's internal storage and must not be mutated.
func (w *Weave[V]) Atoms() []Atom[V] { return w.atoms }

// CompleteWeft returns the weft covering every atom known to this weave.
func (w *Weave[V]) CompleteWeft() Weft { return w.weft.Clone() }

// Superset reports whether w's weft pointwise dominates other's.
func (w *Weave[V]) Superset(other *Weave[V]) bool {
	return w.weft.Dominates(other.weft)
}

// AtomForID resolves an atom by ID in O(1).
func (w *Weave[V]) AtomForID(id AtomID) (Atom[V], bool) {
	return w.cache.atomForID(id)
}

// AtomYarnsIndex returns id's position in its site's flat yarn storage, O(1).
func (w *Weave[V]) AtomYarnsIndex(id AtomID) (int, bool) {
	return w.cache.atomYarnsIndex(id)
}

// AtomWeaveIndex returns id's position in the canonical weave, O(1) via the
// auxiliary index.
func (w *Weave[V]) AtomWeaveIndex(id AtomID) (int, bool) {
	if id.IsNull() {
		return 0, false
	}
	i, ok := w.index[id]
	return i, ok
}

// atomWeaveIndexScan re-derives an atom's weave position by linear scan,
// independent of the maintained index. Used only by Validate.
func (w *Weave[V]) atomWeaveIndexScan(id AtomID) (int, bool) {
	for i, atom := range w.atoms {
		if atom.ID == id {
			return i, true
		}
	}
	return 0, false
}

// LastSiteAtomYarnsIndex returns the highest YarnIndex known for site.
func (w *Weave[V]) LastSiteAtomYarnsIndex(site SiteID) (YarnIndex, bool) {
	return w.cache.lastSiteAtomYarnsIndex(site)
}

// Yarn returns site's atoms in increasing YarnIndex order.
func (w *Weave[V]) Yarn(site SiteID) []Atom[V] {
	return w.cache.yarn(site)
}

// SizeInBytes estimates the memory footprint of the weave's atom storage: the
// canonical array plus the parallel yarn cache, which both alias the same
// atoms but are independently allocated slices, plus a rough per-entry
// estimate for the weave-index map and the weft.
func (w *Weave[V]) SizeInBytes() int {
	var zero Atom[V]
	atomSize := int(unsafe.Sizeof(zero))
	return atomSize*(len(w.atoms)+len(w.cache.yarns)) + len(w.index)*24 + len(w.weft)*8
}

// ----

func (w *Weave[V]) insertAt(idx int, atom Atom[V]) {
	w.atoms = append(w.atoms, Atom[V]{})
	copy(w.atoms[idx+1:], w.atoms[idx:])
	w.atoms[idx] = atom
	for id, i := range w.index {
		if i >= idx {
			w.index[id] = i + 1
		}
	}
	w.index[atom.ID] = idx
	w.cache.append(atom)
	w.weft.UpdateAtom(atom.ID)
}

// siblingSites returns the distinct sites (other than exclude) that have
// created a child of cause, in the order first encountered in the weave.
func (w *Weave[V]) siblingSites(cause AtomID, exclude SiteID) []SiteID {
	seen := map[SiteID]bool{exclude: true}
	var sites []SiteID
	for _, atom := range w.atoms {
		if atom.Cause == cause && atom.ID != cause && !seen[atom.ID.Site] {
			seen[atom.ID.Site] = true
			sites = append(sites, atom.ID.Site)
		}
	}
	return sites
}

// ownerAwareness returns the awareness weft of the owner's most recently
// created atom, or an empty weft if the owner has not created any atom yet.
func (w *Weave[V]) ownerAwareness() Weft {
	last, ok := w.cache.lastSiteAtomYarnsIndex(w.owner)
	if !ok {
		return NewWeft()
	}
	aw, ok := w.AwarenessWeft(AtomID{Site: w.owner, Index: last})
	if !ok {
		return NewWeft()
	}
	return aw
}

// AddAtom appends value as a new child of cause, owned by this weave's site.
// Before allocating the new atom, it synthesizes an AddCommit from the owner
// to every sibling site it is not already aware of (§4.3), so that the new
// atom's awareness dominates known sibling yarns and merges elsewhere
// converge deterministically.
func (w *Weave[V]) AddAtom(value V, cause AtomID, clock Clock) (AtomID, bool) {
	if !cause.IsNull() {
		ci, ok := w.AtomWeaveIndex(cause)
		if !ok {
			return AtomID{}, false
		}
		if w.atoms[ci].Type.Childless() {
			return AtomID{}, false
		}
	}

	aware := w.ownerAwareness()
	for _, site := range w.siblingSites(cause, w.owner) {
		last, ok := w.cache.lastSiteAtomYarnsIndex(site)
		if !ok {
			continue
		}
		if aware.Includes(AtomID{Site: site, Index: last}) {
			continue
		}
		w.AddCommit(w.owner, site, clock)
	}

	var idx YarnIndex
	if last, ok := w.cache.lastSiteAtomYarnsIndex(w.owner); ok {
		idx = last + 1
	}
	id := AtomID{Site: w.owner, Index: idx}
	atom := Atom[V]{ID: id, Cause: cause, Clock: clock, Value: value, Reference: NullAtomID, Type: AtomNone}
	if err := w.integrate(atom); err != nil {
		return AtomID{}, false
	}
	return id, true
}

// DeleteAtom appends a tombstone atom whose cause is target. target must
// currently be of type AtomNone; the target remains in the weave as a
// tombstone.
func (w *Weave[V]) DeleteAtom(target AtomID, clock Clock) (AtomID, bool) {
	ti, ok := w.AtomWeaveIndex(target)
	if !ok {
		return AtomID{}, false
	}
	if w.atoms[ti].Type != AtomNone {
		return AtomID{}, false
	}

	var idx YarnIndex
	if last, ok := w.cache.lastSiteAtomYarnsIndex(w.owner); ok {
		idx = last + 1
	}
	id := AtomID{Site: w.owner, Index: idx}
	var zero V
	atom := Atom[V]{ID: id, Cause: target, Clock: clock, Value: zero, Reference: NullAtomID, Type: AtomDelete}
	if err := w.integrate(atom); err != nil {
		return AtomID{}, false
	}
	return id, true
}

// AddCommit appends an unparented atom recording that fromSite has observed
// toSite's yarn up to its current tail. It fails if fromSite == toSite or if
// toSite has not created any atom yet.
func (w *Weave[V]) AddCommit(fromSite, toSite SiteID, clock Clock) (AtomID, bool) {
	if fromSite == toSite {
		return AtomID{}, false
	}
	lastTo, ok := w.cache.lastSiteAtomYarnsIndex(toSite)
	if !ok {
		return AtomID{}, false
	}
	ref := AtomID{Site: toSite, Index: lastTo}

	var idx YarnIndex
	if last, ok := w.cache.lastSiteAtomYarnsIndex(fromSite); ok {
		idx = last + 1
	}
	id := AtomID{Site: fromSite, Index: idx}
	var zero V
	atom := Atom[V]{ID: id, Cause: NullAtomID, Clock: clock, Value: zero, Reference: ref, Type: AtomCommit}
	if err := w.integrate(atom); err != nil {
		return AtomID{}, false
	}
	return id, true
}

// integrate places a freshly-created atom into the weave (§4.3).
func (w *Weave[V]) integrate(atom Atom[V]) error {
	if atom.Type.Unparented() {
		if !atom.Cause.IsNull() {
			return ErrUnparentedAtomHasCause
		}
		i := w.boundary
		for i < len(w.atoms) && unparentedAtomOrder(w.atoms[i].ID, atom.ID) {
			i++
		}
		w.insertAt(i, atom)
		return nil
	}

	if atom.Cause.IsNull() {
		return ErrCauseNotFound
	}
	ci, ok := w.AtomWeaveIndex(atom.Cause)
	if !ok {
		return ErrCauseNotFound
	}
	if w.atoms[ci].Type.Childless() {
		return ErrChildlessCause
	}
	w.insertAt(ci+1, atom)
	w.boundary++
	return nil
}
