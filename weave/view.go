package weave

// Now returns the weave's current causal frontier, the same snapshot
// Integrate uses to decide what the remote side already knows. Since a
// Weft here already is the per-site tail index, no extra walk is needed.
func (w *Weave[V]) Now() Weft {
	return w.weft.Clone()
}

// ViewAt returns a read-only snapshot of w containing only the atoms weft
// includes: an arbitrary causal cut keyed by YarnIndex. It fails with
// ErrWeftDisconnected if weft would keep an atom while dropping its cause or
// reference, since that would orphan it in the resulting tree.
//
// The returned weave is independent of w; mutating one does not affect the
// other. It is owned by the same site as w, though a caller with no further
// writes planned against it may disregard that.
func (w *Weave[V]) ViewAt(weft Weft) (*Weave[V], error) {
	atoms := make([]Atom[V], 0, len(w.atoms))
	for _, a := range w.atoms {
		if !weft.Includes(a.ID) {
			continue
		}
		if !weft.Includes(a.Cause) || !weft.Includes(a.Reference) {
			return nil, ErrWeftDisconnected
		}
		atoms = append(atoms, a)
	}
	return FromSerialized[V](w.owner, atoms), nil
}
