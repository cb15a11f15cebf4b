package weave

// AwarenessWeft computes the weft of atoms that id transitively depends on
// (§4.5): a fixed-point walk over wefts, each iteration following the
// cause/reference links of newly-discovered atoms back through their yarns
// until no new site frontier is discovered.
func (w *Weave[V]) AwarenessWeft(id AtomID) (Weft, bool) {
	seed, ok := w.AtomForID(id)
	if !ok {
		return nil, false
	}

	working := NewWeft()
	working.Update(id.Site, id.Index)
	completed := NewWeft()

	for !working.Equal(completed) {
		next := NewWeft()
		for site, upTo := range working {
			lowerBound := 0
			if v, ok := completed[site]; ok {
				lowerBound = int(v) + 1
			}
			yarn := w.cache.yarn(site)
			for i := int(upTo); i >= lowerBound; i-- {
				atom := yarn[i]
				if !atom.Cause.IsNull() && atom.Cause.Site != site {
					next.UpdateAtom(atom.Cause)
				}
				if !atom.Reference.IsNull() {
					next.UpdateAtom(atom.Reference)
				}
			}
		}
		for site, idx := range working {
			next.Update(site, idx)
		}
		for site, idx := range working {
			completed.Update(site, idx)
		}
		working = next
	}

	if !seed.Cause.IsNull() {
		completed.UpdateAtom(seed.Cause)
	}
	if !seed.Reference.IsNull() {
		completed.UpdateAtom(seed.Reference)
	}
	return completed, true
}

// CausalBlock returns the contiguous range of weave indices [lo, hi]
// (inclusive) comprising the subtree rooted at the atom at weaveIndex
// (§4.6). If awareness is non-nil it is used instead of recomputing the
// root's awareness weft. Unparented roots have no causal block. Childless
// roots yield a single-element range.
//
// The walk goes forward while the next atom's cause is the root itself or an
// atom the root's awareness weft does not include (one created after the
// root, hence inside its subtree), and stops at the first atom whose cause
// the root was already aware of.
func (w *Weave[V]) CausalBlock(weaveIndex int, awareness *Weft) (lo, hi int, ok bool) {
	if weaveIndex < 0 || weaveIndex >= len(w.atoms) {
		return 0, 0, false
	}
	root := w.atoms[weaveIndex]
	if root.Type.Unparented() {
		return 0, 0, false
	}
	if root.Type.Childless() {
		return weaveIndex, weaveIndex, true
	}

	var aware Weft
	if awareness != nil {
		aware = *awareness
	} else {
		aware, _ = w.AwarenessWeft(root.ID)
	}

	i := weaveIndex + 1
	for i < w.boundary {
		atom := w.atoms[i]
		if atom.Cause != root.ID && aware.Includes(atom.Cause) {
			break
		}
		i++
	}
	return weaveIndex, i - 1, true
}
