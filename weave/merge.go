package weave

// insertionRange is a contiguous run of remote atoms [remoteLo, remoteHi) to
// be spliced into the local weave at localIndex.
type insertionRange struct {
	localIndex         int
	remoteLo, remoteHi int
}

// Integrate merges other into w: the associative, commutative, idempotent
// join of two weaves (§4.7). It is not re-entrant and must not be called
// concurrently with any other mutator on w or other.
//
// Integrate returns ErrMergeCorrupt (wrapped with the offending indices) if
// it encounters two atoms that are unequal, mutually unaware of each other,
// and not siblings: that can only happen if one of the two input weaves
// violates the well-formedness invariants of §3. A caller that does not
// trust other should call other.Validate() first.
func (w *Weave[V]) Integrate(other *Weave[V]) error {
	local := w.atoms
	remote := other.atoms
	localWeft := w.weft
	remoteWeft := other.weft

	var insertions []insertionRange
	var pending *insertionRange

	commit := func() {
		if pending != nil {
			insertions = append(insertions, *pending)
			pending = nil
		}
	}
	extend := func(localIdx, remoteIdx int) {
		if pending != nil && pending.localIndex == localIdx && pending.remoteHi == remoteIdx {
			pending.remoteHi = remoteIdx + 1
			return
		}
		commit()
		pending = &insertionRange{localIndex: localIdx, remoteLo: remoteIdx, remoteHi: remoteIdx + 1}
	}
	extendRange := func(localIdx, remoteLo, remoteHi int) {
		if pending != nil && pending.localIndex == localIdx && pending.remoteHi == remoteLo {
			pending.remoteHi = remoteHi
			return
		}
		commit()
		pending = &insertionRange{localIndex: localIdx, remoteLo: remoteLo, remoteHi: remoteHi}
	}

	i, j := 0, 0
	for j < len(remote) {
		switch {
		case i >= len(local):
			// Case A: past the end of local (remaining remote atoms are the
			// unparented tail); insert at the end.
			extend(i, j)
			j++

		case local[i].ID == remote[j].ID:
			// Case B: same atom on both sides.
			commit()
			i++
			j++

		case local[i].Type.Unparented() && remote[j].Type.Unparented():
			// Case C: both unparented, order by AtomID.
			a, b := local[i].ID, remote[j].ID
			switch {
			case a == b:
				commit()
				i++
				j++
			case unparentedAtomOrder(a, b):
				commit()
				i++
			default:
				extend(i, j)
				j++
			}

		case localWeft.Includes(remote[j].ID):
			// Case D: remote[j] is already present somewhere later in local;
			// fast-forward local until they line up, then let case B commit.
			commit()
			for local[i].ID != remote[j].ID {
				i++
				if i >= len(local) {
					return wrapMerge(ErrMergeCorrupt, i, j)
				}
			}

		case remoteWeft.Includes(local[i].ID):
			// Case E: symmetric to D.
			for local[i].ID != remote[j].ID {
				extend(i, j)
				j++
				if j >= len(remote) {
					return wrapMerge(ErrMergeCorrupt, i, j)
				}
			}

		case local[i].Cause == remote[j].Cause:
			// Case F: unaware siblings under the same cause. Order their
			// causal blocks by the canonical sibling order.
			_, locHi, ok1 := w.CausalBlock(i, nil)
			remLo, remHi, ok2 := other.CausalBlock(j, nil)
			if !ok1 || !ok2 {
				return wrapMerge(ErrMergeCorrupt, i, j)
			}
			locAware, _ := w.AwarenessWeft(local[i].ID)
			remAware, _ := other.AwarenessWeft(remote[j].ID)
			localFirst := local[i].siblingOrderBefore(remote[j], moreAware(locAware, remAware))
			if localFirst {
				commit()
				i = locHi + 1
			} else {
				extendRange(i, remLo, remHi+1)
				j = remHi + 1
			}

		default:
			// Case G: corrupt input.
			return wrapMerge(ErrMergeCorrupt, i, j)
		}
	}
	commit()

	w.applyInsertions(insertions, remote)
	w.mergeYarnCaches(other)
	w.rebuildIndex()
	w.rebuildBoundary()
	return nil
}

// applyInsertions splices the collected remote ranges into w.atoms, in
// reverse index order so that earlier indices remain valid as later ones are
// applied.
func (w *Weave[V]) applyInsertions(insertions []insertionRange, remote []Atom[V]) {
	for k := len(insertions) - 1; k >= 0; k-- {
		r := insertions[k]
		chunk := remote[r.remoteLo:r.remoteHi]
		tail := append([]Atom[V]{}, w.atoms[r.localIndex:]...)
		w.atoms = append(w.atoms[:r.localIndex], append(append([]Atom[V]{}, chunk...), tail...)...)
	}
}

// rebuildIndex recomputes the AtomID -> weave-index auxiliary map from
// scratch, O(N).
func (w *Weave[V]) rebuildIndex() {
	w.index = make(map[AtomID]int, len(w.atoms))
	for i, atom := range w.atoms {
		w.index[atom.ID] = i
	}
}

// rebuildBoundary recomputes the tree/unparented partition point.
func (w *Weave[V]) rebuildBoundary() {
	for i, atom := range w.atoms {
		if atom.Type.Unparented() {
			w.boundary = i
			return
		}
	}
	w.boundary = len(w.atoms)
}

// mergeYarnCaches implements the post-merge cache rebuild of §4.8: for every
// site present in other, append whatever tail of its yarn isn't already
// known locally, and update this weave's weft to match.
func (w *Weave[V]) mergeYarnCaches(other *Weave[V]) {
	for _, site := range other.cache.sites() {
		localLen := w.cache.siteLen(site)
		remoteLen := other.cache.siteLen(site)
		if remoteLen <= localLen {
			continue
		}
		remoteYarn := other.cache.yarn(site)
		for k := localLen; k < remoteLen; k++ {
			w.cache.append(remoteYarn[k])
		}
	}
	for _, site := range w.cache.sites() {
		last, ok := w.cache.lastSiteAtomYarnsIndex(site)
		if ok {
			w.weft.Update(site, last)
		}
	}
}
