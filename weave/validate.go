package weave

// Validate checks every invariant of §3/§4.10 against the current weave
// state, independent of any auxiliary indices the implementation happens to
// maintain: it re-derives structure (causality order, sibling order, yarn
// contiguity) from the atoms themselves so that a corrupted cache or index
// cannot mask a corrupted weave.
//
// Per-atom awareness is computed once, in dependency order, by round-robin
// walking every yarn and advancing a yarn only once its current atom's
// cause, reference, and yarn-predecessor all have awareness computed. Each
// entry is a Weft (one max-index integer per site), so the whole table costs
// O(N*S) rather than the O(N^2) a per-atom bitmap over every other atom would
// cost — there is no need for an artificial site-count ceiling.
func (w *Weave[V]) Validate() error {
	if len(w.atoms) == 0 {
		return &ValidationError{Kind: ErrNoAtoms, Index: -1, Msg: "weave has no atoms"}
	}
	sites := w.cache.sites()
	if len(sites) == 0 {
		return &ValidationError{Kind: ErrNoSites, Index: -1, Msg: "weave has no sites"}
	}

	totalYarnAtoms := 0
	for _, site := range sites {
		yarn := w.cache.yarn(site)
		totalYarnAtoms += len(yarn)
		for i, atom := range yarn {
			if atom.ID.Index != YarnIndex(i) {
				return &ValidationError{Kind: ErrLikelyCorruption, Index: -1,
					Msg: "yarn for a site is not gapless/0-based"}
			}
		}
	}
	if totalYarnAtoms != len(w.atoms) {
		return &ValidationError{Kind: ErrLikelyCorruption, Index: -1,
			Msg: "atom count does not match total yarn length"}
	}

	awareOf, err := w.computeAwareness()
	if err != nil {
		return err
	}

	if err := w.validateTreeRegion(awareOf); err != nil {
		return err
	}
	if err := w.validateUnparentedRegion(); err != nil {
		return err
	}
	return nil
}

func (w *Weave[V]) computeAwareness() (map[AtomID]Weft, error) {
	sites := w.cache.sites()
	pointers := make(map[SiteID]int, len(sites))
	awareOf := make(map[AtomID]Weft, len(w.atoms))
	total := len(w.atoms)
	processed := 0

	ready := func(id AtomID) bool {
		_, ok := awareOf[id]
		return ok
	}

	for processed < total {
		progressed := false
		for _, site := range sites {
			yarn := w.cache.yarn(site)
			idx := pointers[site]
			if idx >= len(yarn) {
				continue
			}
			atom := yarn[idx]
			isRoot := atom.ID == atom.Cause
			causeReady := atom.Cause.IsNull() || isRoot || ready(atom.Cause)
			refReady := atom.Reference.IsNull() || ready(atom.Reference)
			predReady := idx == 0 || ready(yarn[idx-1].ID)
			if !(causeReady && refReady && predReady) {
				continue
			}

			aw := NewWeft()
			aw.Update(site, YarnIndex(idx))
			if idx > 0 {
				pred := yarn[idx-1]
				mergeInto(aw, awareOf[pred.ID])
				aw.UpdateAtom(pred.ID)
			}
			if !atom.Cause.IsNull() && !isRoot {
				mergeInto(aw, awareOf[atom.Cause])
				aw.UpdateAtom(atom.Cause)
			}
			if !atom.Reference.IsNull() {
				mergeInto(aw, awareOf[atom.Reference])
				aw.UpdateAtom(atom.Reference)
			}

			awareOf[atom.ID] = aw
			pointers[site] = idx + 1
			processed++
			progressed = true
		}
		if !progressed {
			return nil, &ValidationError{Kind: ErrCausalityViolation, Index: -1,
				Msg: "a full pass made no progress computing awareness"}
		}
	}
	return awareOf, nil
}

func mergeInto(dst, src Weft) {
	for site, index := range src {
		dst.Update(site, index)
	}
}

func (w *Weave[V]) validateTreeRegion(awareOf map[AtomID]Weft) error {
	for i := 0; i < w.boundary; i++ {
		atom := w.atoms[i]
		if atom.Type.Unparented() {
			return &ValidationError{Kind: ErrTreeAtomIsUnparented, Index: i,
				Msg: "tree-region atom has an unparented type"}
		}
		if atom.ID == atom.Cause {
			continue // the start atom
		}
		ci, ok := w.atomWeaveIndexScan(atom.Cause)
		if !ok || ci >= i {
			return &ValidationError{Kind: ErrCausalityViolation, Index: i,
				Msg: "atom's cause does not appear earlier in the weave"}
		}
		if w.atoms[ci].Type.Childless() {
			return &ValidationError{Kind: ErrChildlessAtomHasChildren, Index: i,
				Msg: "atom's cause is marked childless"}
		}
		aw := awareOf[atom.ID]
		if !aw.Includes(atom.Cause) {
			return &ValidationError{Kind: ErrAtomUnawareOfParent, Index: i,
				Msg: "atom's awareness does not include its cause"}
		}
		if !atom.Reference.IsNull() && !aw.Includes(atom.Reference) {
			return &ValidationError{Kind: ErrAtomUnawareOfReference, Index: i,
				Msg: "atom's awareness does not include its reference"}
		}
		if i > 0 {
			prev := w.atoms[i-1]
			if prev.Cause == atom.Cause && prev.ID != prev.Cause {
				aMoreAware := moreAware(awareOf[prev.ID], awareOf[atom.ID])
				if !prev.siblingOrderBefore(atom, aMoreAware) {
					return &ValidationError{Kind: ErrIncorrectTreeAtomOrder, Index: i,
						Msg: "adjacent siblings violate the canonical sibling order"}
				}
			}
		}
	}
	return nil
}

func (w *Weave[V]) validateUnparentedRegion() error {
	if w.boundary >= len(w.atoms) {
		return &ValidationError{Kind: ErrMissingStartOfUnparentedSection, Index: -1,
			Msg: "weave has no unparented region"}
	}
	if w.atoms[w.boundary].ID != EndAtomID {
		return &ValidationError{Kind: ErrMissingStartOfUnparentedSection, Index: w.boundary,
			Msg: "first atom of the unparented region is not the end atom"}
	}
	for i := w.boundary; i < len(w.atoms); i++ {
		atom := w.atoms[i]
		if !atom.Type.Unparented() {
			return &ValidationError{Kind: ErrUnparentedAtomIsParented, Index: i,
				Msg: "unparented-region atom has a tree type"}
		}
		if !atom.Cause.IsNull() {
			return &ValidationError{Kind: ErrUnparentedAtomIsParented, Index: i,
				Msg: "unparented atom has a non-null cause"}
		}
		if i > w.boundary && !unparentedAtomOrder(w.atoms[i-1].ID, atom.ID) {
			return &ValidationError{Kind: ErrIncorrectUnparentedAtomOrder, Index: i,
				Msg: "unparented region is not strictly increasing by AtomID"}
		}
	}
	return nil
}
