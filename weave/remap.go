package weave

// RemapIndices rewrites every SiteID appearing in the weave — the owner, each
// atom's ID/Cause/Reference site, and the weft and yarn-cache keys — through
// m. Sites absent from m are left unchanged. RemapIndices does not re-sort
// the weave; the caller must guarantee that m preserves canonical order
// where required (e.g. during a sitemap merge), or re-run Validate
// afterwards (§4.9).
func (w *Weave[V]) RemapIndices(m map[SiteID]SiteID) {
	remapSite := func(s SiteID) SiteID {
		if r, ok := m[s]; ok {
			return r
		}
		return s
	}
	remapID := func(id AtomID) AtomID {
		if id.IsNull() {
			return id
		}
		return AtomID{Site: remapSite(id.Site), Index: id.Index}
	}

	for i := range w.atoms {
		w.atoms[i].ID = remapID(w.atoms[i].ID)
		w.atoms[i].Cause = remapID(w.atoms[i].Cause)
		w.atoms[i].Reference = remapID(w.atoms[i].Reference)
	}
	for i := range w.cache.yarns {
		w.cache.yarns[i].ID = remapID(w.cache.yarns[i].ID)
		w.cache.yarns[i].Cause = remapID(w.cache.yarns[i].Cause)
		w.cache.yarns[i].Reference = remapID(w.cache.yarns[i].Reference)
	}

	newRanges := make(map[SiteID]yarnRange, len(w.cache.ranges))
	for site, r := range w.cache.ranges {
		newRanges[remapSite(site)] = r
	}
	w.cache.ranges = newRanges

	newWeft := NewWeft()
	for site, idx := range w.weft {
		newWeft.Update(remapSite(site), idx)
	}
	w.weft = newWeft

	w.owner = remapSite(w.owner)
	w.rebuildIndex()
}
