package weave

// yarnRange gives the inclusive [lo, hi] slice of the flat yarns vector
// occupied by a single site's atoms, in increasing YarnIndex order.
type yarnRange struct {
	lo, hi int
}

func (r yarnRange) len() int { return r.hi - r.lo + 1 }

// yarnCache is a single flat vector concatenating every site's atoms, plus a
// map from SiteID to that site's contiguous slice. All operations below are
// O(1) except construction and the bookkeeping maintenance that keeps the
// flat vector compact on every append.
type yarnCache[V comparable] struct {
	yarns  []Atom[V]
	ranges map[SiteID]yarnRange
}

func newYarnCache[V comparable]() yarnCache[V] {
	return yarnCache[V]{ranges: make(map[SiteID]yarnRange)}
}

// atomYarnsIndex returns the position of id within the flat yarns vector.
func (c *yarnCache[V]) atomYarnsIndex(id AtomID) (int, bool) {
	if id.IsNull() {
		return 0, false
	}
	r, ok := c.ranges[id.Site]
	if !ok {
		return 0, false
	}
	n := r.len()
	if int(id.Index) >= n {
		return 0, false
	}
	return r.lo + int(id.Index), true
}

// atomForID looks up the full atom by ID.
func (c *yarnCache[V]) atomForID(id AtomID) (Atom[V], bool) {
	i, ok := c.atomYarnsIndex(id)
	if !ok {
		return Atom[V]{}, false
	}
	return c.yarns[i], true
}

// yarn returns the slice of atoms created by site, in increasing YarnIndex
// order. The returned slice aliases the cache's backing array.
func (c *yarnCache[V]) yarn(site SiteID) []Atom[V] {
	r, ok := c.ranges[site]
	if !ok {
		return nil
	}
	return c.yarns[r.lo : r.hi+1]
}

// lastSiteAtomYarnsIndex returns the highest YarnIndex known for site.
func (c *yarnCache[V]) lastSiteAtomYarnsIndex(site SiteID) (YarnIndex, bool) {
	r, ok := c.ranges[site]
	if !ok {
		return 0, false
	}
	return YarnIndex(r.len() - 1), true
}

// siteLen returns the number of atoms known for site.
func (c *yarnCache[V]) siteLen(site SiteID) int {
	r, ok := c.ranges[site]
	if !ok {
		return 0
	}
	return r.len()
}

// sites returns every site present in the cache, in no particular order.
func (c *yarnCache[V]) sites() []SiteID {
	sites := make([]SiteID, 0, len(c.ranges))
	for site := range c.ranges {
		sites = append(sites, site)
	}
	return sites
}

// append inserts atom as the newest member of its site's yarn, maintaining
// the flat vector's per-site contiguity. When the site is new, the atom is
// pushed to the tail; otherwise it is inserted right after the site's
// current range and every other range whose lo was beyond that point is
// shifted by one.
func (c *yarnCache[V]) append(atom Atom[V]) {
	site := atom.ID.Site
	r, ok := c.ranges[site]
	if !ok {
		lo := len(c.yarns)
		c.yarns = append(c.yarns, atom)
		c.ranges[site] = yarnRange{lo: lo, hi: lo}
		return
	}
	insertAt := r.hi + 1
	c.yarns = append(c.yarns, Atom[V]{})
	copy(c.yarns[insertAt+1:], c.yarns[insertAt:])
	c.yarns[insertAt] = atom
	c.ranges[site] = yarnRange{lo: r.lo, hi: r.hi + 1}
	for other, rr := range c.ranges {
		if other != site && rr.lo > r.hi {
			c.ranges[other] = yarnRange{lo: rr.lo + 1, hi: rr.hi + 1}
		}
	}
}

// clone returns an independent deep copy of the cache.
func (c *yarnCache[V]) clone() yarnCache[V] {
	out := yarnCache[V]{
		yarns:  make([]Atom[V], len(c.yarns)),
		ranges: make(map[SiteID]yarnRange, len(c.ranges)),
	}
	copy(out.yarns, c.yarns)
	for site, r := range c.ranges {
		out.ranges[site] = r
	}
	return out
}
