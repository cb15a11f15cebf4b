// Package siteregistry maps the small integer SiteIDs a Weave operates on to
// the globally-unique UUIDs replicas actually use to recognize each other,
// the way causal-tree's CausalTree.Sitemap does for its site indices.
//
// A registry keeps its UUIDs sorted; a site's SiteID is its position in that
// order. Admitting an unseen UUID, or merging with a peer's registry, can
// therefore shift the positions of already-known sites — callers must feed
// the returned remap table to weave.Weave.RemapIndices to keep a live weave
// consistent with its registry.
package siteregistry

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/ctweave/weave"
)

// Registry is the sorted UUID directory backing one replica's view of
// SiteID assignments.
type Registry struct {
	ids  []uuid.UUID
	self weave.SiteID
}

// New creates a registry containing a single, freshly-generated site: the
// local replica.
func New() *Registry {
	id := mustNewV1()
	return &Registry{ids: []uuid.UUID{id}, self: 0}
}

// Self returns the local replica's SiteID.
func (r *Registry) Self() weave.SiteID { return r.self }

// UUID returns the UUID backing site, if known.
func (r *Registry) UUID(site weave.SiteID) (uuid.UUID, bool) {
	if int(site) >= len(r.ids) {
		return uuid.UUID{}, false
	}
	return r.ids[site], true
}

// index returns the position where id is, or should be, inserted to keep
// r.ids sorted.
func index(ids []uuid.UUID, id uuid.UUID) int {
	return sort.Search(len(ids), func(i int) bool {
		return bytes.Compare(ids[i][:], id[:]) >= 0
	})
}

// Admit assigns a SiteID to a newly-encountered UUID, inserting it in sorted
// order. If the insertion falls before existing entries, it returns a remap
// table (old SiteID -> new SiteID) for every site whose position shifted;
// the caller must apply it to any live Weave via RemapIndices before using
// the new SiteID in that weave. A UUID already present is a no-op: Admit
// returns its existing SiteID and a nil remap table.
func (r *Registry) Admit(id uuid.UUID) (weave.SiteID, map[weave.SiteID]weave.SiteID) {
	i := index(r.ids, id)
	if i < len(r.ids) && r.ids[i] == id {
		return weave.SiteID(i), nil
	}

	r.ids = append(r.ids, uuid.UUID{})
	copy(r.ids[i+1:], r.ids[i:])
	r.ids[i] = id

	var remap map[weave.SiteID]weave.SiteID
	if i < len(r.ids)-1 {
		remap = make(map[weave.SiteID]weave.SiteID)
		for old := i; old < len(r.ids)-1; old++ {
			remap[weave.SiteID(old)] = weave.SiteID(old + 1)
		}
		if int(r.self) >= i {
			r.self = remap[r.self]
		}
	}
	return weave.SiteID(i), remap
}

// Merge combines r with other, returning a registry containing the sorted
// union of both UUID sets, along with the remap tables needed to bring a
// weave built against r (localRemap) or other (remoteRemap) in line with the
// merged registry's SiteIDs. Either remap table may be nil if no site
// shifted.
func Merge(r, other *Registry) (merged *Registry, localRemap, remoteRemap map[weave.SiteID]weave.SiteID) {
	var i, j int
	var ids []uuid.UUID
	localRemap = make(map[weave.SiteID]weave.SiteID)
	remoteRemap = make(map[weave.SiteID]weave.SiteID)

	for i < len(r.ids) && j < len(other.ids) {
		a, b := r.ids[i], other.ids[j]
		switch bytes.Compare(a[:], b[:]) {
		case 0:
			localRemap[weave.SiteID(i)] = weave.SiteID(len(ids))
			remoteRemap[weave.SiteID(j)] = weave.SiteID(len(ids))
			ids = append(ids, a)
			i++
			j++
		case -1:
			localRemap[weave.SiteID(i)] = weave.SiteID(len(ids))
			ids = append(ids, a)
			i++
		default:
			remoteRemap[weave.SiteID(j)] = weave.SiteID(len(ids))
			ids = append(ids, b)
			j++
		}
	}
	for ; i < len(r.ids); i++ {
		localRemap[weave.SiteID(i)] = weave.SiteID(len(ids))
		ids = append(ids, r.ids[i])
	}
	for ; j < len(other.ids); j++ {
		remoteRemap[weave.SiteID(j)] = weave.SiteID(len(ids))
		ids = append(ids, other.ids[j])
	}

	newSelf := r.self
	if localRemap != nil {
		newSelf = localRemap[r.self]
	}

	if identityRemap(localRemap) {
		localRemap = nil
	}
	if identityRemap(remoteRemap) {
		remoteRemap = nil
	}
	return &Registry{ids: ids, self: newSelf}, localRemap, remoteRemap
}

func identityRemap(m map[weave.SiteID]weave.SiteID) bool {
	for k, v := range m {
		if k != v {
			return false
		}
	}
	return true
}

func mustNewV1() uuid.UUID {
	id, err := uuid.NewUUID()
	if err != nil {
		// uuid.NewUUID only fails if the OS's random source is broken.
		panic(err)
	}
	return id
}
