// Package textview is a demo-only text editor view over a weave.Weave: it
// interprets rune-valued atoms as a collaborative document, translating
// character positions to and from causal tree atoms. The core weave package
// never does this — interpreting atom values into a user-facing text view is
// explicitly an external collaborator's concern, not the core's.
package textview

import "github.com/ctweave/weave"

// Document is a cursor-addressable text view over a *weave.Weave[rune].
type Document struct {
	w *weave.Weave[rune]
}

// New creates an empty document owned by owner.
func New(owner weave.SiteID) *Document {
	return &Document{w: weave.New[rune](owner)}
}

// Wrap adapts an existing weave as a text document.
func Wrap(w *weave.Weave[rune]) *Document {
	return &Document{w: w}
}

// Weave returns the underlying weave, for merging and persistence.
func (d *Document) Weave() *weave.Weave[rune] { return d.w }

// visible returns every live (non-tombstoned) character atom, in document
// order. Document order and weave order coincide by construction (§4.4's
// sibling order is exactly what makes the weave a valid linearization of the
// tree), so no separate position index needs to be maintained.
func (d *Document) visible() []weave.Atom[rune] {
	atoms := d.w.Atoms()
	deleted := make(map[weave.AtomID]bool)
	for _, a := range atoms {
		if a.Type == weave.AtomDelete {
			deleted[a.Cause] = true
		}
	}

	out := make([]weave.Atom[rune], 0, len(atoms))
	for _, a := range atoms {
		if a.Type.Unparented() {
			break // reached the commit/end region; tree region is exhausted
		}
		if a.Type != weave.AtomNone || deleted[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Len returns the number of live characters in the document.
func (d *Document) Len() int { return len(d.visible()) }

// String renders the document's current text.
func (d *Document) String() string {
	vis := d.visible()
	runes := make([]rune, len(vis))
	for i, a := range vis {
		runes[i] = a.Value
	}
	return string(runes)
}

// InsertChar inserts ch so that it becomes the character at pos (0 <= pos <=
// Len()). It fails if pos is out of range.
func (d *Document) InsertChar(pos int, ch rune, clock weave.Clock) (weave.AtomID, bool) {
	vis := d.visible()
	if pos < 0 || pos > len(vis) {
		return weave.AtomID{}, false
	}
	cause := weave.StartAtomID
	if pos > 0 {
		cause = vis[pos-1].ID
	}
	return d.w.AddAtom(ch, cause, clock)
}

// DeleteChar removes the character currently at pos (0 <= pos < Len()).
func (d *Document) DeleteChar(pos int, clock weave.Clock) (weave.AtomID, bool) {
	vis := d.visible()
	if pos < 0 || pos >= len(vis) {
		return weave.AtomID{}, false
	}
	return d.w.DeleteAtom(vis[pos].ID, clock)
}
