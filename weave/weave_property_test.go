package weave

import (
	"testing"

	"pgregory.net/rapid"
)

var lowercaseRunes = []rune("abcdefghijklmnopqrstuvwxyz")

// documentModel mirrors a single replica's document as a plain rune slice,
// subject to insertions and deletions at random positions, the way the
// teacher's crdt_test.stateMachine models a CausalTree.
type documentModel struct {
	w     *Weave[rune]
	chars []rune
	clock Clock
}

func (m *documentModel) Init(t *rapid.T) {
	m.w = New[rune](1)
}

func (m *documentModel) visible() []AtomID {
	deleted := make(map[AtomID]bool)
	for _, a := range m.w.atoms {
		if a.Type == AtomDelete {
			deleted[a.Cause] = true
		}
	}
	var out []AtomID
	for i := 0; i < m.w.boundary; i++ {
		a := m.w.atoms[i]
		if a.Type == AtomNone && !deleted[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

func (m *documentModel) InsertCharAt(t *rapid.T) {
	ch := rapid.SampledFrom(lowercaseRunes).Draw(t, "ch")
	i := rapid.IntRange(-1, len(m.chars)-1).Draw(t, "i")

	vis := m.visible()
	cause := StartAtomID
	if i >= 0 {
		cause = vis[i]
	}
	m.clock++
	if _, ok := m.w.AddAtom(ch, cause, m.clock); !ok {
		t.Fatal("AddAtom rejected a cause drawn from the live document")
	}
	m.chars = append(m.chars[:i+1], append([]rune{ch}, m.chars[i+1:]...)...)
}

func (m *documentModel) DeleteCharAt(t *rapid.T) {
	if len(m.chars) == 0 {
		t.Skip("empty document")
	}
	i := rapid.IntRange(0, len(m.chars)-1).Draw(t, "i")

	vis := m.visible()
	m.clock++
	if _, ok := m.w.DeleteAtom(vis[i], m.clock); !ok {
		t.Fatal("DeleteAtom rejected an ID drawn from the live document")
	}
	copy(m.chars[i:], m.chars[i+1:])
	m.chars = m.chars[:len(m.chars)-1]
}

func (m *documentModel) Check(t *rapid.T) {
	if got, want := render(m.w), string(m.chars); got != want {
		t.Fatalf("content mismatch: want %q but got %q", want, got)
	}
	if err := m.w.Validate(); err != nil {
		t.Fatalf("Validate(): %v", err)
	}
}

func TestDocumentModel(t *testing.T) {
	rapid.Check(t, rapid.Run[*documentModel]())
}

// TestMergeConvergenceProperty generates two independent edit histories from
// a shared base and checks that Integrate converges to the same document
// regardless of merge direction, and that re-merging is a no-op (idempotence).
func TestMergeConvergenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := New[rune](1)
		n := rapid.IntRange(0, 8).Draw(t, "baseLen")
		var clock Clock
		cause := StartAtomID
		for i := 0; i < n; i++ {
			ch := rapid.SampledFrom(lowercaseRunes).Draw(t, "baseCh")
			clock++
			id, ok := base.AddAtom(ch, cause, clock)
			if !ok {
				t.Fatal("AddAtom on fresh base failed")
			}
			cause = id
		}

		left := FromSerialized[rune](2, base.Atoms())
		right := FromSerialized[rune](3, base.Atoms())
		applyRandomEdits(t, "left", left, &clock)
		applyRandomEdits(t, "right", right, &clock)

		ab := FromSerialized[rune](2, left.Atoms())
		ba := FromSerialized[rune](3, right.Atoms())

		if err := ab.Integrate(right); err != nil {
			t.Fatalf("Integrate(left, right): %v", err)
		}
		if err := ba.Integrate(left); err != nil {
			t.Fatalf("Integrate(right, left): %v", err)
		}
		if got, want := render(ab), render(ba); got != want {
			t.Fatalf("merge not commutative: left-then-right=%q, right-then-left=%q", got, want)
		}
		if err := ab.Validate(); err != nil {
			t.Fatalf("Validate() after merge: %v", err)
		}

		again := FromSerialized[rune](2, ab.Atoms())
		if err := again.Integrate(right); err != nil {
			t.Fatalf("Integrate(merged, right) (idempotence): %v", err)
		}
		if got, want := render(again), render(ab); got != want {
			t.Fatalf("merge not idempotent: re-merged=%q, original=%q", got, want)
		}
	})
}

// applyRandomEdits performs a small number of random inserts/deletes against
// w's live atoms, drawing from t.
func applyRandomEdits(t *rapid.T, label string, w *Weave[rune], clock *Clock) {
	steps := rapid.IntRange(0, 5).Draw(t, label+"Steps")
	for s := 0; s < steps; s++ {
		vis := visibleIDs(w)
		insert := len(vis) == 0 || rapid.Bool().Draw(t, label+"InsertOrDelete")
		*clock++
		if insert {
			cause := StartAtomID
			if len(vis) > 0 {
				i := rapid.IntRange(-1, len(vis)-1).Draw(t, label+"At")
				if i >= 0 {
					cause = vis[i]
				}
			}
			ch := rapid.SampledFrom(lowercaseRunes).Draw(t, label+"Ch")
			if _, ok := w.AddAtom(ch, cause, *clock); !ok {
				t.Fatal("AddAtom failed during random edit")
			}
		} else {
			i := rapid.IntRange(0, len(vis)-1).Draw(t, label+"DelAt")
			if _, ok := w.DeleteAtom(vis[i], *clock); !ok {
				t.Fatal("DeleteAtom failed during random edit")
			}
		}
	}
}
