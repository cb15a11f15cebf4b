package weave

import "testing"

// render walks the tree region and returns the live characters in document
// order, mirroring what an external text view would do; it exists here only
// to make these whitebox tests readable.
func render(w *Weave[rune]) string {
	deleted := make(map[AtomID]bool)
	for _, a := range w.atoms {
		if a.Type == AtomDelete {
			deleted[a.Cause] = true
		}
	}
	var out []rune
	for i := 0; i < w.boundary; i++ {
		a := w.atoms[i]
		if a.Type == AtomNone && !deleted[a.ID] {
			out = append(out, a.Value)
		}
	}
	return string(out)
}

func insertString(t *testing.T, w *Weave[rune], s string) {
	t.Helper()
	cause := StartAtomID
	var clock Clock
	for _, ch := range s {
		clock++
		id, ok := w.AddAtom(ch, cause, clock)
		if !ok {
			t.Fatalf("AddAtom(%q, %v) failed", ch, cause)
		}
		cause = id
	}
}

func TestNewWeaveIsEmpty(t *testing.T) {
	w := New[rune](0)
	if got := render(w); got != "" {
		t.Errorf("render(New(0)) = %q, want empty", got)
	}
	if len(w.Atoms()) != 2 {
		t.Errorf("len(Atoms()) = %d, want 2 (start, end)", len(w.Atoms()))
	}
}

func TestSingleInsert(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "abc")
	if got, want := render(w), "abc"; got != want {
		t.Errorf("render(w) = %q, want %q", got, want)
	}
}

func TestSiblingInsertOrder(t *testing.T) {
	// First a single child under a child ('b' under 'a'); then two children
	// of the same cause, from the same site (so no commit is needed):
	// later-created siblings are more aware and sort first.
	w := New[rune](0)
	startID, _ := w.AddAtom('a', StartAtomID, 1)
	if _, ok := w.AddAtom('b', startID, 2); !ok {
		t.Fatal("AddAtom(b) failed")
	}
	if got, want := render(w), "ab"; got != want {
		t.Errorf("render(w) = %q, want %q", got, want)
	}

	w2 := New[rune](0)
	causeID, _ := w2.AddAtom('x', StartAtomID, 1)
	w2.AddAtom('y', causeID, 2)
	w2.AddAtom('z', causeID, 3)
	if got, want := render(w2), "xzy"; got != want {
		t.Errorf("render(w2) = %q, want %q (later sibling is more aware, sorts first)", got, want)
	}
}

func TestDelete(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "abc")
	bID := AtomID{Site: 0, Index: 3}
	if _, ok := w.DeleteAtom(bID, 10); !ok {
		t.Fatal("DeleteAtom failed")
	}
	if got, want := render(w), "ac"; got != want {
		t.Errorf("render(w) = %q, want %q", got, want)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() after delete: %v", err)
	}
}

func TestMergeConcurrentEdits(t *testing.T) {
	w0 := New[rune](0)
	insertString(t, w0, "CMD")

	w1 := FromSerialized[rune](1, w0.Atoms())
	w2 := FromSerialized[rune](2, w0.Atoms())

	// Site 0: CMD -> CTRL (delete "D" then "M", leaving "C")
	deleteLast(t, w0, 0)
	deleteLast(t, w0, 0)
	insertAfterLast(t, w0, "TRL")
	if got, want := render(w0), "CTRL"; got != want {
		t.Fatalf("render(w0) = %q, want %q", got, want)
	}

	// Site 1: CMD -> CMDALT
	insertAfterLast(t, w1, "ALT")
	if got, want := render(w1), "CMDALT"; got != want {
		t.Fatalf("render(w1) = %q, want %q", got, want)
	}

	// Site 2: CMD -> CMDDEL
	insertAfterLast(t, w2, "DEL")
	if got, want := render(w2), "CMDDEL"; got != want {
		t.Fatalf("render(w2) = %q, want %q", got, want)
	}

	if err := w0.Integrate(w1); err != nil {
		t.Fatalf("Integrate(w1): %v", err)
	}
	if got, want := render(w0), "CTRLALT"; got != want {
		t.Fatalf("render(w0) after merging w1 = %q, want %q", got, want)
	}
	if err := w0.Integrate(w2); err != nil {
		t.Fatalf("Integrate(w2): %v", err)
	}
	if got, want := render(w0), "CTRLALTDEL"; got != want {
		t.Fatalf("render(w0) after merging w2 = %q, want %q", got, want)
	}
	if err := w0.Validate(); err != nil {
		t.Errorf("Validate() after merges: %v", err)
	}
}

// deleteLast deletes the nth-from-end still-live atom created by w's owner.
func deleteLast(t *testing.T, w *Weave[rune], fromEnd int) {
	t.Helper()
	vis := visibleIDs(w)
	target := vis[len(vis)-1-fromEnd]
	if _, ok := w.DeleteAtom(target, 99); !ok {
		t.Fatalf("DeleteAtom(%v) failed", target)
	}
}

func insertAfterLast(t *testing.T, w *Weave[rune], s string) {
	t.Helper()
	vis := visibleIDs(w)
	cause := StartAtomID
	if len(vis) > 0 {
		cause = vis[len(vis)-1]
	}
	var clock Clock = 100
	for _, ch := range s {
		clock++
		id, ok := w.AddAtom(ch, cause, clock)
		if !ok {
			t.Fatalf("AddAtom(%q) failed", ch)
		}
		cause = id
	}
}

func visibleIDs(w *Weave[rune]) []AtomID {
	deleted := make(map[AtomID]bool)
	for _, a := range w.atoms {
		if a.Type == AtomDelete {
			deleted[a.Cause] = true
		}
	}
	var out []AtomID
	for i := 0; i < w.boundary; i++ {
		a := w.atoms[i]
		if a.Type == AtomNone && !deleted[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

func TestMergeCommutative(t *testing.T) {
	base := New[rune](0)
	insertString(t, base, "hello")

	left := FromSerialized[rune](1, base.Atoms())
	right := FromSerialized[rune](2, base.Atoms())
	insertAfterLast(t, left, " world")
	insertAfterLast(t, right, "!")

	ab := FromSerialized[rune](1, left.Atoms())
	ba := FromSerialized[rune](2, right.Atoms())

	if err := ab.Integrate(right); err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if err := ba.Integrate(left); err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if got, want := render(ab), render(ba); got != want {
		t.Errorf("merge is not commutative: left-then-right=%q, right-then-left=%q", got, want)
	}
}

func TestMergeAssociative(t *testing.T) {
	start := New[rune](0)

	a := FromSerialized[rune](1, start.Atoms())
	b := FromSerialized[rune](2, start.Atoms())
	c := FromSerialized[rune](3, start.Atoms())
	insertAfterLast(t, a, "x")
	insertAfterLast(t, b, "y")
	insertAfterLast(t, c, "z")

	// (A.integrate(B); _.integrate(C))
	abThenC := FromSerialized[rune](1, a.Atoms())
	if err := abThenC.Integrate(FromSerialized[rune](2, b.Atoms())); err != nil {
		t.Fatalf("Integrate(B): %v", err)
	}
	if err := abThenC.Integrate(FromSerialized[rune](3, c.Atoms())); err != nil {
		t.Fatalf("Integrate(C): %v", err)
	}

	// (B.integrate(C); A.integrate(_))
	bcFirst := FromSerialized[rune](2, b.Atoms())
	if err := bcFirst.Integrate(FromSerialized[rune](3, c.Atoms())); err != nil {
		t.Fatalf("Integrate(C): %v", err)
	}
	aThenBC := FromSerialized[rune](1, a.Atoms())
	if err := aThenBC.Integrate(bcFirst); err != nil {
		t.Fatalf("Integrate(BC): %v", err)
	}

	if got, want := render(aThenBC), render(abThenC); got != want {
		t.Errorf("merge is not associative: (A.B).C=%q, A.(B.C)=%q", want, got)
	}
	if err := abThenC.Validate(); err != nil {
		t.Errorf("Validate() on (A.B).C: %v", err)
	}
	if err := aThenBC.Validate(); err != nil {
		t.Errorf("Validate() on A.(B.C): %v", err)
	}
}

func TestMergeIdempotent(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "idempotent")
	clone := FromSerialized[rune](0, w.Atoms())

	if err := w.Integrate(clone); err != nil {
		t.Fatalf("Integrate(self-clone): %v", err)
	}
	if got, want := render(w), "idempotent"; got != want {
		t.Errorf("render(w) after self-merge = %q, want %q", got, want)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() after self-merge: %v", err)
	}
}

func TestAddAtomRejectsUnknownCause(t *testing.T) {
	w := New[rune](0)
	if _, ok := w.AddAtom('x', AtomID{Site: 9, Index: 9}, 1); ok {
		t.Errorf("AddAtom with unknown cause should fail")
	}
}

func TestAddAtomRejectsChildlessCause(t *testing.T) {
	w := New[rune](0)
	id, _ := w.AddAtom('x', StartAtomID, 1)
	w.DeleteAtom(id, 2)
	tombstoneID := AtomID{Site: 0, Index: 3}
	if _, ok := w.AddAtom('y', tombstoneID, 3); ok {
		t.Errorf("AddAtom under a delete tombstone should fail: delete atoms are childless")
	}
}

func TestDeleteAtomRejectsNonNoneTarget(t *testing.T) {
	w := New[rune](0)
	if _, ok := w.DeleteAtom(StartAtomID, 1); ok {
		t.Errorf("DeleteAtom(StartAtomID) should fail: start atom is not AtomNone")
	}
}
