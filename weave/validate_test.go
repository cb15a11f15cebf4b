package weave

import (
	"errors"
	"testing"
)

func TestValidateFreshWeave(t *testing.T) {
	w := New[rune](0)
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() on a fresh weave: %v", err)
	}
}

func TestValidateAfterOperations(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "hello")
	deleteLast(t, w, 0)
	if err := w.Validate(); err != nil {
		t.Errorf("Validate(): %v", err)
	}
}

func TestValidateRejectsNonGaplessYarn(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "ab")
	// Corrupt the yarn cache directly: skip a yarn index.
	w.cache.yarns[2].ID.Index = 5

	err := w.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != ErrLikelyCorruption {
		t.Fatalf("Validate() = %v, want ErrLikelyCorruption", err)
	}
}

func TestValidateRejectsMisorderedSiblings(t *testing.T) {
	w := New[rune](0)
	causeID, _ := w.AddAtom('a', StartAtomID, 1)
	w.AddAtom('b', causeID, 2)
	w.AddAtom('c', causeID, 3)
	// The correct weave order after this is [start, a, c, b, end]; swap c and
	// b in the weave (but not in the yarn) to violate the sibling order.
	w.atoms[2], w.atoms[3] = w.atoms[3], w.atoms[2]
	w.rebuildIndex()

	err := w.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != ErrIncorrectTreeAtomOrder {
		t.Fatalf("Validate() = %v, want ErrIncorrectTreeAtomOrder", err)
	}
}

func TestValidateRejectsMissingCause(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "a")
	w.atoms[1].Cause = AtomID{Site: 7, Index: 7}
	w.rebuildIndex()

	err := w.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != ErrCausalityViolation {
		t.Fatalf("Validate() = %v, want ErrCausalityViolation", err)
	}
}

func TestValidateRejectsEmptyWeave(t *testing.T) {
	w := &Weave[rune]{cache: newYarnCache[rune](), weft: NewWeft(), index: make(map[AtomID]int)}
	err := w.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != ErrNoAtoms {
		t.Fatalf("Validate() = %v, want ErrNoAtoms", err)
	}
}

func TestValidateRejectsUnparentedAtomInTreeRegion(t *testing.T) {
	w := New[rune](0)
	insertString(t, w, "a")
	w.atoms[1].Type = AtomCommit
	w.rebuildIndex()

	err := w.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != ErrTreeAtomIsUnparented {
		t.Fatalf("Validate() = %v, want ErrTreeAtomIsUnparented", err)
	}
}
