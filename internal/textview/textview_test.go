package textview

import (
	"testing"

	"github.com/ctweave/weave"
)

func TestNewDocumentIsEmpty(t *testing.T) {
	d := New(1)
	if got := d.String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestInsertCharAppendsAndInserts(t *testing.T) {
	d := New(1)
	var clock weave.Clock
	for _, ch := range "ac" {
		clock++
		if _, ok := d.InsertChar(d.Len(), ch, clock); !ok {
			t.Fatalf("InsertChar(%q) failed", ch)
		}
	}
	clock++
	if _, ok := d.InsertChar(1, 'b', clock); !ok {
		t.Fatal("InsertChar(1, 'b') failed")
	}
	if got, want := d.String(), "abc"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInsertCharRejectsOutOfRange(t *testing.T) {
	d := New(1)
	if _, ok := d.InsertChar(1, 'x', 1); ok {
		t.Error("InsertChar(1, ...) on empty document should fail")
	}
	if _, ok := d.InsertChar(-1, 'x', 1); ok {
		t.Error("InsertChar(-1, ...) should fail")
	}
}

func TestDeleteCharRemovesVisibleCharacter(t *testing.T) {
	d := New(1)
	var clock weave.Clock
	for i, ch := range "abc" {
		clock++
		if _, ok := d.InsertChar(i, ch, clock); !ok {
			t.Fatalf("InsertChar(%q) failed", ch)
		}
	}
	clock++
	if _, ok := d.DeleteChar(1, clock); !ok {
		t.Fatal("DeleteChar(1) failed")
	}
	if got, want := d.String(), "ac"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := d.Len(), 2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestDeleteCharRejectsOutOfRange(t *testing.T) {
	d := New(1)
	if _, ok := d.DeleteChar(0, 1); ok {
		t.Error("DeleteChar(0) on empty document should fail")
	}
}

func TestWrapPreservesContent(t *testing.T) {
	d := New(1)
	var clock weave.Clock
	for i, ch := range "hi" {
		clock++
		d.InsertChar(i, ch, clock)
	}
	wrapped := Wrap(d.Weave())
	if got, want := wrapped.String(), "hi"; got != want {
		t.Errorf("Wrap(d.Weave()).String() = %q, want %q", got, want)
	}
}
