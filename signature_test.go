package silo

import "testing"

func TestSignatureSetAndTest(t *testing.T) {
	sig := NewSignature()
	sig.Set(3)
	sig.Set(7)

	if !sig.Test(3) || !sig.Test(7) {
		t.Fatal("expected bits 3 and 7 to be set")
	}
	if sig.Test(4) {
		t.Fatal("expected bit 4 to be unset")
	}
	if sig.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sig.Len())
	}

	sig.Clear(3)
	if sig.Test(3) {
		t.Fatal("expected bit 3 to be cleared")
	}
}

func TestSignatureIsSuperSetOf(t *testing.T) {
	full := SignatureOf(1, 2, 3)
	partial := SignatureOf(1, 2)
	other := SignatureOf(4)

	if !full.IsSuperSetOf(partial) {
		t.Error("expected full to be a superset of partial")
	}
	if full.IsSuperSetOf(other) {
		t.Error("expected full not to be a superset of an unrelated signature")
	}
}

func TestSignatureEqual(t *testing.T) {
	a := SignatureOf(1, 2, 3)
	b := SignatureOf(3, 2, 1)
	c := SignatureOf(1, 2)

	if !a.Equal(b) {
		t.Error("expected signatures with the same bits to be equal regardless of insertion order")
	}
	if a.Equal(c) {
		t.Error("expected signatures with different bits not to be equal")
	}
}

func TestSignatureComponentIDsSorted(t *testing.T) {
	sig := SignatureOf(9, 1, 5, 3)
	ids := sig.ComponentIDs()
	want := []uint32{1, 3, 5, 9}
	if len(ids) != len(want) {
		t.Fatalf("ComponentIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ComponentIDs() = %v, want %v", ids, want)
			break
		}
	}
}

func TestSignatureHashStable(t *testing.T) {
	a := SignatureOf(1, 2, 3)
	b := SignatureOf(3, 2, 1)
	if a.Hash() != b.Hash() {
		t.Error("expected equal signatures to hash identically regardless of insertion order")
	}

	c := SignatureOf(1, 2)
	if a.Hash() == c.Hash() {
		t.Error("expected different signatures to hash differently (in practice)")
	}
}

func TestSignatureUnion(t *testing.T) {
	a := SignatureOf(1, 2)
	b := SignatureOf(2, 3)
	u := a.Union(b)

	want := SignatureOf(1, 2, 3)
	if !u.Equal(want) {
		t.Errorf("Union() = %v, want %v", u.ComponentIDs(), want.ComponentIDs())
	}
}
