package simhash

import "testing"

func TestComputeEmptyIsAllOnes(t *testing.T) {
	f := Compute(nil)
	if f != Fingerprint(^uint64(0)) {
		t.Errorf("Compute(nil) = %064b, want all-ones", uint64(f))
	}
}

func TestComputeDeterministic(t *testing.T) {
	tokens := []string{"uci", "crawl", "spider", "uci"}
	a := Compute(tokens)
	b := Compute(tokens)
	if a != b {
		t.Errorf("Compute not deterministic: %v != %v", a, b)
	}
}

func TestHammingDistance(t *testing.T) {
	if d := HammingDistance(0, 0); d != 0 {
		t.Errorf("HammingDistance(0,0) = %d, want 0", d)
	}
	if d := HammingDistance(0, 0b111); d != 3 {
		t.Errorf("HammingDistance(0,0b111) = %d, want 3", d)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	idx := NewIndex(0.95)
	f := Compute([]string{"alpha", "beta", "gamma"})

	if idx.IsNearDuplicate(f) {
		t.Fatal("empty index reported a duplicate")
	}
	idx.Store(f)
	if !idx.IsNearDuplicate(f) {
		t.Fatal("inserted fingerprint not found as near-duplicate of itself")
	}
}

func TestIndexHammingBoundary(t *testing.T) {
	// distance exactly 3 -> near-dup (>= 0.95); distance 4 -> not.
	idx := NewIndex(0.95)
	base := Fingerprint(0)
	idx.Store(base)

	dist3 := base ^ 0b111 // flips 3 low bits
	if !idx.IsNearDuplicate(dist3) {
		t.Error("hamming distance 3 should be a near-duplicate")
	}

	dist4 := base ^ 0b1111 // flips 4 low bits
	if idx.IsNearDuplicate(dist4) {
		t.Error("hamming distance 4 should not be a near-duplicate")
	}
}

func TestCheckAndStoreAtomic(t *testing.T) {
	idx := NewIndex(0.95)
	f := Compute([]string{"same", "page", "text"})

	if stored := idx.CheckAndStore(f); !stored {
		t.Fatal("first CheckAndStore should report stored=true")
	}
	if stored := idx.CheckAndStore(f); stored {
		t.Fatal("second CheckAndStore of the identical fingerprint should report stored=false")
	}
}

func TestDistinctFingerprintsDifferEnough(t *testing.T) {
	idx := NewIndex(0.95)
	docs := [][]string{
		{"cats", "are", "great", "pets", "for", "busy", "households"},
		{"graduate", "admissions", "deadline", "extended", "spring", "quarter"},
	}

	var fps []Fingerprint
	for _, d := range docs {
		f := Compute(d)
		if !idx.CheckAndStore(f) {
			t.Fatalf("unexpected duplicate for %v", d)
		}
		fps = append(fps, f)
	}

	if HammingDistance(fps[0], fps[1]) <= 3 {
		t.Error("unrelated documents unexpectedly landed within the duplicate threshold")
	}
}
