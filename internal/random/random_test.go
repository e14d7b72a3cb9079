package random

import "testing"

func TestNewIsDeterministicForSeed(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 5; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %f vs %f", i, x, y)
		}
	}
}

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	got := []float64{s.Float64(), s.Float64(), s.Float64()}
	if got[0] != 0.1 || got[1] != 0.9 || got[2] != 0.1 {
		t.Fatalf("unexpected draws %v", got)
	}
	if NewSequence().Float64() != 0 {
		t.Fatalf("empty sequence should yield 0")
	}
}
