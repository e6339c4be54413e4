package output

import "testing"

func TestRingPushAcceptsOnlyWhatFits(t *testing.T) {
	ring := newSampleRing(4)

	if n := ring.Push([]float32{1, 2, 3}); n != 3 {
		t.Fatalf("expected 3 accepted, got %d", n)
	}
	if n := ring.Push([]float32{4, 5, 6}); n != 1 {
		t.Fatalf("a full ring must accept only the remaining capacity, got %d", n)
	}
	if n := ring.Push([]float32{7}); n != 0 {
		t.Fatalf("a full ring must accept nothing, got %d", n)
	}
}

func TestRingPopPreservesOrderAndZeroFills(t *testing.T) {
	ring := newSampleRing(4)
	ring.Push([]float32{1, 2, 3})

	dst := make([]float32, 5)
	if n := ring.Pop(dst); n != 3 {
		t.Fatalf("expected 3 delivered, got %d", n)
	}
	want := []float32{1, 2, 3, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, want[i], dst[i])
		}
	}
}

func TestRingWrapsAround(t *testing.T) {
	ring := newSampleRing(4)
	ring.Push([]float32{1, 2, 3, 4})

	dst := make([]float32, 2)
	ring.Pop(dst)
	if n := ring.Push([]float32{5, 6}); n != 2 {
		t.Fatalf("freed capacity must be reusable, got %d", n)
	}

	rest := make([]float32, 4)
	if n := ring.Pop(rest); n != 4 {
		t.Fatalf("expected 4 delivered, got %d", n)
	}
	want := []float32{3, 4, 5, 6}
	for i := range want {
		if rest[i] != want[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, want[i], rest[i])
		}
	}
}

func TestRingResetDiscardsBufferedSamples(t *testing.T) {
	ring := newSampleRing(4)
	ring.Push([]float32{1, 2, 3})
	ring.Reset()

	dst := make([]float32, 3)
	if n := ring.Pop(dst); n != 0 {
		t.Fatalf("reset must discard everything, got %d", n)
	}
}
