package game

import (
	"testing"
)

func TestSplitMix64_Deterministic(t *testing.T) {
	a := NewSplitMix64(42)
	b := NewSplitMix64(42)

	for i := 0; i < 1000; i++ {
		if a.Next() != b.Next() {
			t.Fatal("same seed should produce the same sequence")
		}
	}
}

func TestSplitMix64_Float64Range(t *testing.T) {
	rng := NewSplitMix64(7)
	for i := 0; i < 10000; i++ {
		f := rng.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64() = %f, want [0, 1)", f)
		}
	}
}

func TestSplitMix64_IntN(t *testing.T) {
	rng := NewSplitMix64(99)

	t.Run("stays in range", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			n := rng.IntN(51)
			if n < 0 || n >= 51 {
				t.Fatalf("IntN(51) = %d", n)
			}
		}
	})

	t.Run("covers the range", func(t *testing.T) {
		seen := make(map[int]bool)
		for i := 0; i < 5000; i++ {
			seen[rng.IntN(51)] = true
		}
		if len(seen) != 51 {
			t.Errorf("saw %d of 51 values in 5000 draws", len(seen))
		}
	})

	t.Run("non-positive n", func(t *testing.T) {
		if rng.IntN(0) != 0 {
			t.Error("IntN(0) should return 0")
		}
	})
}

func TestSplitMix64_WeightedIndex(t *testing.T) {
	t.Run("heavy weight dominates", func(t *testing.T) {
		rng := NewSplitMix64(1)
		counts := make([]int, 3)
		for i := 0; i < 10000; i++ {
			counts[rng.WeightedIndex([]float64{0.9, 0.05, 0.05})]++
		}
		if counts[0] < 8000 {
			t.Errorf("index 0 drawn %d/10000 times, expected ~9000", counts[0])
		}
	})

	t.Run("zero weights fall through to last", func(t *testing.T) {
		rng := NewSplitMix64(1)
		if got := rng.WeightedIndex([]float64{0, 0, 0}); got != 2 {
			t.Errorf("WeightedIndex(zeros) = %d, want 2", got)
		}
	})
}

func TestRoundSeed(t *testing.T) {
	t.Run("stable across calls", func(t *testing.T) {
		if RoundSeed(10, 0) != RoundSeed(10, 0) {
			t.Error("RoundSeed should be deterministic")
		}
	})

	t.Run("varies by round", func(t *testing.T) {
		if RoundSeed(10, 0) == RoundSeed(11, 0) {
			t.Error("different rounds should not share a seed")
		}
	})

	t.Run("varies by epoch", func(t *testing.T) {
		if RoundSeed(10, 0) == RoundSeed(10, 1000) {
			t.Error("different epochs should not share a seed")
		}
	})
}
