package game

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SplitMix64 is the deterministic generator behind outcome selection.
// Same seed, same sequence, independent of process restarts, so every
// round can be replayed and audited from its (roundNumber, epoch) pair.
type SplitMix64 struct {
	state uint64
}

func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// RoundSeed derives the per-round seed from the round number and the
// epoch the round numbering is anchored to.
func RoundSeed(roundNumber int64, epochUnixMs int64) uint64 {
	data := fmt.Sprintf("%d:%d", epochUnixMs, roundNumber)
	hash := sha256.Sum256([]byte(data))
	return binary.BigEndian.Uint64(hash[:8])
}

func (s *SplitMix64) Next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a value in [0, 1).
func (s *SplitMix64) Float64() float64 {
	return float64(s.Next()>>11) / (1 << 53)
}

// IntN returns a value in [0, n).
func (s *SplitMix64) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Next() % uint64(n))
}

// WeightedIndex draws an index proportionally to the given weights.
// Weights need not be normalized. Returns the last index if the weights
// sum to zero.
func (s *SplitMix64) WeightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return len(weights) - 1
	}

	target := s.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
