package game

import (
	"time"
)

const (
	WheelSize = 51

	// Payout multipliers. The number multiplier is 24x and the X symbol
	// pays 50x; when X lands, every non-X bet is refunded at stake.
	MULT_COLOR  = 2
	MULT_PARITY = 2
	MULT_OUTER  = 10
	MULT_NUMBER = 24
	MULT_X      = 50

	// Outer ring geometry: ten fixed green/pink slots every fifth index,
	// one gold slot drawn per round, up to four red slots hugging gold.
	OUTER_FIXED_STEP = 5
	RED_REACH        = 2
)

type WheelColor string

const (
	ColorBlack WheelColor = "black"
	ColorWhite WheelColor = "white"
	ColorNone  WheelColor = ""
)

type OuterColor string

const (
	OuterGreen OuterColor = "green"
	OuterPink  OuterColor = "pink"
	OuterGold  OuterColor = "gold"
	OuterRed   OuterColor = "red"
	OuterNone  OuterColor = ""
)

// WheelPosition is one slot of the physical wheel. The layout is fixed
// across rounds and processes; only the outer ring overlay varies.
type WheelPosition struct {
	Index  int        `json:"index"`
	Number int        `json:"number"` // 0 on X slots
	Symbol string     `json:"symbol,omitempty"`
	Color  WheelColor `json:"color,omitempty"`
}

// goldMultipliers is the weighted discrete set a round's gold multiplier
// is drawn from.
var goldMultipliers = []struct {
	Value  int64
	Weight float64
}{
	{50, 0.50},
	{100, 0.30},
	{150, 0.15},
	{200, 0.05},
}

var wheelLayout = buildWheelLayout()

// buildWheelLayout lays out 51 slots: X symbols at 0, 17 and 34, the
// numbers 1-48 on the rest in index order, intrinsic color alternating
// black/white by index.
func buildWheelLayout() [WheelSize]WheelPosition {
	var layout [WheelSize]WheelPosition
	number := 0
	for i := 0; i < WheelSize; i++ {
		pos := WheelPosition{Index: i}
		if i == 0 || i == 17 || i == 34 {
			pos.Symbol = "x"
		} else {
			number++
			pos.Number = number
			if i%2 == 0 {
				pos.Color = ColorBlack
			} else {
				pos.Color = ColorWhite
			}
		}
		layout[i] = pos
	}
	return layout
}

// PositionAt returns the fixed wheel slot at the given index.
func PositionAt(index int) WheelPosition {
	return wheelLayout[index%WheelSize]
}

// ValidTargetNumber reports whether a number bet target exists on the wheel.
func ValidTargetNumber(n int) bool {
	return n >= 1 && n <= 48
}

// CandidateOutcome deterministically derives the round's base outcome:
// winning index, outer ring assignment, gold position and multiplier.
// The returned generator continues the same stream, so protection draws
// stay auditable from the one round seed. Same (roundNumber, epoch)
// always yields the same candidate.
func CandidateOutcome(roundNumber int64, epoch time.Time) (*RoundOutcome, *SplitMix64) {
	rng := NewSplitMix64(RoundSeed(roundNumber, epoch.UnixMilli()))

	baseIndex := rng.IntN(WheelSize)

	var outer [WheelSize]OuterColor
	var open []int
	green := true
	for i := 0; i < WheelSize; i++ {
		if i%OUTER_FIXED_STEP == 0 && i/OUTER_FIXED_STEP < 10 {
			if green {
				outer[i] = OuterGreen
			} else {
				outer[i] = OuterPink
			}
			green = !green
		} else {
			open = append(open, i)
		}
	}

	goldPos := open[rng.IntN(len(open))]
	outer[goldPos] = OuterGold

	// Red slots flank gold but never displace the fixed green/pink ring.
	for offset := -RED_REACH; offset <= RED_REACH; offset++ {
		if offset == 0 {
			continue
		}
		idx := ((goldPos+offset)%WheelSize + WheelSize) % WheelSize
		if outer[idx] == OuterNone {
			outer[idx] = OuterRed
		}
	}

	weights := make([]float64, len(goldMultipliers))
	for i, gm := range goldMultipliers {
		weights[i] = gm.Weight
	}
	goldMult := goldMultipliers[rng.WeightedIndex(weights)].Value

	out := &RoundOutcome{
		RoundNumber:    roundNumber,
		WinningIndex:   baseIndex,
		Position:       PositionAt(baseIndex),
		OuterColors:    outer,
		GoldPosition:   goldPos,
		GoldMultiplier: goldMult,
		TargetAngle:    targetAngle(baseIndex),
	}
	return out, rng
}

// targetAngle is a display hint for the wheel animation, not game logic.
// Five full turns plus the rotation that lands the winning slot at the
// pointer.
func targetAngle(winningIndex int) float64 {
	slot := 360.0 / float64(WheelSize)
	return 5*360.0 + 360.0 - float64(winningIndex)*slot
}

// WithWinningIndex copies the round's ring layout onto a different
// winning index. Risk analysis uses this to score all 51 candidates
// without re-deriving the ring.
func (o *RoundOutcome) WithWinningIndex(index int) *RoundOutcome {
	candidate := *o
	candidate.WinningIndex = index
	candidate.Position = PositionAt(index)
	candidate.TargetAngle = targetAngle(index)
	return &candidate
}
