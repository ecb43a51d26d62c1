package game

import (
	"testing"
	"time"
)

func TestWheelLayout(t *testing.T) {
	t.Run("X slots at 0, 17 and 34", func(t *testing.T) {
		for _, i := range []int{0, 17, 34} {
			pos := PositionAt(i)
			if pos.Symbol != "x" || pos.Number != 0 {
				t.Errorf("index %d = %+v, want X symbol", i, pos)
			}
		}
	})

	t.Run("numbers 1-48 each appear once", func(t *testing.T) {
		seen := make(map[int]int)
		for i := 0; i < WheelSize; i++ {
			pos := PositionAt(i)
			if pos.Number > 0 {
				seen[pos.Number]++
			}
		}
		if len(seen) != 48 {
			t.Fatalf("wheel carries %d distinct numbers, want 48", len(seen))
		}
		for n, count := range seen {
			if count != 1 {
				t.Errorf("number %d appears %d times", n, count)
			}
		}
	})

	t.Run("intrinsic color alternates by index", func(t *testing.T) {
		for i := 0; i < WheelSize; i++ {
			pos := PositionAt(i)
			if pos.Symbol == "x" {
				if pos.Color != ColorNone {
					t.Errorf("X slot %d has color %q", i, pos.Color)
				}
				continue
			}
			want := ColorWhite
			if i%2 == 0 {
				want = ColorBlack
			}
			if pos.Color != want {
				t.Errorf("index %d color = %q, want %q", i, pos.Color, want)
			}
		}
	})
}

func TestCandidateOutcome_Reproducible(t *testing.T) {
	epoch := time.UnixMilli(0)

	a, _ := CandidateOutcome(42, epoch)
	b, _ := CandidateOutcome(42, epoch)

	if a.WinningIndex != b.WinningIndex {
		t.Error("winning index should be reproducible")
	}
	if a.GoldPosition != b.GoldPosition || a.GoldMultiplier != b.GoldMultiplier {
		t.Error("gold assignment should be reproducible")
	}
	if a.OuterColors != b.OuterColors {
		t.Error("outer ring should be reproducible")
	}

	c, _ := CandidateOutcome(43, epoch)
	if a.WinningIndex == c.WinningIndex && a.GoldPosition == c.GoldPosition &&
		a.GoldMultiplier == c.GoldMultiplier && a.OuterColors == c.OuterColors {
		t.Error("consecutive rounds produced identical outcomes")
	}
}

func TestCandidateOutcome_OuterRing(t *testing.T) {
	epoch := time.UnixMilli(0)

	for round := int64(1); round <= 200; round++ {
		out, _ := CandidateOutcome(round, epoch)

		var green, pink, gold, red int
		for i, c := range out.OuterColors {
			switch c {
			case OuterGreen:
				green++
			case OuterPink:
				pink++
			case OuterGold:
				gold++
				if i != out.GoldPosition {
					t.Fatalf("round %d: gold at %d but GoldPosition=%d", round, i, out.GoldPosition)
				}
			case OuterRed:
				red++
			}
		}

		if green != 5 || pink != 5 {
			t.Fatalf("round %d: %d green / %d pink, want 5/5", round, green, pink)
		}
		if gold != 1 {
			t.Fatalf("round %d: %d gold slots", round, gold)
		}
		if out.GoldPosition%OUTER_FIXED_STEP == 0 && out.GoldPosition/OUTER_FIXED_STEP < 10 {
			t.Fatalf("round %d: gold landed on a fixed green/pink slot (%d)", round, out.GoldPosition)
		}
		if red > 4 {
			t.Fatalf("round %d: %d red slots, want at most 4", round, red)
		}

		// Red slots hug the gold position.
		for i, c := range out.OuterColors {
			if c != OuterRed {
				continue
			}
			dist := (i - out.GoldPosition + WheelSize) % WheelSize
			if dist > RED_REACH && dist < WheelSize-RED_REACH {
				t.Fatalf("round %d: red at %d too far from gold %d", round, i, out.GoldPosition)
			}
		}

		switch out.GoldMultiplier {
		case 50, 100, 150, 200:
		default:
			t.Fatalf("round %d: gold multiplier %d outside the set", round, out.GoldMultiplier)
		}
	}
}

func TestCandidateOutcome_GoldMultiplierDistribution(t *testing.T) {
	epoch := time.UnixMilli(0)

	counts := make(map[int64]int)
	for round := int64(1); round <= 2000; round++ {
		out, _ := CandidateOutcome(round, epoch)
		counts[out.GoldMultiplier]++
	}

	// 50x is weighted at half the draws; 200x at one in twenty.
	if counts[50] < counts[200] {
		t.Errorf("50x (%d) should be more common than 200x (%d)", counts[50], counts[200])
	}
	if counts[50] < 700 {
		t.Errorf("50x drawn %d/2000 times, expected ~1000", counts[50])
	}
}

func TestWithWinningIndex(t *testing.T) {
	out, _ := CandidateOutcome(1, time.UnixMilli(0))

	alt := out.WithWinningIndex(7)
	if alt.WinningIndex != 7 {
		t.Errorf("WinningIndex = %d, want 7", alt.WinningIndex)
	}
	if alt.Position != PositionAt(7) {
		t.Error("position should track the new index")
	}
	if alt.OuterColors != out.OuterColors || alt.GoldPosition != out.GoldPosition {
		t.Error("ring layout must not change with the winning index")
	}
	if out.WinningIndex == 7 {
		t.Skip("base already landed on 7")
	}
	if alt.WinningIndex == out.WinningIndex {
		t.Error("original outcome mutated")
	}
}
