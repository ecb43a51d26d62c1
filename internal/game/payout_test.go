package game

import (
	"testing"
)

func outcomeFor(winningIndex, goldPos int, goldMult int64) *RoundOutcome {
	out := &RoundOutcome{
		WinningIndex:   winningIndex,
		Position:       PositionAt(winningIndex),
		GoldPosition:   goldPos,
		GoldMultiplier: goldMult,
	}
	out.OuterColors[goldPos] = OuterGold
	return out
}

func betOf(betType BetType, amount int64, target int) *Bet {
	return &Bet{
		ID:           "b1",
		Username:     "alice",
		Type:         betType,
		Amount:       amount,
		TargetNumber: target,
		Currency:     CurrencyReal,
	}
}

func TestSettle_NumberBet(t *testing.T) {
	t.Run("hit away from gold pays 24x", func(t *testing.T) {
		// Index 7 carries number 7.
		out := outcomeFor(7, 20, 150)
		res := Settle(betOf(BetNumber, 100, 7), out)

		if !res.Won || res.Winnings != 100*MULT_NUMBER {
			t.Errorf("got %+v, want win of %d", res, 100*MULT_NUMBER)
		}
	})

	t.Run("hit on the gold slot upgrades", func(t *testing.T) {
		out := outcomeFor(7, 7, 150)
		res := Settle(betOf(BetNumber, 100, 7), out)

		if !res.Won || res.Winnings != 100*150 {
			t.Errorf("got %+v, want win of %d", res, 100*150)
		}
	})

	t.Run("miss loses the stake", func(t *testing.T) {
		out := outcomeFor(8, 20, 150)
		res := Settle(betOf(BetNumber, 100, 7), out)

		if res.Won || res.LossAmount != 100 {
			t.Errorf("got %+v, want loss of 100", res)
		}
	})
}

func TestSettle_ColorBets(t *testing.T) {
	// Index 2 is black, index 1 is white.
	blackOut := outcomeFor(2, 20, 100)
	whiteOut := outcomeFor(1, 20, 100)

	if res := Settle(betOf(BetBlack, 50, 0), blackOut); !res.Won || res.Winnings != 100 {
		t.Errorf("black on black: %+v", res)
	}
	if res := Settle(betOf(BetBlack, 50, 0), whiteOut); res.Won {
		t.Errorf("black on white should lose: %+v", res)
	}
	if res := Settle(betOf(BetWhite, 50, 0), whiteOut); !res.Won || res.Winnings != 100 {
		t.Errorf("white on white: %+v", res)
	}
}

func TestSettle_ParityBets(t *testing.T) {
	evenOut := outcomeFor(2, 20, 100) // number 2
	oddOut := outcomeFor(7, 20, 100)  // number 7

	if res := Settle(betOf(BetEven, 50, 0), evenOut); !res.Won {
		t.Errorf("even on 2: %+v", res)
	}
	if res := Settle(betOf(BetEven, 50, 0), oddOut); res.Won {
		t.Errorf("even on 7 should lose: %+v", res)
	}
	if res := Settle(betOf(BetOdd, 50, 0), oddOut); !res.Won || res.Winnings != 100 {
		t.Errorf("odd on 7: %+v", res)
	}
}

func TestSettle_OuterRingIndependentOfIntrinsicColor(t *testing.T) {
	// Index 10 is intrinsically black; overlay it green.
	out := outcomeFor(10, 20, 100)
	out.OuterColors[10] = OuterGreen

	if res := Settle(betOf(BetGreen, 50, 0), out); !res.Won || res.Winnings != 50*MULT_OUTER {
		t.Errorf("green on green overlay: %+v", res)
	}
	if res := Settle(betOf(BetPink, 50, 0), out); res.Won {
		t.Errorf("pink on green overlay should lose: %+v", res)
	}
	// Both layers pay at once.
	if res := Settle(betOf(BetBlack, 50, 0), out); !res.Won {
		t.Errorf("intrinsic black still wins under a green overlay: %+v", res)
	}
}

func TestSettle_GoldBet(t *testing.T) {
	out := outcomeFor(12, 12, 200)

	if res := Settle(betOf(BetGold, 10, 0), out); !res.Won || res.Winnings != 2000 {
		t.Errorf("gold hit: %+v", res)
	}

	missOut := outcomeFor(13, 12, 200)
	if res := Settle(betOf(BetGold, 10, 0), missOut); res.Won || res.LossAmount != 10 {
		t.Errorf("gold miss: %+v", res)
	}
}

func TestSettle_XSymbol(t *testing.T) {
	xOut := outcomeFor(17, 20, 100)

	t.Run("X bet pays 50x", func(t *testing.T) {
		res := Settle(betOf(BetX, 10, 0), xOut)
		if !res.Won || res.Winnings != 10*MULT_X {
			t.Errorf("got %+v", res)
		}
	})

	t.Run("other bets are refunded at stake", func(t *testing.T) {
		for _, bt := range []BetType{BetBlack, BetEven, BetGreen, BetGold, BetNumber} {
			res := Settle(betOf(bt, 10, 7), xOut)
			if res.Won || !res.Refunded || res.Winnings != 10 || res.LossAmount != 0 {
				t.Errorf("%s on X: %+v, want refund of 10", bt, res)
			}
		}
	})

	t.Run("X bet loses on a number", func(t *testing.T) {
		res := Settle(betOf(BetX, 10, 0), outcomeFor(7, 20, 100))
		if res.Won || res.LossAmount != 10 {
			t.Errorf("got %+v", res)
		}
	})
}

func TestSettle_Pure(t *testing.T) {
	out := outcomeFor(7, 20, 150)
	bet := betOf(BetNumber, 100, 7)

	first := Settle(bet, out)
	for i := 0; i < 51; i++ {
		Settle(bet, out.WithWinningIndex(i))
	}
	second := Settle(bet, out)

	if first != second {
		t.Error("Settle mutated its inputs")
	}
	if bet.Amount != 100 || out.WinningIndex != 7 {
		t.Error("bet or outcome mutated")
	}
}

func TestValidBetType(t *testing.T) {
	for _, bt := range []BetType{BetBlack, BetWhite, BetEven, BetOdd, BetGreen, BetPink, BetGold, BetNumber, BetX} {
		if !ValidBetType(bt) {
			t.Errorf("%s should be valid", bt)
		}
	}
	if ValidBetType("red") {
		t.Error("red is not a bet type")
	}
}
