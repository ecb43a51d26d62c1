package game

// Settle maps one bet against one outcome. Pure: it is called for all 51
// candidates during risk analysis and once more for the final settlement,
// so it must not mutate the bet or the outcome.
//
// Winnings include the stake (a won 100 bet at 2x pays 200). When the X
// symbol lands, X bets pay MULT_X and every other bet is refunded at
// stake instead of losing.
func Settle(bet *Bet, out *RoundOutcome) SettleResult {
	pos := PositionAt(out.WinningIndex)

	if pos.Symbol == "x" {
		if bet.Type == BetX {
			return win(bet, MULT_X)
		}
		return SettleResult{Refunded: true, Multiplier: 1, Winnings: bet.Amount}
	}

	switch bet.Type {
	case BetX:
		return loss(bet)

	case BetBlack:
		if pos.Color == ColorBlack {
			return win(bet, MULT_COLOR)
		}
	case BetWhite:
		if pos.Color == ColorWhite {
			return win(bet, MULT_COLOR)
		}

	case BetEven:
		if pos.Number > 0 && pos.Number%2 == 0 {
			return win(bet, MULT_PARITY)
		}
	case BetOdd:
		if pos.Number%2 == 1 {
			return win(bet, MULT_PARITY)
		}

	// Outer ring bets read the round's overlay, never the wheel's
	// intrinsic black/white color.
	case BetGreen:
		if out.OuterColors[out.WinningIndex] == OuterGreen {
			return win(bet, MULT_OUTER)
		}
	case BetPink:
		if out.OuterColors[out.WinningIndex] == OuterPink {
			return win(bet, MULT_OUTER)
		}

	case BetGold:
		if out.WinningIndex == out.GoldPosition {
			return win(bet, out.GoldMultiplier)
		}

	case BetNumber:
		if pos.Number == bet.TargetNumber {
			// A number hit on the gold slot upgrades to the round's
			// gold multiplier.
			if out.WinningIndex == out.GoldPosition {
				return win(bet, out.GoldMultiplier)
			}
			return win(bet, MULT_NUMBER)
		}
	}

	return loss(bet)
}

func win(bet *Bet, multiplier int64) SettleResult {
	return SettleResult{
		Won:        true,
		Multiplier: multiplier,
		Winnings:   bet.Amount * multiplier,
	}
}

func loss(bet *Bet) SettleResult {
	return SettleResult{LossAmount: bet.Amount}
}

// ValidBetType reports whether the type is one the wheel settles.
func ValidBetType(t BetType) bool {
	switch t {
	case BetBlack, BetWhite, BetEven, BetOdd, BetGreen, BetPink, BetGold, BetNumber, BetX:
		return true
	}
	return false
}
