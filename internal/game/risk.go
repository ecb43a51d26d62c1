package game

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

const (
	// Weight decay per rank in the protected draw. Rank 0 is the most
	// house-profitable candidate.
	WEIGHT_DECAY = 0.92

	// Trial-currency share of total exposure above which a
	// house-unprofitable draw gets overridden.
	TRIAL_GUARD_SHARE = 0.80

	settlementTxType = "round_settlement"
)

type Aggressiveness string

const (
	AggrNone   Aggressiveness = "none"
	AggrLow    Aggressiveness = "low"
	AggrMedium Aggressiveness = "medium"
	AggrHigh   Aggressiveness = "high"
)

// HouseFund is what the analyzer needs from the fund ledger: a fast
// possibly slightly stale balance read, the settlement write, and the
// max-bet recomputation hook.
type HouseFund interface {
	CachedBalance() int64
	Update(delta int64, txType, username string, roundNumber int64) (int64, error)
	MaxBetReal() int64
	RecomputeMaxBet(onlineUsers int)
}

// RiskAnalyzer picks each round's final outcome. Below the protection
// threshold the seeded base candidate passes through untouched; above it
// the 51 candidates are scored against the live bets and drawn with
// house-profit-weighted odds from the same seeded stream.
type RiskAnalyzer struct {
	mu sync.Mutex

	epoch              time.Time
	threshold          float64
	maxExposurePercent float64

	ledger *BetLedger
	fund   HouseFund
	wallet WalletService

	resolved map[int64]*RoundOutcome
	settled  map[int64]bool
}

func NewRiskAnalyzer(epoch time.Time, threshold, maxExposurePercent float64, ledger *BetLedger, fund HouseFund, wallet WalletService) *RiskAnalyzer {
	return &RiskAnalyzer{
		epoch:              epoch,
		threshold:          threshold,
		maxExposurePercent: maxExposurePercent,
		ledger:             ledger,
		fund:               fund,
		wallet:             wallet,
		resolved:           make(map[int64]*RoundOutcome),
		settled:            make(map[int64]bool),
	}
}

// Resolve selects the final outcome for a round. It runs the selection
// at most once; later calls return the cached decision, so the timer
// firing twice (or a late observer asking) cannot re-roll the wheel.
func (r *RiskAnalyzer) Resolve(roundNumber int64) *RoundOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if out, ok := r.resolved[roundNumber]; ok {
		return out
	}

	out := r.selectOutcome(roundNumber)
	r.resolved[roundNumber] = out
	return out
}

// Resolved returns the cached outcome without triggering selection.
func (r *RiskAnalyzer) Resolved(roundNumber int64) (*RoundOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.resolved[roundNumber]
	return out, ok
}

func (r *RiskAnalyzer) selectOutcome(roundNumber int64) *RoundOutcome {
	base, rng := CandidateOutcome(roundNumber, r.epoch)
	base.Aggressiveness = string(AggrNone)

	bets := r.ledger.Bets(roundNumber)
	if len(bets) == 0 {
		return base
	}

	stats := r.ledger.RoundStats(roundNumber)
	ratio := r.exposureRatio(stats.TotalWagered)
	if ratio < r.threshold {
		analysis := analyzeCandidates(bets, base)
		base.HouseProfit = analysis[base.WinningIndex].HouseProfit
		return base
	}

	tier, factor := r.aggressiveness(ratio)
	analysis := analyzeCandidates(bets, base)

	ranked := make([]OutcomeCandidate, len(analysis))
	copy(ranked, analysis[:])
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].HouseProfit > ranked[j].HouseProfit
	})

	weights := make([]float64, len(ranked))
	for rank, c := range ranked {
		w := math.Pow(WEIGHT_DECAY, float64(rank))
		if c.HouseProfit > 0 {
			w *= factor
		} else if c.HouseProfit < 0 {
			w /= factor
		}
		weights[rank] = w
	}

	pick := ranked[rng.WeightedIndex(weights)]

	// Trial farming guard: when trial money dominates the round, refuse
	// to hand the farm a house-losing result.
	if stats.TotalWagered > 0 &&
		float64(stats.TrialWagered) > TRIAL_GUARD_SHARE*float64(stats.TotalWagered) &&
		pick.HouseProfit < 0 {
		pick = ranked[0]
	}

	out := base.WithWinningIndex(pick.Index)
	out.Protected = true
	out.HouseProfit = pick.HouseProfit
	out.Aggressiveness = string(tier)

	log.Printf("[RISK] Round %d protected: index %d, profit %d, tier %s (exposure %.2f)",
		roundNumber, out.WinningIndex, out.HouseProfit, tier, ratio)
	return out
}

// exposureRatio relates the round's total stake to the slice of the
// house fund the operator is willing to put at risk.
func (r *RiskAnalyzer) exposureRatio(totalWagered int64) float64 {
	capacity := float64(r.fund.CachedBalance()) * r.maxExposurePercent / 100
	if capacity <= 0 {
		if totalWagered == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(totalWagered) / capacity
}

func (r *RiskAnalyzer) aggressiveness(ratio float64) (Aggressiveness, float64) {
	switch {
	case ratio >= 4*r.threshold:
		return AggrHigh, 4.0
	case ratio >= 2*r.threshold:
		return AggrMedium, 2.5
	default:
		return AggrLow, 1.5
	}
}

// analyzeCandidates scores every possible winning index against the
// currently placed bets.
func analyzeCandidates(bets []*Bet, base *RoundOutcome) [WheelSize]OutcomeCandidate {
	var analysis [WheelSize]OutcomeCandidate
	for index := 0; index < WheelSize; index++ {
		candidate := base.WithWinningIndex(index)

		var totalPayout, totalLoss int64
		for _, bet := range bets {
			res := Settle(bet, candidate)
			totalPayout += res.Winnings
			totalLoss += res.LossAmount
		}

		denom := totalLoss
		if denom < 1 {
			denom = 1
		}
		analysis[index] = OutcomeCandidate{
			Index:       index,
			Position:    candidate.Position,
			OuterColor:  candidate.OuterColors[index],
			TotalPayout: totalPayout,
			TotalLoss:   totalLoss,
			HouseProfit: totalLoss - totalPayout,
			RiskScore:   float64(totalPayout) / float64(denom),
		}
	}
	return analysis
}

// SettleRound applies the resolved outcome: per-user wallet deltas, one
// aggregate fund transaction, and the next round's max-bet refresh.
// Settling an already-settled round is a no-op, so the fund delta can
// never double-apply.
func (r *RiskAnalyzer) SettleRound(ctx context.Context, roundNumber int64, onlineUsers int) ([]UserSettlement, error) {
	r.mu.Lock()
	if r.settled[roundNumber] {
		r.mu.Unlock()
		return nil, nil
	}
	r.settled[roundNumber] = true
	r.mu.Unlock()

	out := r.Resolve(roundNumber)
	bets := r.ledger.Bets(roundNumber)

	type userKey struct {
		username string
		currency CurrencyMode
	}
	deltas := make(map[userKey]int64)
	winners := make(map[userKey]bool)
	var houseDelta int64

	for _, bet := range bets {
		res := Settle(bet, out)
		key := userKey{bet.Username, bet.Currency}

		// Stakes stay in the wallet until settlement, so the emitted
		// delta is net: -amount on loss, winnings-amount on win, zero
		// on refund.
		deltas[key] += res.Winnings - bet.Amount
		if res.Won {
			winners[key] = true
		}

		// Only real currency moves the house fund; trial money is its
		// own economy.
		if bet.Currency == CurrencyReal {
			houseDelta += bet.Amount - res.Winnings
		}
	}

	settlements := make([]UserSettlement, 0, len(deltas))
	for key, delta := range deltas {
		if delta != 0 {
			if _, err := r.wallet.ApplyDelta(ctx, key.username, string(key.currency), delta); err != nil {
				// One user's wallet failure must not stall the round.
				log.Printf("[RISK] Round %d: wallet delta %d for %s failed: %v",
					roundNumber, delta, key.username, err)
			}
		}
		settlements = append(settlements, UserSettlement{
			Username: key.username,
			Currency: key.currency,
			Delta:    delta,
			Won:      winners[key],
		})
	}

	if _, err := r.fund.Update(houseDelta, settlementTxType, "", roundNumber); err != nil {
		log.Printf("[RISK] Round %d: fund settlement of %d rejected: %v", roundNumber, houseDelta, err)
	}
	r.fund.RecomputeMaxBet(onlineUsers)

	log.Printf("[RISK] Round %d settled: %d bets, house delta %d, index %d",
		roundNumber, len(bets), houseDelta, out.WinningIndex)
	return settlements, nil
}

// Cleanup drops cached resolutions outside the retention window.
func (r *RiskAnalyzer) Cleanup(current int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for round := range r.resolved {
		if round < current-RetainedRounds {
			delete(r.resolved, round)
			delete(r.settled, round)
		}
	}
}
