package game

import (
	"context"
	"testing"
	"time"
)

func newManagerFixture() (*Manager, *BetLedger, *fakeWallet, *fakeFund) {
	cfg := testConfig()
	wallet := newFakeWallet()
	ledger := NewBetLedger(wallet)
	fund := &fakeFund{balance: 1 << 30, maxBet: cfg.MaxBetReal}
	risk := NewRiskAnalyzer(cfg.RoundEpoch, cfg.ProtectionThreshold, cfg.MaxExposurePercent, ledger, fund, wallet)
	mgr := NewManager(cfg, ledger, risk, fund, NewHub())
	return mgr, ledger, wallet, fund
}

func TestManager_StateDuringBetting(t *testing.T) {
	mgr, _, _, _ := newManagerFixture()

	mgr.tick(time.UnixMilli(10_000))
	state := mgr.GetState()
	if state == nil {
		t.Fatal("tick should publish a state")
	}

	if state.RoundNumber != 1 || state.Phase != PhaseBetting {
		t.Errorf("round %d phase %s, want round 1 betting", state.RoundNumber, state.Phase)
	}
	if state.WinningIndex != nil || state.WinningPos != nil {
		t.Error("winning index must stay hidden while bets are open")
	}
	if state.OuterColors == nil {
		t.Error("the board layout should be visible during betting")
	}
	if state.PhaseEndsAt != 180_000 || state.SpinStartAt != 240_000 {
		t.Errorf("schedule = ends %d / spin %d", state.PhaseEndsAt, state.SpinStartAt)
	}
}

func TestManager_RingStableAcrossBettingTicks(t *testing.T) {
	mgr, _, _, _ := newManagerFixture()

	mgr.tick(time.UnixMilli(1_000))
	first := mgr.GetState()
	mgr.tick(time.UnixMilli(150_000))
	second := mgr.GetState()

	if *first.OuterColors != *second.OuterColors || first.GoldPosition != second.GoldPosition {
		t.Error("the ring must not change while the round is open")
	}
}

func TestManager_SpinRevealsResolvedOutcome(t *testing.T) {
	mgr, ledger, wallet, _ := newManagerFixture()
	wallet.set("alice", "real", 10000)
	place(t, ledger, 1, "alice", CurrencyReal, BetBlack, 100, 0)

	mgr.tick(time.UnixMilli(241_000))
	state := mgr.GetState()

	if state.Phase != PhaseSpinning {
		t.Fatalf("phase = %s", state.Phase)
	}
	if state.WinningIndex == nil || state.WinningPos == nil {
		t.Fatal("spinning state must expose the winning index")
	}

	out, ok := mgr.risk.Resolved(1)
	if !ok {
		t.Fatal("entering spin should resolve the round")
	}
	if *state.WinningIndex != out.WinningIndex {
		t.Errorf("broadcast index %d, resolved %d", *state.WinningIndex, out.WinningIndex)
	}
	if state.TargetAngle != out.TargetAngle {
		t.Error("broadcast angle should match the resolved outcome")
	}
}

func TestManager_SettlesOncePerRound(t *testing.T) {
	mgr, ledger, wallet, fund := newManagerFixture()
	wallet.set("alice", "real", 10000)
	place(t, ledger, 1, "alice", CurrencyReal, BetOdd, 100, 0)

	// Several ticks inside spin and result: one settlement.
	for _, ms := range []int64{240_500, 245_000, 250_000, 260_000, 299_000} {
		mgr.tick(time.UnixMilli(ms))
	}

	if len(fund.updates) != 1 {
		t.Errorf("fund updated %d times across the round, want 1", len(fund.updates))
	}
}

func TestManager_SettlesWhenSpinWindowMissed(t *testing.T) {
	mgr, ledger, wallet, fund := newManagerFixture()
	wallet.set("alice", "real", 10000)
	place(t, ledger, 1, "alice", CurrencyReal, BetBlack, 100, 0)

	// A loop that skips the whole 15s spin window (a stalled tick, a
	// slow wallet) must still settle from the result phase.
	for _, ms := range []int64{230_000, 260_000, 301_000} {
		mgr.tick(time.UnixMilli(ms))
	}

	if len(fund.updates) != 1 {
		t.Fatalf("fund updated %d times, want 1 settlement despite the missed spin window", len(fund.updates))
	}

	out, ok := mgr.risk.Resolved(1)
	if !ok {
		t.Fatal("round 1 should be resolved")
	}
	res := Settle(ledger.Bets(1)[0], out)
	if got := wallet.deltas["alice|real"]; got != res.Winnings-100 {
		t.Errorf("wallet delta = %d, want %d", got, res.Winnings-100)
	}
}

func TestManager_MinBetFloor(t *testing.T) {
	mgr, _, wallet, _ := newManagerFixture()
	mgr.cfg.MinBet = 50
	wallet.set("alice", "real", 10000)

	resp := mgr.PlaceBet(context.Background(), PlaceBetRequest{
		Username: "alice",
		Type:     BetBlack,
		Amount:   49,
		Currency: CurrencyReal,
	})
	if resp.Success {
		t.Fatalf("bet below the floor should fail: %+v", resp)
	}
	if resp.MaxBet == 0 {
		t.Error("rejection should still echo the active limit")
	}
	if total := mgr.ledger.PendingTotal(mgr.clock.RoundNumber(time.Now()), "alice"); total != 0 {
		t.Errorf("rejection mutated the ledger: pending %d", total)
	}
}

func TestManager_RolloverEvictsOldRounds(t *testing.T) {
	mgr, ledger, wallet, _ := newManagerFixture()
	wallet.set("alice", "real", 1 << 30)

	for round := int64(1); round <= 5; round++ {
		start := (round - 1) * 300_000
		mgr.tick(time.UnixMilli(start + 1_000))
		place(t, ledger, round, "alice", CurrencyReal, BetBlack, 10, 0)
		mgr.tick(time.UnixMilli(start + 241_000))
	}

	if got := ledger.RoundCount(); got != 3 {
		t.Errorf("ledger retains %d rounds, want 3", got)
	}
	if _, ok := mgr.risk.Resolved(1); ok {
		t.Error("round 1 resolution should be evicted by round 5")
	}
	if _, ok := mgr.risk.Resolved(5); !ok {
		t.Error("current round resolution should be retained")
	}
}

func TestManager_MaxBetPerMode(t *testing.T) {
	mgr, _, _, fund := newManagerFixture()
	fund.maxBet = 777

	if got := mgr.MaxBet(CurrencyTrial); got != 5000 {
		t.Errorf("trial max = %d, want the fixed ceiling 5000", got)
	}
	if got := mgr.MaxBet(CurrencyReal); got != 777 {
		t.Errorf("real max = %d, want the fund-derived 777", got)
	}
}
