package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RetainedRounds is how many settled rounds stay in memory behind the
// current one before eviction.
const RetainedRounds = 2

// WalletService is the external wallet boundary the ledger checks
// balances against. Settlement deltas go through the same interface.
type WalletService interface {
	BalanceFor(ctx context.Context, username, mode string) (int64, error)
	ApplyDelta(ctx context.Context, username, mode string, delta int64) (int64, error)
}

type userEntry struct {
	mu sync.Mutex
	UserRoundEntry
}

// BetLedger holds every placed bet for the retained rounds. Placements
// for the same (round, username) serialize on the entry lock so the
// balance check and the append are one critical section; different users
// proceed in parallel.
type BetLedger struct {
	mu     sync.RWMutex
	rounds map[int64]map[string]*userEntry
	wallet WalletService
}

func NewBetLedger(wallet WalletService) *BetLedger {
	return &BetLedger{
		rounds: make(map[int64]map[string]*userEntry),
		wallet: wallet,
	}
}

func (l *BetLedger) entry(round int64, username string) *userEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, ok := l.rounds[round]
	if !ok {
		book = make(map[string]*userEntry)
		l.rounds[round] = book
	}
	e, ok := book[username]
	if !ok {
		e = &userEntry{}
		book[username] = e
	}
	return e
}

// PlaceBet validates and records one bet for the given round. maxBet is
// the dynamic per-currency limit derived from the house fund. Rejections
// never mutate the entry.
func (l *BetLedger) PlaceBet(ctx context.Context, round int64, phase Phase, req PlaceBetRequest, maxBet int64) PlaceBetResponse {
	resp := PlaceBetResponse{MaxBet: maxBet}

	if phase != PhaseBetting && phase != PhaseWarning {
		resp.Message = "Betting is closed for this round"
		return resp
	}
	if req.Username == "" {
		resp.Message = "Username is required"
		return resp
	}
	if req.Amount <= 0 {
		resp.Message = "Bet amount must be positive"
		return resp
	}
	if !ValidBetType(req.Type) {
		resp.Message = fmt.Sprintf("Unknown bet type %q", req.Type)
		return resp
	}
	if req.Type == BetNumber && !ValidTargetNumber(req.TargetNumber) {
		resp.Message = "Number bets need a target between 1 and 48"
		return resp
	}
	if req.Currency != CurrencyReal && req.Currency != CurrencyTrial {
		resp.Message = fmt.Sprintf("Unknown currency mode %q", req.Currency)
		return resp
	}
	if req.Amount > maxBet {
		resp.Message = fmt.Sprintf("Bet exceeds the current max of %d", maxBet)
		return resp
	}

	e := l.entry(round, req.Username)
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.Bets) > 0 && e.Currency != req.Currency {
		resp.Message = fmt.Sprintf("Round already has %s bets; one currency per round", e.Currency)
		return resp
	}

	balance, err := l.wallet.BalanceFor(ctx, req.Username, string(req.Currency))
	if err != nil {
		resp.Message = "Wallet unavailable, try again"
		return resp
	}
	if e.TotalBetAmount+req.Amount > balance {
		resp.Balance = balance
		resp.PendingTotal = e.TotalBetAmount
		resp.Message = fmt.Sprintf("Insufficient balance: %d pending, %d available", e.TotalBetAmount, balance)
		return resp
	}

	bet := &Bet{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Type:         req.Type,
		Amount:       req.Amount,
		TargetNumber: req.TargetNumber,
		Currency:     req.Currency,
		PlacedAt:     time.Now(),
	}
	e.Bets = append(e.Bets, bet)
	e.Currency = req.Currency
	e.TotalBetAmount += req.Amount

	resp.Success = true
	resp.Message = "Bet placed"
	resp.BetID = bet.ID
	resp.PendingTotal = e.TotalBetAmount
	resp.Balance = balance

	log.Printf("[BET] %s placed %d %s on %s (round %d, pending %d)",
		req.Username, req.Amount, req.Currency, req.Type, round, e.TotalBetAmount)
	return resp
}

// PendingTotal returns the user's committed total for the round.
func (l *BetLedger) PendingTotal(round int64, username string) int64 {
	l.mu.RLock()
	book := l.rounds[round]
	e, ok := book[username]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.TotalBetAmount
}

// Bets returns a snapshot of every bet placed in the round.
func (l *BetLedger) Bets(round int64) []*Bet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var bets []*Bet
	for _, e := range l.rounds[round] {
		e.mu.Lock()
		bets = append(bets, e.Bets...)
		e.mu.Unlock()
	}
	return bets
}

// RoundStats aggregates the round for the risk analyzer.
func (l *BetLedger) RoundStats(round int64) RoundStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stats RoundStats
	for _, e := range l.rounds[round] {
		e.mu.Lock()
		if len(e.Bets) > 0 {
			stats.PlayerCount++
			stats.BetCount += len(e.Bets)
			stats.TotalWagered += e.TotalBetAmount
			if e.Currency == CurrencyTrial {
				stats.TrialWagered += e.TotalBetAmount
			} else {
				stats.RealWagered += e.TotalBetAmount
			}
		}
		e.mu.Unlock()
	}
	return stats
}

// CleanupOldRounds evicts rounds outside the retention window: the
// current round and RetainedRounds prior ones survive.
func (l *BetLedger) CleanupOldRounds(current int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for round := range l.rounds {
		if round < current-RetainedRounds {
			delete(l.rounds, round)
			log.Printf("[BET] Evicted round %d", round)
		}
	}
}

// RoundCount reports how many rounds are currently retained.
func (l *BetLedger) RoundCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rounds)
}
