package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"mangowheel/internal/config"
)

const BROADCAST_INTERVAL = 500 * time.Millisecond

// Manager drives the round: it ticks the phase clock, triggers outcome
// selection exactly once at the locked->spinning boundary, settles the
// round, evicts stale state on rollover and publishes the canonical
// state through the hub every tick. Bets do not pass through the loop;
// they hit the ledger directly.
type Manager struct {
	cfg    *config.Config
	clock  *PhaseClock
	ledger *BetLedger
	risk   *RiskAnalyzer
	fund   HouseFund
	hub    *Hub

	ctx      context.Context
	stopChan chan struct{}

	mu        sync.RWMutex
	state     *BroadcastState
	lastRound int64
	lastPhase Phase

	ringCache map[int64]*RoundOutcome
}

func NewManager(cfg *config.Config, ledger *BetLedger, risk *RiskAnalyzer, fund HouseFund, hub *Hub) *Manager {
	return &Manager{
		cfg:       cfg,
		clock:     NewPhaseClock(cfg),
		ledger:    ledger,
		risk:      risk,
		fund:      fund,
		hub:       hub,
		ctx:       context.Background(),
		stopChan:  make(chan struct{}),
		ringCache: make(map[int64]*RoundOutcome),
	}
}

func (m *Manager) Start() {
	go m.loop()
}

func (m *Manager) Stop() {
	close(m.stopChan)
}

func (m *Manager) Clock() *PhaseClock {
	return m.clock
}

// PlaceBet routes a bet into the current round under the configured
// floor and the dynamic limit for its currency mode.
func (m *Manager) PlaceBet(ctx context.Context, req PlaceBetRequest) PlaceBetResponse {
	now := time.Now()
	round := m.clock.RoundNumber(now)
	phase := m.clock.Phase(now)

	maxBet := m.MaxBet(req.Currency)
	if req.Amount < m.cfg.MinBet {
		return PlaceBetResponse{
			MaxBet:  maxBet,
			Message: fmt.Sprintf("Bet is below the minimum of %d", m.cfg.MinBet),
		}
	}

	resp := m.ledger.PlaceBet(ctx, round, phase, req, maxBet)
	if resp.Success {
		m.hub.Broadcast(map[string]interface{}{
			"type": "bet_placed",
			"data": map[string]interface{}{
				"username": req.Username,
				"amount":   req.Amount,
				"bet_type": req.Type,
				"round":    round,
			},
		})
	}
	return resp
}

// MaxBet returns the active limit for a currency mode. Trial mode uses a
// fixed ceiling; real mode tracks the house fund.
func (m *Manager) MaxBet(mode CurrencyMode) int64 {
	if mode == CurrencyTrial {
		return m.cfg.MaxBetTrial
	}
	return m.fund.MaxBetReal()
}

// GetState returns the most recently published round state.
func (m *Manager) GetState() *BroadcastState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil
	}
	stateCopy := *m.state
	return &stateCopy
}

func (m *Manager) loop() {
	ticker := time.NewTicker(BROADCAST_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick(time.Now())
		case <-m.stopChan:
			log.Println("[GAME] Round loop stopped")
			return
		}
	}
}

func (m *Manager) tick(now time.Time) {
	round := m.clock.RoundNumber(now)
	phase := m.clock.Phase(now)

	if round != m.lastRound {
		m.ledger.CleanupOldRounds(round)
		m.risk.Cleanup(round)
		m.evictRings(round)
		log.Printf("[GAME] Round %d started", round)
	}

	entered := phase != m.lastPhase || round != m.lastRound
	m.lastRound = round
	m.lastPhase = phase

	var outcome *RoundOutcome
	switch phase {
	case PhaseSpinning, PhaseResult:
		// Resolve is idempotent; entering mid-phase after a restart
		// still lands on the same cached decision.
		outcome = m.risk.Resolve(round)
		// Settle on entering either phase: a loop that never observes
		// the spin window (a stalled prior settlement, a long GC pause)
		// still settles from the result phase. SettleRound is
		// idempotent, so firing twice cannot double-apply.
		if entered {
			m.settle(round, outcome)
		}
	default:
		outcome = m.ring(round)
	}

	state := m.buildState(now, round, phase, outcome)

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.hub.Broadcast(map[string]interface{}{
		"type": "round_tick",
		"data": state,
	})
}

func (m *Manager) settle(round int64, outcome *RoundOutcome) {
	settlements, err := m.risk.SettleRound(m.ctx, round, m.hub.ClientCount())
	if err != nil {
		log.Printf("[GAME] Round %d settlement error: %v", round, err)
		return
	}
	if settlements != nil {
		m.hub.Broadcast(map[string]interface{}{
			"type": "round_result",
			"data": map[string]interface{}{
				"round":         round,
				"winning_index": outcome.WinningIndex,
				"position":      outcome.Position,
				"settlements":   settlements,
			},
		})
	}
}

// ring returns the round's outer-ring layout without touching the
// winning index; players see the board they are betting on while the
// result stays undecided.
func (m *Manager) ring(round int64) *RoundOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if out, ok := m.ringCache[round]; ok {
		return out
	}
	out, _ := CandidateOutcome(round, m.clock.Epoch())
	m.ringCache[round] = out
	return out
}

func (m *Manager) evictRings(current int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for round := range m.ringCache {
		if round < current-RetainedRounds {
			delete(m.ringCache, round)
		}
	}
}

func (m *Manager) buildState(now time.Time, round int64, phase Phase, outcome *RoundOutcome) *BroadcastState {
	sched := m.clock.Schedule(round)

	state := &BroadcastState{
		ServerTime:     now.UnixMilli(),
		RoundNumber:    round,
		Phase:          phase,
		RoundStartTime: sched.RoundStart.UnixMilli(),
		PhaseEndsAt:    m.clock.PhaseEndsAt(now).UnixMilli(),
		SpinStartAt:    sched.SpinStartAt.UnixMilli(),
		ResultAt:       sched.ResultAt.UnixMilli(),
	}

	if outcome != nil {
		state.OuterColors = &outcome.OuterColors
		state.GoldPosition = outcome.GoldPosition
		state.GoldMultiplier = outcome.GoldMultiplier

		// The winning index is only public once the wheel is spinning.
		if phase == PhaseSpinning || phase == PhaseResult {
			idx := outcome.WinningIndex
			pos := outcome.Position
			state.WinningIndex = &idx
			state.WinningPos = &pos
			state.TargetAngle = outcome.TargetAngle
		}
	}
	return state
}
