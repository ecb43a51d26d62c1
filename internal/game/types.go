package game

import (
	"time"
)

type CurrencyMode string

const (
	CurrencyReal  CurrencyMode = "real"  // mangos
	CurrencyTrial CurrencyMode = "trial" // fermented mangos
)

type BetType string

const (
	BetBlack  BetType = "black"
	BetWhite  BetType = "white"
	BetEven   BetType = "even"
	BetOdd    BetType = "odd"
	BetGreen  BetType = "green"
	BetPink   BetType = "pink"
	BetGold   BetType = "gold"
	BetNumber BetType = "number"
	BetX      BetType = "x"
)

// Bet is immutable once placed; settlement only reads it.
type Bet struct {
	ID           string       `json:"bet_id"`
	Username     string       `json:"username"`
	Type         BetType      `json:"type"`
	Amount       int64        `json:"amount"`
	TargetNumber int          `json:"target_number,omitempty"`
	Currency     CurrencyMode `json:"currency"`
	PlacedAt     time.Time    `json:"placed_at"`
}

type PlaceBetRequest struct {
	Username     string       `json:"username"`
	Type         BetType      `json:"type"`
	Amount       int64        `json:"amount"`
	TargetNumber int          `json:"target_number,omitempty"`
	Currency     CurrencyMode `json:"currency"`
}

type PlaceBetResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	BetID        string `json:"bet_id,omitempty"`
	PendingTotal int64  `json:"pending_total,omitempty"`
	Balance      int64  `json:"balance,omitempty"`
	MaxBet       int64  `json:"max_bet"`
}

// UserRoundEntry collects one user's bets for one round. All bets in an
// entry share a currency mode; TotalBetAmount is kept in step with every
// append so the balance check never has to walk the slice.
type UserRoundEntry struct {
	Bets           []*Bet       `json:"bets"`
	Currency       CurrencyMode `json:"currency"`
	TotalBetAmount int64        `json:"total_bet_amount"`
}

// RoundStats feeds the risk analyzer's exposure calculation.
type RoundStats struct {
	BetCount     int   `json:"bet_count"`
	PlayerCount  int   `json:"player_count"`
	TotalWagered int64 `json:"total_wagered"`
	TrialWagered int64 `json:"trial_wagered"`
	RealWagered  int64 `json:"real_wagered"`
}

// SettleResult is the outcome of one bet against one winning index.
type SettleResult struct {
	Won        bool  `json:"won"`
	Refunded   bool  `json:"refunded"`
	Multiplier int64 `json:"multiplier"`
	Winnings   int64 `json:"winnings"`
	LossAmount int64 `json:"loss_amount"`
}

// OutcomeCandidate is one of the 51 possible winning indices evaluated
// during risk analysis. Computed fresh each round, never persisted.
type OutcomeCandidate struct {
	Index       int
	Position    WheelPosition
	OuterColor  OuterColor
	TotalPayout int64
	TotalLoss   int64
	HouseProfit int64
	RiskScore   float64
}

// RoundOutcome is the resolved result of a round: the ring layout drawn
// from the round seed plus the final winning index.
type RoundOutcome struct {
	RoundNumber    int64                 `json:"round_number"`
	WinningIndex   int                   `json:"winning_index"`
	Position       WheelPosition         `json:"winning_position"`
	OuterColors    [WheelSize]OuterColor `json:"outer_colors"`
	GoldPosition   int                   `json:"gold_position"`
	GoldMultiplier int64                 `json:"gold_multiplier"`
	TargetAngle    float64               `json:"target_angle"`
	Protected      bool                  `json:"protected"`
	HouseProfit    int64                 `json:"house_profit"`
	Aggressiveness string                `json:"aggressiveness"`
}

// BroadcastState is the canonical per-tick payload. Clients render
// strictly from this; they never compute an outcome locally.
type BroadcastState struct {
	ServerTime     int64                  `json:"server_time"`
	RoundNumber    int64                  `json:"round_number"`
	Phase          Phase                  `json:"phase"`
	RoundStartTime int64                  `json:"round_start_time"`
	PhaseEndsAt    int64                  `json:"phase_ends_at"`
	SpinStartAt    int64                  `json:"spin_start_at"`
	ResultAt       int64                  `json:"result_at"`
	WinningIndex   *int                   `json:"winning_index,omitempty"`
	WinningPos     *WheelPosition         `json:"winning_position,omitempty"`
	TargetAngle    float64                `json:"target_angle,omitempty"`
	OuterColors    *[WheelSize]OuterColor `json:"outer_colors,omitempty"`
	GoldPosition   int                    `json:"gold_position,omitempty"`
	GoldMultiplier int64                  `json:"gold_multiplier,omitempty"`
}

// UserSettlement is the per-user balance delta emitted to the wallet
// subsystem when a round settles.
type UserSettlement struct {
	Username string       `json:"username"`
	Currency CurrencyMode `json:"currency"`
	Delta    int64        `json:"delta"`
	Won      bool         `json:"won"`
}
