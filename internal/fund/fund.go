package fund

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mangowheel/internal/config"
)

const (
	TxDeposit         = "deposit"
	TxWithdraw        = "withdraw"
	TxUserWin         = "user_win"
	TxRoundSettlement = "round_settlement"

	// MangosPerUSD fixes the display conversion; USD is always derived,
	// never stored independently.
	MangosPerUSD = 1000

	writeQueueSize = 1024
	writeRetries   = 5
)

var ErrInsufficientFunds = errors.New("fund: balance would go negative")

// Transaction is one append-only audit row.
type Transaction struct {
	Ref          string    `json:"ref"`
	Type         string    `json:"type"`
	AmountMangos int64     `json:"amount_mangos"`
	AmountUSD    float64   `json:"amount_usd"`
	BalanceAfter int64     `json:"balance_after"`
	Username     string    `json:"username,omitempty"`
	RoundNumber  int64     `json:"round_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ledger is the house fund: an in-memory balance serving low-latency
// reads, backed by a durable Postgres transaction log written through an
// async retry queue. Round progression never blocks on the database; a
// failed write retries in the background (the weak-durability trade-off
// is deliberate and logged).
type Ledger struct {
	db  *sql.DB
	cfg *config.Config

	mu         sync.RWMutex
	cached     int64
	maxBetReal int64

	queue    chan Transaction
	stopChan chan struct{}
}

// New builds a ledger. db may be nil (tests, degraded mode); writes then
// stay in memory only.
func New(db *sql.DB, cfg *config.Config) *Ledger {
	return &Ledger{
		db:         db,
		cfg:        cfg,
		maxBetReal: cfg.MaxBetReal,
		queue:      make(chan Transaction, writeQueueSize),
		stopChan:   make(chan struct{}),
	}
}

// Start loads (lazily creating) the persisted balance and launches the
// durable writer.
func (l *Ledger) Start(ctx context.Context) error {
	if l.db != nil {
		if err := l.load(ctx); err != nil {
			return err
		}
		go l.writer()
	}
	l.RecomputeMaxBet(0)
	log.Printf("[FUND] Ledger started: balance %d mangos", l.CachedBalance())
	return nil
}

func (l *Ledger) Stop() {
	close(l.stopChan)
}

// CachedBalance is the fast read used by risk analysis. Staleness is
// bounded to the writes still sitting in the queue, never more than one
// round behind.
func (l *Ledger) CachedBalance() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cached
}

// BalanceUSD derives the display balance.
func (l *Ledger) BalanceUSD() float64 {
	return float64(l.CachedBalance()) / MangosPerUSD
}

func isWithdrawalClass(txType string) bool {
	return txType == TxWithdraw || txType == TxUserWin
}

// Update atomically applies a delta. Withdrawal-class types fail without
// mutation when they would take the balance negative. The durable record
// is queued; the in-memory balance is authoritative immediately.
func (l *Ledger) Update(delta int64, txType, username string, roundNumber int64) (int64, error) {
	l.mu.Lock()
	newBalance := l.cached + delta
	if isWithdrawalClass(txType) && newBalance < 0 {
		current := l.cached
		l.mu.Unlock()
		return current, ErrInsufficientFunds
	}
	l.cached = newBalance
	l.mu.Unlock()

	if newBalance < 0 {
		// Settlement can overdraw when protection failed to bound a
		// round; record it rather than hide it.
		log.Printf("[FUND] Balance negative after %s: %d", txType, newBalance)
	}

	tx := Transaction{
		Ref:          uuid.New().String(),
		Type:         txType,
		AmountMangos: delta,
		AmountUSD:    float64(delta) / MangosPerUSD,
		BalanceAfter: newBalance,
		Username:     username,
		RoundNumber:  roundNumber,
		CreatedAt:    time.Now(),
	}

	select {
	case l.queue <- tx:
	default:
		log.Printf("[FUND] Write queue full, dropping durable record %s", tx.Ref)
	}

	return newBalance, nil
}

// MaxBetReal returns the current fund-derived real-currency bet limit.
func (l *Ledger) MaxBetReal() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.maxBetReal
}

// RecomputeMaxBet derives the next round's real-currency limit: the
// at-risk slice of the fund spread over the online users at the worst
// case win multiplier, clamped to [MinMaxBet, MaxBetReal].
func (l *Ledger) RecomputeMaxBet(onlineUsers int) {
	users := onlineUsers
	if users < l.cfg.OnlineUsersFloor {
		users = l.cfg.OnlineUsersFloor
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	raw := int64(float64(l.cached) * l.cfg.FundRiskPercent / 100)
	raw /= int64(users) * l.cfg.MaxWinMultiplier

	if raw < l.cfg.MinMaxBet {
		raw = l.cfg.MinMaxBet
	}
	if raw > l.cfg.MaxBetReal {
		raw = l.cfg.MaxBetReal
	}
	l.maxBetReal = raw
}

func (l *Ledger) load(ctx context.Context) error {
	var balance int64
	err := l.db.QueryRowContext(ctx,
		`SELECT balance_mangos FROM house_fund WHERE id = 1`).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = l.db.ExecContext(ctx,
			`INSERT INTO house_fund (id, balance_mangos, updated_at) VALUES (1, 0, now())`)
		if err != nil {
			return err
		}
		balance = 0
	} else if err != nil {
		return err
	}

	l.mu.Lock()
	l.cached = balance
	l.mu.Unlock()
	return nil
}

func (l *Ledger) writer() {
	for {
		select {
		case tx := <-l.queue:
			l.persistWithRetry(tx)
		case <-l.stopChan:
			// Drain what we can before shutting down.
			for {
				select {
				case tx := <-l.queue:
					l.persistWithRetry(tx)
				default:
					log.Println("[FUND] Writer stopped")
					return
				}
			}
		}
	}
}

func (l *Ledger) persistWithRetry(tx Transaction) {
	backoff := time.Second
	for attempt := 1; attempt <= writeRetries; attempt++ {
		if err := l.persist(tx); err != nil {
			log.Printf("[FUND] Persist %s attempt %d failed: %v", tx.Ref, attempt, err)
			select {
			case <-time.After(backoff):
			case <-l.stopChan:
			}
			backoff *= 2
			continue
		}
		return
	}
	log.Printf("[FUND] Giving up on durable record %s after %d attempts", tx.Ref, writeRetries)
}

func (l *Ledger) persist(tx Transaction) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	// Records are queued in order, so writing BalanceAfter keeps the
	// stored balance consistent with the log.
	if _, err := dbTx.ExecContext(ctx,
		`UPDATE house_fund SET balance_mangos = $1, updated_at = $2 WHERE id = 1`,
		tx.BalanceAfter, tx.CreatedAt); err != nil {
		return err
	}

	if _, err := dbTx.ExecContext(ctx,
		`INSERT INTO fund_transactions
		   (ref, type, amount_mangos, amount_usd, balance_after, username, round_number, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.Ref, tx.Type, tx.AmountMangos, tx.AmountUSD, tx.BalanceAfter,
		nullableString(tx.Username), nullableInt(tx.RoundNumber), tx.CreatedAt); err != nil {
		return err
	}

	return dbTx.Commit()
}

// Transactions returns the most recent audit rows for the admin surface.
func (l *Ledger) Transactions(ctx context.Context, limit int) ([]Transaction, error) {
	if l.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT ref, type, amount_mangos, amount_usd, balance_after,
		        COALESCE(username, ''), COALESCE(round_number, 0), created_at
		   FROM fund_transactions
		  ORDER BY created_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.Ref, &tx.Type, &tx.AmountMangos, &tx.AmountUSD,
			&tx.BalanceAfter, &tx.Username, &tx.RoundNumber, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
