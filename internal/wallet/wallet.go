package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// The wallet subsystem is an external collaborator; this client reads and
// applies per-user balance deltas against its Redis store. Trial and real
// currency are independent economies: fermented mangos / expired juice on
// the trial side, mangos / mango juice on the real side.

const (
	KEY_PREFIX = "wallet:"

	fieldMangos       = "mangos"
	fieldFermented    = "fermented_mangos"
	fieldExpiredJuice = "expired_juice"
	fieldMangoJuice   = "mango_juice"

	ModeReal  = "real"
	ModeTrial = "trial"
)

var (
	ErrUnknownMode     = errors.New("wallet: unknown currency mode")
	ErrNegativeBalance = errors.New("wallet: balance would go negative")
)

type Balance struct {
	FermentedMangos int64 `json:"fermented_mangos"`
	Mangos          int64 `json:"mangos"`
	ExpiredJuice    int64 `json:"expired_juice"`
	MangoJuice      int64 `json:"mango_juice"`
}

type Service struct {
	client *redis.Client
}

func New(client *redis.Client) *Service {
	return &Service{client: client}
}

func balanceField(mode string) (string, error) {
	switch mode {
	case ModeReal:
		return fieldMangos, nil
	case ModeTrial:
		return fieldFermented, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// Balance returns all four balances for a user; absent fields read zero.
func (s *Service) Balance(ctx context.Context, username string) (Balance, error) {
	vals, err := s.client.HGetAll(ctx, KEY_PREFIX+username).Result()
	if err != nil {
		return Balance{}, err
	}

	parse := func(field string) int64 {
		var n int64
		fmt.Sscanf(vals[field], "%d", &n)
		return n
	}
	return Balance{
		FermentedMangos: parse(fieldFermented),
		Mangos:          parse(fieldMangos),
		ExpiredJuice:    parse(fieldExpiredJuice),
		MangoJuice:      parse(fieldMangoJuice),
	}, nil
}

// BalanceFor reads the bettable balance for one currency mode.
func (s *Service) BalanceFor(ctx context.Context, username, mode string) (int64, error) {
	field, err := balanceField(mode)
	if err != nil {
		return 0, err
	}
	val, err := s.client.HGet(ctx, KEY_PREFIX+username, field).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// ApplyDelta atomically adjusts one balance. A delta that would drive
// the balance negative is rolled back and rejected.
func (s *Service) ApplyDelta(ctx context.Context, username, mode string, delta int64) (int64, error) {
	field, err := balanceField(mode)
	if err != nil {
		return 0, err
	}

	newBalance, err := s.client.HIncrBy(ctx, KEY_PREFIX+username, field, delta).Result()
	if err != nil {
		return 0, err
	}
	if newBalance < 0 {
		if _, rbErr := s.client.HIncrBy(ctx, KEY_PREFIX+username, field, -delta).Result(); rbErr != nil {
			// The balance is now negative in Redis; this needs an
			// operator's eye, not silence.
			log.Printf("[WALLET] Rollback of delta %d for %s/%s failed: %v", delta, username, mode, rbErr)
		}
		log.Printf("[WALLET] Rejected delta %d for %s/%s: would go negative", delta, username, mode)
		return newBalance - delta, ErrNegativeBalance
	}
	return newBalance, nil
}

// SetBalance overwrites one balance, used by the admin/testing surface.
func (s *Service) SetBalance(ctx context.Context, username, mode string, amount int64) error {
	field, err := balanceField(mode)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, KEY_PREFIX+username, field, amount).Err()
}
