package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the round timing, bet limit and house protection settings.
// Values come from the environment with defaults matching the production
// wheel: a 300 second round split 210/30/15/45.
type Config struct {
	BettingDuration time.Duration
	WarningDuration time.Duration // last part of the betting window
	LockedDuration  time.Duration
	SpinDuration    time.Duration
	ResultDuration  time.Duration

	// RoundEpoch anchors round numbering; all processes sharing an epoch
	// agree on round numbers and phases.
	RoundEpoch time.Time

	MaxBetReal  int64 // mangos
	MaxBetTrial int64 // fermented mangos, fixed ceiling
	MinBet      int64
	MinMaxBet   int64

	ProtectionThreshold float64 // exposure ratio at which biasing starts
	MaxExposurePercent  float64 // % of house fund considered at risk
	FundRiskPercent     float64 // % of fund backing one round's max bet
	OnlineUsersFloor    int
	MaxWinMultiplier    int64 // worst case single-bet multiplier (gold cap)
}

func Load() *Config {
	return &Config{
		BettingDuration: secondsEnv("BETTING_DURATION", 210),
		WarningDuration: secondsEnv("WARNING_DURATION", 30),
		LockedDuration:  secondsEnv("LOCKED_DURATION", 30),
		SpinDuration:    secondsEnv("SPIN_DURATION", 15),
		ResultDuration:  secondsEnv("RESULT_DURATION", 45),

		RoundEpoch: time.UnixMilli(getEnvAsInt64("ROUND_EPOCH_MS", 0)),

		MaxBetReal:  getEnvAsInt64("MAX_BET_REAL", 10000),
		MaxBetTrial: getEnvAsInt64("MAX_BET_TRIAL", 5000),
		MinBet:      getEnvAsInt64("MIN_BET", 1),
		MinMaxBet:   getEnvAsInt64("MIN_MAX_BET", 100),

		ProtectionThreshold: getEnvAsFloat("PROTECTION_THRESHOLD", 0.5),
		MaxExposurePercent:  getEnvAsFloat("MAX_EXPOSURE_PERCENT", 10),
		FundRiskPercent:     getEnvAsFloat("FUND_RISK_PERCENT", 5),
		OnlineUsersFloor:    getEnvAsInt("ONLINE_USERS_FLOOR", 10),
		MaxWinMultiplier:    getEnvAsInt64("MAX_WIN_MULTIPLIER", 200),
	}
}

// TotalRoundDuration is the full betting->result cycle length. The warning
// window is a sub-state of betting, so it is not added separately.
func (c *Config) TotalRoundDuration() time.Duration {
	return c.BettingDuration + c.LockedDuration + c.SpinDuration + c.ResultDuration
}

func secondsEnv(key string, defaultVal int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultVal)) * time.Second
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
