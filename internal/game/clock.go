package game

import (
	"time"

	"mangowheel/internal/config"
)

type Phase string

const (
	PhaseBetting  Phase = "betting"
	PhaseWarning  Phase = "warning" // last stretch of the betting window
	PhaseLocked   Phase = "locked"
	PhaseSpinning Phase = "spinning"
	PhaseResult   Phase = "result"
)

// PhaseClock derives the round number and phase purely from wall-clock
// time and a shared epoch. No state, no side effects: every caller that
// agrees on the epoch and durations agrees on the round.
type PhaseClock struct {
	epoch   time.Time
	betting time.Duration
	warning time.Duration
	locked  time.Duration
	spin    time.Duration
	result  time.Duration
	total   time.Duration
}

func NewPhaseClock(cfg *config.Config) *PhaseClock {
	return &PhaseClock{
		epoch:   cfg.RoundEpoch,
		betting: cfg.BettingDuration,
		warning: cfg.WarningDuration,
		locked:  cfg.LockedDuration,
		spin:    cfg.SpinDuration,
		result:  cfg.ResultDuration,
		total:   cfg.TotalRoundDuration(),
	}
}

func (pc *PhaseClock) Epoch() time.Time {
	return pc.epoch
}

// RoundNumber returns the 1-based round index at the given instant.
func (pc *PhaseClock) RoundNumber(now time.Time) int64 {
	elapsed := now.Sub(pc.epoch)
	if elapsed < 0 {
		return 1
	}
	return int64(elapsed/pc.total) + 1
}

// Phase maps the elapsed time within the current round to a phase.
func (pc *PhaseClock) Phase(now time.Time) Phase {
	elapsed := now.Sub(pc.epoch)
	if elapsed < 0 {
		return PhaseBetting
	}
	inRound := elapsed % pc.total

	switch {
	case inRound < pc.betting-pc.warning:
		return PhaseBetting
	case inRound < pc.betting:
		return PhaseWarning
	case inRound < pc.betting+pc.locked:
		return PhaseLocked
	case inRound < pc.betting+pc.locked+pc.spin:
		return PhaseSpinning
	default:
		return PhaseResult
	}
}

// RoundStart returns the wall-clock instant the given round began.
func (pc *PhaseClock) RoundStart(roundNumber int64) time.Time {
	return pc.epoch.Add(time.Duration(roundNumber-1) * pc.total)
}

// RoundSchedule carries the timestamps clients need to render a round
// without doing any local time math against the durations.
type RoundSchedule struct {
	RoundStart  time.Time
	WarningAt   time.Time
	LockedAt    time.Time
	SpinStartAt time.Time
	ResultAt    time.Time
	RoundEndAt  time.Time
}

func (pc *PhaseClock) Schedule(roundNumber int64) RoundSchedule {
	start := pc.RoundStart(roundNumber)
	return RoundSchedule{
		RoundStart:  start,
		WarningAt:   start.Add(pc.betting - pc.warning),
		LockedAt:    start.Add(pc.betting),
		SpinStartAt: start.Add(pc.betting + pc.locked),
		ResultAt:    start.Add(pc.betting + pc.locked + pc.spin),
		RoundEndAt:  start.Add(pc.total),
	}
}

// PhaseEndsAt returns when the phase active at now rolls over.
func (pc *PhaseClock) PhaseEndsAt(now time.Time) time.Time {
	sched := pc.Schedule(pc.RoundNumber(now))
	switch pc.Phase(now) {
	case PhaseBetting:
		return sched.WarningAt
	case PhaseWarning:
		return sched.LockedAt
	case PhaseLocked:
		return sched.SpinStartAt
	case PhaseSpinning:
		return sched.ResultAt
	default:
		return sched.RoundEndAt
	}
}
