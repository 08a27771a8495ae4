package engine

import (
	"context"
	"time"
)

// Default adaptive polling cadence.
const (
	defaultPlayingInterval = 5 * time.Second
	defaultIdleInterval    = 60 * time.Second
	defaultErrorInterval   = 30 * time.Second
)

// Intervals configures the adaptive polling cadence.
type Intervals struct {
	Playing time.Duration // Between fetches while something is playing
	Idle    time.Duration // While nothing is playing
	Error   time.Duration // After a terminal failure
}

// DefaultIntervals returns the standard cadence: 5s while playing, 60s
// while idle, 30s after a terminal failure.
func DefaultIntervals() Intervals {
	return Intervals{
		Playing: defaultPlayingInterval,
		Idle:    defaultIdleInterval,
		Error:   defaultErrorInterval,
	}
}

// withDefaults fills zero fields with the default cadence.
func (i Intervals) withDefaults() Intervals {
	def := DefaultIntervals()
	if i.Playing <= 0 {
		i.Playing = def.Playing
	}
	if i.Idle <= 0 {
		i.Idle = def.Idle
	}
	if i.Error <= 0 {
		i.Error = def.Error
	}
	return i
}

// schedulerState tracks where the sync loop is in its cycle.
type schedulerState int

const (
	stateIdle schedulerState = iota
	stateFetching
	stateScheduled
)

// String returns a human-readable representation of the schedulerState
func (s schedulerState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateScheduled:
		return "scheduled"
	default:
		return "idle"
	}
}

// nextInterval selects the polling delay from a settled fetch outcome.
func (e *Engine) nextInterval(snapshot PlaybackSnapshot, err error) time.Duration {
	switch {
	case err != nil:
		return e.intervals.Error
	case snapshot.IsPlaying:
		return e.intervals.Playing
	default:
		return e.intervals.Idle
	}
}

// Run drives periodic fetches at an interval that adapts to the last
// observed state. The engine is the only owner of the polling cadence:
// readers never schedule fetches of their own, they only consult
// Snapshot.
// Blocks until context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().
		Dur("playing_interval", e.intervals.Playing).
		Dur("idle_interval", e.intervals.Idle).
		Dur("error_interval", e.intervals.Error).
		Msg("Starting sync scheduler")

	state := stateIdle
	timer := time.NewTimer(0) // fetch immediately on start
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Stringer("state", state).Msg("Sync scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			state = stateFetching
			snapshot, err := e.Snapshot(ctx)

			interval := e.nextInterval(snapshot, err)
			state = stateScheduled
			timer.Reset(interval)

			e.logger.Debug().
				Stringer("state", state).
				Bool("errored", err != nil).
				Dur("next_fetch_in", interval).
				Msg("Fetch settled")
		}
	}
}
