package engine

import (
	"time"
)

// Pause stops the clocks between hands. While paused there is no action
// deadline, no auto-deal, and no blind progression; paused time is excluded
// from the effective elapsed time.
func (e *Engine) Pause(now time.Time) error {
	if e.HandActive {
		return errInvalidState("cannot pause during a hand")
	}

	if e.GameOver {
		return errInvalidState("game is over")
	}

	if e.Paused {
		return errInvalidState("game is already paused")
	}

	at := now.UTC()
	e.Paused = true
	e.PauseStartedAt = &at

	return nil
}

// Resume restarts the clocks, folding the paused duration into the total
func (e *Engine) Resume(now time.Time) error {
	if !e.Paused || e.PauseStartedAt == nil {
		return errInvalidState("game is not paused")
	}

	e.TotalPausedSeconds += int(now.Sub(*e.PauseStartedAt).Seconds())
	e.Paused = false
	e.PauseStartedAt = nil

	// the auto-deal countdown starts over
	if e.AutoDealDeadline != nil {
		deadline := now.Add(autoDealDelay)
		e.AutoDealDeadline = &deadline
	}

	return nil
}
