package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/engine"
)

// tickInterval is how often the timer driver inspects every game
const tickInterval = time.Second

// errNoop tells mutate the operation decided to do nothing; the state is not
// persisted and nothing is broadcast
var errNoop = errors.New("nothing to do")

// RunTimerDriver wakes about once a second and, for every active unpaused
// game, fires expired turn deadlines (auto-check, else fold) and expired
// auto-deal deadlines
func (c *Coordinator) RunTimerDriver(ctx context.Context) error {
	return c.clock.TickerFunc(ctx, tickInterval, func() error {
		c.scanDeadlines(ctx)
		return nil
	}, "timer-driver").Wait()
}

func (c *Coordinator) scanDeadlines(ctx context.Context) {
	codes, err := c.store.GameCodes(ctx)
	if err != nil {
		logrus.WithError(err).Warn("timer driver could not list games")
		return
	}

	now := c.clock.Now()
	for _, code := range codes {
		raw, err := c.store.LoadEngine(ctx, code)
		if err != nil || raw == nil {
			continue
		}

		e, err := engine.FromJSON(raw)
		if err != nil {
			logrus.WithError(err).WithField("game", code).Warn("timer driver could not rehydrate game")
			continue
		}

		if e.GameOver || e.Paused {
			continue
		}

		switch {
		case e.HandActive && e.ActionDeadline != nil && now.After(*e.ActionDeadline):
			c.fireActionTimeout(ctx, code)
		case !e.HandActive && e.Settings.AutoDealEnabled &&
			e.AutoDealDeadline != nil && now.After(*e.AutoDealDeadline):
			c.fireAutoDeal(ctx, code)
		}
	}
}

// fireActionTimeout folds (or checks, when free) on behalf of the seat whose
// turn clock expired. The deadline is re-verified under the game's mutex: a
// player action may have landed since the scan.
func (c *Coordinator) fireActionTimeout(ctx context.Context, code string) {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if !e.HandActive || e.Paused || e.ActionDeadline == nil || now.Before(*e.ActionDeadline) {
			return errNoop
		}

		playerID := e.ActionOnPlayerID()
		if playerID == "" {
			return errNoop
		}

		s := e.FindSeat(playerID)
		action := engine.Action{Type: engine.ActionFold}
		if s.BetThisRound == e.CurrentBet {
			action.Type = engine.ActionCheck
		}

		logrus.WithFields(logrus.Fields{
			"game":   code,
			"player": playerID,
			"action": action.Type,
		}).Info("turn timeout, acting for player")

		return e.ProcessAction(now, playerID, action)
	})

	if errors.Is(err, errNoop) {
		return
	}

	if err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not auto-act")
		return
	}

	c.broadcast(code, e)
}

// fireAutoDeal starts the next hand once the between-hands delay passes.
// If the table cannot continue the deadline is disarmed.
func (c *Coordinator) fireAutoDeal(ctx context.Context, code string) {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if e.HandActive || e.Paused || e.GameOver ||
			e.AutoDealDeadline == nil || now.Before(*e.AutoDealDeadline) {
			return errNoop
		}

		if err := e.StartHand(now); err != nil {
			logrus.WithError(err).WithField("game", code).Info("auto-deal disarmed")
			e.AutoDealDeadline = nil
			return nil
		}

		logrus.WithFields(logrus.Fields{"game": code, "hand": e.HandNumber}).Info("auto-dealt hand")
		return nil
	})

	if errors.Is(err, errNoop) {
		return
	}

	if err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not auto-deal")
		return
	}

	c.broadcast(code, e)
}
