package coordinator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/store"
)

// sweep cadence and staleness thresholds
const (
	sweepInterval  = 30 * time.Minute
	staleActive    = 24 * time.Hour
	staleCompleted = 72 * time.Hour
)

// RunSweeper periodically deletes games nobody has touched: after a day for
// abandoned games, after three for finished ones so players can still read
// the result
func (c *Coordinator) RunSweeper(ctx context.Context) error {
	return c.clock.TickerFunc(ctx, sweepInterval, func() error {
		c.sweep(ctx)
		return nil
	}, "sweeper").Wait()
}

func (c *Coordinator) sweep(ctx context.Context) {
	codes, err := c.store.GameCodes(ctx)
	if err != nil {
		logrus.WithError(err).Warn("sweeper could not list games")
		return
	}

	deleted := 0
	for _, code := range codes {
		if c.sweepGame(ctx, code) {
			deleted++
		}
	}

	if err := c.store.PruneMetrics(ctx, c.clock.Now().Add(-store.MetricsRetention)); err != nil {
		logrus.WithError(err).Warn("could not prune metrics")
	}

	if deleted > 0 {
		logrus.WithField("count", deleted).Info("swept stale games")
	}
}

func (c *Coordinator) sweepGame(ctx context.Context, code string) bool {
	release, err := c.acquire(ctx, code)
	if err != nil {
		return false
	}
	defer release()

	lobby, err := c.store.LoadLobby(ctx, code)
	if err != nil {
		return false
	}

	now := c.clock.Now()

	if lobby == nil {
		// orphaned index entry
		_ = c.store.DeleteGame(ctx, code)
		return false
	}

	threshold := staleActive
	if lobby.Status == store.StatusEnded {
		threshold = staleCompleted
	}

	if now.Sub(lobby.LastActivity) < threshold {
		return false
	}

	if err := c.store.DeleteGame(ctx, code); err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not delete stale game")
		return false
	}

	if err := c.store.RecordMetric(ctx, store.MetricCleaned, code, now); err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not record cleanup metric")
	}

	logrus.WithFields(logrus.Fields{
		"game":   code,
		"status": lobby.Status,
		"idle":   now.Sub(lobby.LastActivity).Truncate(time.Minute).String(),
	}).Info("cleaned up stale game")

	return true
}
