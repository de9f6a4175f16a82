// Package coordinator serializes every engine mutation per game, persists
// the result, and fans the new state out to connected clients.
package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/apperr"
	"pokernight-server/pkg/engine"
	"pokernight-server/pkg/registry"
	"pokernight-server/pkg/store"
)

// Coordinator owns the per-game locks and drives the background timers
type Coordinator struct {
	store    store.Store
	registry *registry.Registry
	clock    quartz.Clock

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// New returns a coordinator over the given store and registry
func New(st store.Store, reg *registry.Registry, clock quartz.Clock) *Coordinator {
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Coordinator{
		store:    st,
		registry: reg,
		clock:    clock,
		locks:    make(map[string]chan struct{}),
	}
}

// Registry exposes the connection registry for the transport layer
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

// acquire takes the game's mutex. Blocked acquirers queue on a channel, which
// the runtime wakes in FIFO order, so no game starves under sustained load.
func (c *Coordinator) acquire(ctx context.Context, code string) (func(), error) {
	c.mu.Lock()
	lock, ok := c.locks[code]
	if !ok {
		lock = make(chan struct{}, 1)
		c.locks[code] = lock
	}
	c.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HashPIN returns the hex SHA-256 of a PIN
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// mutate runs the load-modify-save protocol: under the game's mutex it loads
// the engine, applies op, verifies the invariants, detects the game-over
// transition, and persists. The returned engine is broadcast by the caller
// outside the lock.
func (c *Coordinator) mutate(ctx context.Context, code string, op func(e *engine.Engine, now time.Time) error) (*engine.Engine, error) {
	release, err := c.acquire(ctx, code)
	if err != nil {
		return nil, err
	}
	defer release()

	raw, err := c.store.LoadEngine(ctx, code)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, apperr.E(apperr.NotFound, "game %s not found", code)
	}

	e, err := engine.FromJSON(raw)
	if err != nil {
		// a state we wrote must always rehydrate
		return nil, apperr.E(apperr.Internal, "could not rehydrate game %s: %v", code, err)
	}

	now := c.clock.Now()
	priorOver := e.GameOver

	if err := op(e, now); err != nil {
		return nil, err
	}

	if err := e.CheckInvariants(); err != nil {
		logrus.WithError(err).WithField("game", code).Warn("invariant violation, not persisting")
		return nil, apperr.E(apperr.Internal, "internal engine error")
	}

	out, err := e.ToJSON()
	if err != nil {
		return nil, apperr.E(apperr.Internal, "could not serialize game %s: %v", code, err)
	}

	if err := c.touchLobby(ctx, code, now, e.GameOver && !priorOver); err != nil {
		return nil, err
	}

	if err := c.store.SaveEngine(ctx, code, out); err != nil {
		return nil, err
	}

	return e, nil
}

// touchLobby refreshes the lobby's activity stamp and, on the game-over
// transition, marks the game ended and records the completion metric
func (c *Coordinator) touchLobby(ctx context.Context, code string, now time.Time, ended bool) error {
	lobby, err := c.store.LoadLobby(ctx, code)
	if err != nil {
		return err
	}

	if lobby == nil {
		return apperr.E(apperr.NotFound, "game %s not found", code)
	}

	lobby.LastActivity = now
	if ended {
		lobby.Status = store.StatusEnded
	}

	if err := c.store.SaveLobby(ctx, lobby); err != nil {
		return err
	}

	if ended {
		if err := c.store.RecordMetric(ctx, store.MetricCompleted, code, now); err != nil {
			logrus.WithError(err).WithField("game", code).Warn("could not record completion metric")
		}

		logrus.WithField("game", code).Info("game completed")
	}

	return nil
}

// broadcast fans the state out to every connection. Never called while
// holding the game's mutex.
func (c *Coordinator) broadcast(code string, e *engine.Engine) {
	c.registry.Broadcast(code, e, c.clock.Now())
}

// verifySeatPIN authenticates a write operation against the engine seat
func verifySeatPIN(e *engine.Engine, playerID, pin string) error {
	s := e.FindSeat(playerID)
	if s == nil {
		return apperr.E(apperr.NotFound, "player not found")
	}

	if HashPIN(pin) != s.PINHash {
		return apperr.E(apperr.Unauthorized, "invalid pin")
	}

	return nil
}

func verifyCreator(e *engine.Engine, playerID string) error {
	if e.CreatorID() != playerID {
		return apperr.E(apperr.Unauthorized, "only the creator can do that")
	}

	return nil
}
