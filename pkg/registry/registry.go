// Package registry tracks the live connections for each game and fans the
// authoritative state out to them.
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/engine"
)

// heartbeatInterval is how often pings go out; an entry that fails two
// consecutive sends is dropped
const heartbeatInterval = 25 * time.Second

// Role tags a connection as a seated player or a watcher
type Role string

// roles
const (
	RolePlayer    Role = "PLAYER"
	RoleSpectator Role = "SPECTATOR"
)

// Conn is any duplex channel the registry can push bytes to. The websocket
// client implements it; tests use in-memory fakes.
type Conn interface {
	SendBytes(b []byte) error
	Close() error
}

type entry struct {
	conn     Conn
	role     Role
	failures int
}

type gameConns struct {
	players    map[string]*entry
	spectators map[string]*entry
}

// Registry is the process-wide connection table
type Registry struct {
	mu    sync.Mutex
	games map[string]*gameConns
	clock quartz.Clock
}

// New returns an empty registry
func New(clock quartz.Clock) *Registry {
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Registry{
		games: make(map[string]*gameConns),
		clock: clock,
	}
}

// Register adds a connection for the id. A new connection for the same id
// supersedes the old one, which is closed.
func (r *Registry) Register(code, id string, role Role, conn Conn) {
	r.mu.Lock()
	g, ok := r.games[code]
	if !ok {
		g = &gameConns{
			players:    make(map[string]*entry),
			spectators: make(map[string]*entry),
		}
		r.games[code] = g
	}

	set := g.players
	if role == RoleSpectator {
		set = g.spectators
	}

	old, existed := set[id]
	set[id] = &entry{conn: conn, role: role}
	r.mu.Unlock()

	if existed {
		logrus.WithFields(logrus.Fields{"game": code, "id": id}).
			Debug("superseding existing connection")
		_ = old.conn.Close()
	}

	r.emitConnectionInfo(code)
}

// Unregister removes the connection for the id, if the given conn still owns
// the slot. Passing a nil conn removes unconditionally.
func (r *Registry) Unregister(code, id string, conn Conn) {
	r.mu.Lock()
	removed := false
	if g, ok := r.games[code]; ok {
		for _, set := range []map[string]*entry{g.players, g.spectators} {
			if e, ok := set[id]; ok && (conn == nil || e.conn == conn) {
				delete(set, id)
				removed = true
			}
		}

		if len(g.players) == 0 && len(g.spectators) == 0 {
			delete(r.games, code)
		}
	}
	r.mu.Unlock()

	if removed {
		r.emitConnectionInfo(code)
	}
}

// ConnectedPlayerIDs returns the player ids with live connections
func (r *Registry) ConnectedPlayerIDs(code string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[code]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}

	return ids
}

// SpectatorCount returns the number of connected spectators
func (r *Registry) SpectatorCount(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.games[code]; ok {
		return len(g.spectators)
	}

	return 0
}

// Broadcast sends every connected client its own view of the engine state.
// Players get their filtered view; spectators get the card-free view.
// Iteration works on a copy of the maps so a slow client cannot stall the
// table, and a failed send unregisters the connection.
func (r *Registry) Broadcast(code string, eng *engine.Engine, now time.Time) {
	players, spectators := r.snapshot(code)
	if players == nil && spectators == nil {
		return
	}

	for id, e := range players {
		view := eng.PlayerView(id, now)
		r.send(code, id, e, gameStateMessage{Type: "game_state", Data: view})
	}

	if len(spectators) > 0 {
		view := eng.SpectatorView(now)
		msg := gameStateMessage{Type: "game_state", Data: view}
		for id, e := range spectators {
			r.send(code, id, e, msg)
		}
	}
}

// BroadcastRaw sends the same payload to every connection of the game
func (r *Registry) BroadcastRaw(code string, msg interface{}) {
	players, spectators := r.snapshot(code)
	for id, e := range players {
		r.send(code, id, e, msg)
	}
	for id, e := range spectators {
		r.send(code, id, e, msg)
	}
}

func (r *Registry) snapshot(code string) (map[string]*entry, map[string]*entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[code]
	if !ok {
		return nil, nil
	}

	players := make(map[string]*entry, len(g.players))
	for id, e := range g.players {
		players[id] = e
	}

	spectators := make(map[string]*entry, len(g.spectators))
	for id, e := range g.spectators {
		spectators[id] = e
	}

	return players, spectators
}

func (r *Registry) send(code, id string, e *entry, msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not marshal message")
		return
	}

	if err := e.conn.SendBytes(b); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"game": code, "id": id}).
			Debug("send failed, unregistering connection")
		_ = e.conn.Close()
		r.Unregister(code, id, e.conn)
	}
}

type gameStateMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type connectionInfoMessage struct {
	Type             string   `json:"type"`
	ConnectedPlayers []string `json:"connected_players"`
	SpectatorCount   int      `json:"spectator_count"`
}

type pingMessage struct {
	Type string `json:"type"`
}

func (r *Registry) emitConnectionInfo(code string) {
	r.BroadcastRaw(code, connectionInfoMessage{
		Type:             "connection_info",
		ConnectedPlayers: r.ConnectedPlayerIDs(code),
		SpectatorCount:   r.SpectatorCount(code),
	})
}

// RunHeartbeat pings every connection on an interval until the context ends.
// Two consecutive failed pings drop the connection.
func (r *Registry) RunHeartbeat(ctx context.Context) error {
	return r.clock.TickerFunc(ctx, heartbeatInterval, func() error {
		r.pingAll()
		return nil
	}, "heartbeat").Wait()
}

func (r *Registry) pingAll() {
	b, _ := json.Marshal(pingMessage{Type: "ping"})

	type target struct {
		code string
		id   string
		e    *entry
	}

	r.mu.Lock()
	targets := make([]target, 0)
	for code, g := range r.games {
		for id, e := range g.players {
			targets = append(targets, target{code, id, e})
		}
		for id, e := range g.spectators {
			targets = append(targets, target{code, id, e})
		}
	}
	r.mu.Unlock()

	for _, tg := range targets {
		if err := tg.e.conn.SendBytes(b); err != nil {
			tg.e.failures++
			if tg.e.failures >= 2 {
				logrus.WithFields(logrus.Fields{"game": tg.code, "id": tg.id}).
					Debug("dropping connection after failed pings")
				_ = tg.e.conn.Close()
				r.Unregister(tg.code, tg.id, tg.e.conn)
			}
			continue
		}

		tg.e.failures = 0
	}
}
