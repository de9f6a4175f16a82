// Package store persists lobby and engine state in a key-value store.
package store

import (
	"context"
	"time"

	"pokernight-server/pkg/engine"
)

// game lifecycle status
const (
	StatusLobby  = "lobby"
	StatusActive = "active"
	StatusEnded  = "ended"
)

// metric names, each backed by a sorted set keyed by timestamp
const (
	MetricCreated   = "created"
	MetricCompleted = "completed"
	MetricCleaned   = "cleaned"
)

// MetricsRetention is how long metric entries are kept
const MetricsRetention = 90 * 24 * time.Hour

// LobbyPlayer is one player in the lobby record
type LobbyPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PINHash   string `json:"pin_hash"`
	IsCreator bool   `json:"is_creator"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
}

// Lobby is the pre-game record for a room code
type Lobby struct {
	Code         string          `json:"code"`
	Status       string          `json:"status"`
	Settings     engine.Settings `json:"settings"`
	Players      []LobbyPlayer   `json:"players"`
	CreatorID    string          `json:"creator_id"`
	CreatedAt    time.Time       `json:"created_at"`
	LastActivity time.Time       `json:"last_activity"`
	CreatorIP    string          `json:"creator_ip,omitempty"`
}

// FindPlayer returns the lobby player with the id, or nil
func (l *Lobby) FindPlayer(id string) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return &l.Players[i]
		}
	}

	return nil
}

// Store is the persistence boundary for games and metrics.
// Load methods return a nil value without an error when the key is absent.
type Store interface {
	SaveLobby(ctx context.Context, lobby *Lobby) error
	LoadLobby(ctx context.Context, code string) (*Lobby, error)

	SaveEngine(ctx context.Context, code string, state []byte) error
	LoadEngine(ctx context.Context, code string) ([]byte, error)

	// DeleteGame removes the lobby, engine, and index entry for the code
	DeleteGame(ctx context.Context, code string) error

	// GameCodes returns every known game code
	GameCodes(ctx context.Context) ([]string, error)

	// RecordMetric appends a lifecycle event to the named metric set
	RecordMetric(ctx context.Context, metric, code string, at time.Time) error

	// PruneMetrics drops metric entries older than the cutoff
	PruneMetrics(ctx context.Context, cutoff time.Time) error

	// MetricCount counts metric entries at or after since
	MetricCount(ctx context.Context, metric string, since time.Time) (int64, error)

	Close() error
}
