package coordinator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/apperr"
	"pokernight-server/pkg/engine"
	"pokernight-server/pkg/gamecode"
	"pokernight-server/pkg/registry"
	"pokernight-server/pkg/store"
)

// maxPlayers keeps two hole cards per seat plus the board inside one deck
const maxPlayers = 23

var pinRx = regexp.MustCompile(`^\d{4}\z`)

// CreateRequest creates a new game
type CreateRequest struct {
	CreatorName string          `json:"creator_name"`
	CreatorPIN  string          `json:"creator_pin"`
	Settings    engine.Settings `json:"settings"`
	CreatorIP   string          `json:"-"`
}

// LobbyPlayerView is a lobby player without credentials
type LobbyPlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	IsCreator bool   `json:"is_creator"`
}

// LobbyView is the pre-start state sent to clients
type LobbyView struct {
	Code      string            `json:"code"`
	Status    string            `json:"status"`
	Settings  engine.Settings   `json:"settings"`
	Players   []LobbyPlayerView `json:"players"`
	CreatorID string            `json:"creator_id"`
	CreatedAt time.Time         `json:"created_at"`
}

func lobbyView(lobby *store.Lobby) *LobbyView {
	players := make([]LobbyPlayerView, len(lobby.Players))
	for i, p := range lobby.Players {
		players[i] = LobbyPlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Ready:     p.Ready,
			Connected: p.Connected,
			IsCreator: p.IsCreator,
		}
	}

	return &LobbyView{
		Code:      lobby.Code,
		Status:    lobby.Status,
		Settings:  lobby.Settings,
		Players:   players,
		CreatorID: lobby.CreatorID,
		CreatedAt: lobby.CreatedAt,
	}
}

type lobbyStateMessage struct {
	Type string     `json:"type"`
	Data *LobbyView `json:"data"`
}

func (c *Coordinator) broadcastLobby(lobby *store.Lobby) {
	c.registry.BroadcastRaw(lobby.Code, lobbyStateMessage{Type: "lobby_state", Data: lobbyView(lobby)})
}

func validateIdentity(name, pin string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 20 {
		return apperr.E(apperr.InvalidArgument, "name must be 1-20 characters")
	}

	if !pinRx.MatchString(pin) {
		return apperr.E(apperr.InvalidArgument, "pin must be 4 digits")
	}

	return nil
}

// Create creates a new game and seats the creator
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (string, string, *LobbyView, error) {
	if err := validateIdentity(req.CreatorName, req.CreatorPIN); err != nil {
		return "", "", nil, err
	}

	// regenerate on the off chance of a collision
	var code string
	for {
		var err error
		code, err = gamecode.Generate()
		if err != nil {
			return "", "", nil, err
		}

		existing, err := c.store.LoadLobby(ctx, code)
		if err != nil {
			return "", "", nil, err
		}

		if existing == nil {
			break
		}
	}

	now := c.clock.Now()
	playerID := uuid.New().String()

	lobby := &store.Lobby{
		Code:     code,
		Status:   store.StatusLobby,
		Settings: req.Settings,
		Players: []store.LobbyPlayer{{
			ID:        playerID,
			Name:      strings.TrimSpace(req.CreatorName),
			PINHash:   HashPIN(req.CreatorPIN),
			IsCreator: true,
		}},
		CreatorID:    playerID,
		CreatedAt:    now,
		LastActivity: now,
		CreatorIP:    req.CreatorIP,
	}

	if err := c.store.SaveLobby(ctx, lobby); err != nil {
		return "", "", nil, err
	}

	if err := c.store.RecordMetric(ctx, store.MetricCreated, code, now); err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not record creation metric")
	}

	logrus.WithFields(logrus.Fields{"game": code, "creator": lobby.Players[0].Name}).
		Info("game created")

	return code, playerID, lobbyView(lobby), nil
}

// Join adds a player to the lobby. Joining with the name and PIN of an
// existing seat is a reconnect and returns that seat's id.
func (c *Coordinator) Join(ctx context.Context, code, name, pin string) (string, *LobbyView, error) {
	if err := validateIdentity(name, pin); err != nil {
		return "", nil, err
	}

	var playerID string
	var joined *store.Lobby

	err := func() error {
		release, err := c.acquire(ctx, code)
		if err != nil {
			return err
		}
		defer release()

		lobby, err := c.store.LoadLobby(ctx, code)
		if err != nil {
			return err
		}

		if lobby == nil {
			return apperr.E(apperr.NotFound, "game %s not found", code)
		}

		name = strings.TrimSpace(name)
		for _, p := range lobby.Players {
			if strings.EqualFold(p.Name, name) {
				if HashPIN(pin) == p.PINHash {
					// reconnect: same seat, nothing to announce
					playerID = p.ID
					joined = lobby
					return nil
				}

				return apperr.E(apperr.Conflict, "name already taken")
			}
		}

		if lobby.Status != store.StatusLobby {
			return apperr.E(apperr.InvalidState, "game has already started")
		}

		if len(lobby.Players) >= maxPlayers {
			return apperr.E(apperr.Conflict, "game is full")
		}

		playerID = uuid.New().String()
		lobby.Players = append(lobby.Players, store.LobbyPlayer{
			ID:      playerID,
			Name:    name,
			PINHash: HashPIN(pin),
		})
		lobby.LastActivity = c.clock.Now()

		if err := c.store.SaveLobby(ctx, lobby); err != nil {
			return err
		}

		joined = lobby
		return nil
	}()

	if err != nil {
		return "", nil, err
	}

	c.broadcastLobby(joined)
	return playerID, lobbyView(joined), nil
}

// SetReady flips a player's lobby ready flag
func (c *Coordinator) SetReady(ctx context.Context, code, playerID, pin string, ready bool) (*LobbyView, error) {
	var updated *store.Lobby

	err := func() error {
		release, err := c.acquire(ctx, code)
		if err != nil {
			return err
		}
		defer release()

		lobby, err := c.loadLobbyAuth(ctx, code, playerID, pin)
		if err != nil {
			return err
		}

		if lobby.Status != store.StatusLobby {
			return apperr.E(apperr.InvalidState, "game has already started")
		}

		lobby.FindPlayer(playerID).Ready = ready
		lobby.LastActivity = c.clock.Now()

		if err := c.store.SaveLobby(ctx, lobby); err != nil {
			return err
		}

		updated = lobby
		return nil
	}()

	if err != nil {
		return nil, err
	}

	c.broadcastLobby(updated)
	return lobbyView(updated), nil
}

// Leave removes a player from a game that hasn't started
func (c *Coordinator) Leave(ctx context.Context, code, playerID, pin string) error {
	var remaining *store.Lobby

	err := func() error {
		release, err := c.acquire(ctx, code)
		if err != nil {
			return err
		}
		defer release()

		lobby, err := c.loadLobbyAuth(ctx, code, playerID, pin)
		if err != nil {
			return err
		}

		if lobby.Status != store.StatusLobby {
			return apperr.E(apperr.InvalidState, "cannot leave once the game has started")
		}

		for i, p := range lobby.Players {
			if p.ID == playerID {
				lobby.Players = append(lobby.Players[:i], lobby.Players[i+1:]...)
				break
			}
		}

		if len(lobby.Players) == 0 {
			return c.store.DeleteGame(ctx, code)
		}

		// the creator seat passes on if the creator walks away
		if lobby.CreatorID == playerID {
			lobby.CreatorID = lobby.Players[0].ID
			lobby.Players[0].IsCreator = true
		}

		lobby.LastActivity = c.clock.Now()
		if err := c.store.SaveLobby(ctx, lobby); err != nil {
			return err
		}

		remaining = lobby
		return nil
	}()

	if err != nil {
		return err
	}

	if remaining != nil {
		c.broadcastLobby(remaining)
	}

	return nil
}

// Start builds the engine from the lobby and deals the first hand.
// Creator only; every player must be ready.
func (c *Coordinator) Start(ctx context.Context, code, playerID, pin string) error {
	var started *engine.Engine

	release, err := c.acquire(ctx, code)
	if err != nil {
		return err
	}

	err = func() error {
		defer release()

		lobby, err := c.loadLobbyAuth(ctx, code, playerID, pin)
		if err != nil {
			return err
		}

		if lobby.Status != store.StatusLobby {
			return apperr.E(apperr.InvalidState, "game has already started")
		}

		if lobby.CreatorID != playerID {
			return apperr.E(apperr.Unauthorized, "only the creator can start the game")
		}

		if len(lobby.Players) < 2 {
			return apperr.E(apperr.InvalidState, "need at least 2 players to start")
		}

		var notReady []string
		for _, p := range lobby.Players {
			if !p.Ready && !p.IsCreator {
				notReady = append(notReady, p.Name)
			}
		}
		if len(notReady) > 0 {
			return apperr.E(apperr.InvalidState, "players not ready: %s", strings.Join(notReady, ", "))
		}

		seats := make([]engine.NewSeat, len(lobby.Players))
		for i, p := range lobby.Players {
			seats[i] = engine.NewSeat{
				PlayerID:  p.ID,
				Name:      p.Name,
				PINHash:   p.PINHash,
				IsCreator: p.IsCreator,
			}
		}

		now := c.clock.Now()
		e := engine.New(code, seats, lobby.Settings, now)
		if err := e.StartHand(now); err != nil {
			return err
		}

		raw, err := e.ToJSON()
		if err != nil {
			return err
		}

		lobby.Status = store.StatusActive
		lobby.LastActivity = now
		if err := c.store.SaveLobby(ctx, lobby); err != nil {
			return err
		}

		if err := c.store.SaveEngine(ctx, code, raw); err != nil {
			return err
		}

		started = e
		return nil
	}()

	if err != nil {
		return err
	}

	logrus.WithField("game", code).Info("game started")
	c.broadcast(code, started)
	return nil
}

// loadLobbyAuth loads the lobby and authenticates the player's PIN
func (c *Coordinator) loadLobbyAuth(ctx context.Context, code, playerID, pin string) (*store.Lobby, error) {
	lobby, err := c.store.LoadLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	if lobby == nil {
		return nil, apperr.E(apperr.NotFound, "game %s not found", code)
	}

	p := lobby.FindPlayer(playerID)
	if p == nil {
		return nil, apperr.E(apperr.NotFound, "player not found")
	}

	if HashPIN(pin) != p.PINHash {
		return nil, apperr.E(apperr.Unauthorized, "invalid pin")
	}

	return lobby, nil
}

// Authenticate verifies a player's PIN against their seat
func (c *Coordinator) Authenticate(ctx context.Context, code, playerID, pin string) error {
	_, err := c.loadLobbyAuth(ctx, code, playerID, pin)
	return err
}

// State returns the engine view for a player. An unknown game is NotFound; a
// game still in its lobby is InvalidState (its pre-start view comes from Lobby())
func (c *Coordinator) State(ctx context.Context, code, playerID string) (*engine.View, error) {
	raw, err := c.store.LoadEngine(ctx, code)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		lobby, err := c.store.LoadLobby(ctx, code)
		if err != nil {
			return nil, err
		}

		if lobby == nil {
			return nil, apperr.E(apperr.NotFound, "game %s not found", code)
		}

		return nil, apperr.E(apperr.InvalidState, "game has not started")
	}

	e, err := engine.FromJSON(raw)
	if err != nil {
		return nil, apperr.E(apperr.Internal, "could not rehydrate game %s: %v", code, err)
	}

	return e.PlayerView(playerID, c.clock.Now()), nil
}

// SpectatorState returns the view with every hole card hidden
func (c *Coordinator) SpectatorState(ctx context.Context, code string) (*engine.View, error) {
	raw, err := c.store.LoadEngine(ctx, code)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, apperr.E(apperr.NotFound, "game %s not found", code)
	}

	e, err := engine.FromJSON(raw)
	if err != nil {
		return nil, apperr.E(apperr.Internal, "could not rehydrate game %s: %v", code, err)
	}

	return e.SpectatorView(c.clock.Now()), nil
}

// Lobby returns the sanitized lobby record
func (c *Coordinator) Lobby(ctx context.Context, code string) (*LobbyView, error) {
	lobby, err := c.store.LoadLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	if lobby == nil {
		return nil, apperr.E(apperr.NotFound, "game %s not found", code)
	}

	return lobbyView(lobby), nil
}

// Action applies a player action to the hand
func (c *Coordinator) Action(ctx context.Context, code, playerID, pin string, action engine.Action) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		return e.ProcessAction(now, playerID, action)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// Deal starts the next hand. Creator only.
func (c *Coordinator) Deal(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		if err := verifyCreator(e, playerID); err != nil {
			return err
		}

		return e.StartHand(now)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// Rebuy restores a busted player's stack, queueing during an active hand
func (c *Coordinator) Rebuy(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		return e.Rebuy(now, playerID)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// CancelRebuy clears a queued rebuy
func (c *Coordinator) CancelRebuy(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		return e.CancelRebuy(playerID)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// ShowCards voluntarily reveals a player's hole cards
func (c *Coordinator) ShowCards(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		return e.ShowCards(playerID)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// Pause freezes the game between hands. Creator only.
func (c *Coordinator) Pause(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		if err := verifyCreator(e, playerID); err != nil {
			return err
		}

		return e.Pause(now)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// Resume unfreezes a paused game. Creator only.
func (c *Coordinator) Resume(ctx context.Context, code, playerID, pin string) error {
	e, err := c.mutate(ctx, code, func(e *engine.Engine, now time.Time) error {
		if err := verifySeatPIN(e, playerID, pin); err != nil {
			return err
		}

		if err := verifyCreator(e, playerID); err != nil {
			return err
		}

		return e.Resume(now)
	})

	if err != nil {
		return err
	}

	c.broadcast(code, e)
	return nil
}

// MarkConnected records a player's connection state on the lobby record
func (c *Coordinator) MarkConnected(ctx context.Context, code, playerID string, connected bool) {
	release, err := c.acquire(ctx, code)
	if err != nil {
		return
	}
	defer release()

	lobby, err := c.store.LoadLobby(ctx, code)
	if err != nil || lobby == nil {
		return
	}

	p := lobby.FindPlayer(playerID)
	if p == nil || p.Connected == connected {
		return
	}

	p.Connected = connected
	if err := c.store.SaveLobby(ctx, lobby); err != nil {
		logrus.WithError(err).WithField("game", code).Warn("could not update connection state")
	}
}

// MetricsSummary is the admin rollup of game lifecycle counts
type MetricsSummary struct {
	Created24h   int64 `json:"games_created_24h"`
	Completed24h int64 `json:"games_completed_24h"`
	Cleaned24h   int64 `json:"games_cleaned_24h"`
	ActiveGames  int   `json:"active_games_count"`
}

// Metrics returns lifecycle counts for the last 24 hours
func (c *Coordinator) Metrics(ctx context.Context) (*MetricsSummary, error) {
	since := c.clock.Now().Add(-24 * time.Hour)

	summary := &MetricsSummary{}
	var err error

	if summary.Created24h, err = c.store.MetricCount(ctx, store.MetricCreated, since); err != nil {
		return nil, err
	}

	if summary.Completed24h, err = c.store.MetricCount(ctx, store.MetricCompleted, since); err != nil {
		return nil, err
	}

	if summary.Cleaned24h, err = c.store.MetricCount(ctx, store.MetricCleaned, since); err != nil {
		return nil, err
	}

	codes, err := c.store.GameCodes(ctx)
	if err != nil {
		return nil, err
	}

	summary.ActiveGames = len(codes)
	return summary, nil
}

// RegisterConn attaches a connection and flags the player as connected
func (c *Coordinator) RegisterConn(ctx context.Context, code, id string, role registry.Role, conn registry.Conn) {
	c.registry.Register(code, id, role, conn)

	if role == registry.RolePlayer {
		c.MarkConnected(ctx, code, id, true)
	}
}

// UnregisterConn detaches a connection
func (c *Coordinator) UnregisterConn(ctx context.Context, code, id string, role registry.Role, conn registry.Conn) {
	c.registry.Unregister(code, id, conn)

	if role == registry.RolePlayer {
		c.MarkConnected(ctx, code, id, false)
	}
}
