// Package engine implements the authoritative No-Limit Texas Hold'em state
// machine. An Engine is a deterministic function of its state plus the
// incoming operation: it never reads the wall clock (callers pass now), never
// suspends, and round-trips losslessly through JSON so the session
// coordinator can persist it between operations.
package engine

import (
	"encoding/json"
	"time"

	"pokernight-server/internal/rng"
	"pokernight-server/pkg/apperr"
	"pokernight-server/pkg/deck"
)

// Street is the current betting round
type Street string

// street constants
const (
	StreetPreflop  Street = "preflop"
	StreetFlop     Street = "flop"
	StreetTurn     Street = "turn"
	StreetRiver    Street = "river"
	StreetShowdown Street = "showdown"
	StreetBetween  Street = "between"
)

// autoDealDelay is how long after a hand ends the next hand auto-deals
const autoDealDelay = 10 * time.Second

// Settings are frozen at game creation
type Settings struct {
	StartingChips             int  `json:"starting_chips"`
	SmallBlindInitial         int  `json:"small_blind_initial"`
	BigBlindInitial           int  `json:"big_blind_initial"`
	AllowRebuys               bool `json:"allow_rebuys"`
	MaxRebuys                 int  `json:"max_rebuys"`            // 0 = unlimited
	RebuyCutoffMinutes        int  `json:"rebuy_cutoff_minutes"`  // 0 = none
	TurnTimeoutSeconds        int  `json:"turn_timeout_seconds"`  // 0 = off
	BlindLevelDurationMinutes int  `json:"blind_level_duration_minutes"` // 0 = fixed blinds
	TargetDurationMinutes     int  `json:"target_duration_minutes"`
	AutoDealEnabled           bool `json:"auto_deal_enabled"`
}

// Seat is the per-player state at the table
type Seat struct {
	PlayerID      string    `json:"player_id"`
	Name          string    `json:"name"`
	PINHash       string    `json:"pin_hash"`
	IsCreator     bool      `json:"is_creator"`
	Chips         int       `json:"chips"`
	HoleCards     deck.Hand `json:"hole_cards"`
	BetThisRound  int       `json:"bet_this_round"`
	BetThisHand   int       `json:"bet_this_hand"`
	Folded        bool      `json:"folded"`
	AllIn         bool      `json:"all_in"`
	HasActed      bool      `json:"has_acted"`
	SittingOut    bool      `json:"is_sitting_out"`
	RebuyQueued   bool      `json:"rebuy_queued"`
	HasShownCards bool      `json:"has_shown_cards"`
	LastAction    string    `json:"last_action"`
	RebuyCount    int       `json:"rebuy_count"`
	EliminatedHand int      `json:"eliminated_hand"` // 0 = still in the game
}

// inHand returns true if the seat was dealt in and hasn't folded
func (s *Seat) inHand() bool {
	return !s.SittingOut && !s.Folded && len(s.HoleCards) > 0
}

// canAct returns true if the seat may still take an action this hand
func (s *Seat) canAct() bool {
	return s.inHand() && !s.AllIn && s.Chips > 0
}

// settled returns true if the seat owes no further action this round
func (s *Seat) settled(currentBet int) bool {
	return s.HasActed && s.BetThisRound == currentBet
}

func (s *Seat) resetForNewHand() {
	s.HoleCards = nil
	s.BetThisRound = 0
	s.BetThisHand = 0
	s.Folded = false
	s.AllIn = false
	s.HasActed = false
	s.HasShownCards = false
	s.LastAction = ""
}

func (s *Seat) resetForNewRound() {
	s.BetThisRound = 0
	s.HasActed = false
}

// BlindLevel is one step of the blind schedule
type BlindLevel struct {
	SmallBlind int `json:"small_blind"`
	BigBlind   int `json:"big_blind"`
}

// Pot is a main or side pot
type Pot struct {
	Amount          int      `json:"amount"`
	EligiblePlayers []string `json:"eligible_players"`
}

// HandWinner is one winner entry in a hand result
type HandWinner struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Winnings int    `json:"winnings"`
	Hand     string `json:"hand"`
}

// Refund is an uncalled excess returned without being contested
type Refund struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
}

// ShownHand is a revealed hand in a hand result
type ShownHand struct {
	Cards    deck.Hand `json:"cards"`
	HandName string    `json:"hand_name,omitempty"`
}

// HandResult is the outcome of the most recent completed hand
type HandResult struct {
	Winners        []HandWinner          `json:"winners"`
	Pot            int                   `json:"pot"`
	CommunityCards deck.Hand             `json:"community_cards"`
	PlayerHands    map[string]*ShownHand `json:"player_hands"`
	Refunds        []Refund              `json:"refunds,omitempty"`
}

// Standing is one row of the final standings
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// Engine manages a single poker table
type Engine struct {
	GameCode string   `json:"game_code"`
	Settings Settings `json:"settings"`

	Seats      []*Seat `json:"seats"`
	DealerIdx  int     `json:"dealer_idx"`
	HandNumber int     `json:"hand_number"`

	Street         Street     `json:"street"`
	Deck           *deck.Deck `json:"deck"`
	CommunityCards deck.Hand  `json:"community_cards"`
	ActionOnIdx    int        `json:"action_on_idx"` // -1 = nobody
	CurrentBet     int        `json:"current_bet"`
	MinRaise       int        `json:"min_raise"`
	LastRaiserID   string     `json:"last_raiser_id"`
	Pots           []*Pot     `json:"pots"`
	HandActive     bool       `json:"hand_active"`

	GameStartedAt      time.Time  `json:"game_started_at"`
	Paused             bool       `json:"paused"`
	PauseStartedAt     *time.Time `json:"pause_started_at,omitempty"`
	TotalPausedSeconds int        `json:"total_paused_seconds"`
	ActionDeadline     *time.Time `json:"action_deadline,omitempty"`
	AutoDealDeadline   *time.Time `json:"auto_deal_deadline,omitempty"`

	BlindLevel    int          `json:"blind_level"`
	BlindSchedule []BlindLevel `json:"blind_schedule"`

	GameOver         bool        `json:"game_over"`
	EliminationOrder []string    `json:"elimination_order"`
	LastHandResult   *HandResult `json:"last_hand_result,omitempty"`
	FinalStandings   []Standing  `json:"final_standings,omitempty"`

	gen rng.Generator
}

// NewSeat describes a player joining a new game
type NewSeat struct {
	PlayerID  string
	Name      string
	PINHash   string
	IsCreator bool
}

// New returns a new engine with every seat at the starting stack.
// Seat order is the join order and never changes.
func New(code string, players []NewSeat, settings Settings, now time.Time) *Engine {
	seats := make([]*Seat, len(players))
	for i, p := range players {
		seats[i] = &Seat{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			PINHash:   p.PINHash,
			IsCreator: p.IsCreator,
			Chips:     settings.StartingChips,
		}
	}

	e := &Engine{
		GameCode:      code,
		Settings:      settings,
		Seats:         seats,
		DealerIdx:     0,
		Street:        StreetBetween,
		ActionOnIdx:   -1,
		GameStartedAt: now.UTC(),
		BlindSchedule: BuildBlindSchedule(settings),
		gen:           rng.Crypto{},
	}

	return e
}

// SetRNG overrides the shuffle generator. This should only be used by tests.
func (e *Engine) SetRNG(gen rng.Generator) {
	e.gen = gen
}

// ToJSON serializes the full engine state
func (e *Engine) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON restores an engine from its serialized state
func FromJSON(data []byte) (*Engine, error) {
	var e Engine
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	e.gen = rng.Crypto{}
	return &e, nil
}

// FindSeat returns the seat for the player, or nil
func (e *Engine) FindSeat(playerID string) *Seat {
	if i := e.seatIndex(playerID); i >= 0 {
		return e.Seats[i]
	}

	return nil
}

func (e *Engine) seatIndex(playerID string) int {
	for i, s := range e.Seats {
		if s.PlayerID == playerID {
			return i
		}
	}

	return -1
}

// nextSeatIdx returns the first seat after idx (wrapping) matching the
// predicate, or -1 if no seat matches
func (e *Engine) nextSeatIdx(idx int, match func(*Seat) bool) int {
	n := len(e.Seats)
	for offset := 1; offset <= n; offset++ {
		i := (idx + offset) % n
		if match(e.Seats[i]) {
			return i
		}
	}

	return -1
}

// seatsInHand returns the indices of non-folded, dealt-in seats
func (e *Engine) seatsInHand() []int {
	idxs := make([]int, 0, len(e.Seats))
	for i, s := range e.Seats {
		if s.inHand() {
			idxs = append(idxs, i)
		}
	}

	return idxs
}

func (e *Engine) canActCount() int {
	count := 0
	for _, s := range e.Seats {
		if s.canAct() {
			count++
		}
	}

	return count
}

// liveBets returns the sum of all bets not yet gathered into the pot
func (e *Engine) liveBets() int {
	total := 0
	for _, s := range e.Seats {
		total += s.BetThisRound
	}

	return total
}

// TotalPot returns the gathered pots plus all live bets
func (e *Engine) TotalPot() int {
	total := e.liveBets()
	for _, p := range e.Pots {
		total += p.Amount
	}

	return total
}

// ActionOnPlayerID returns the player whose turn it is, or ""
func (e *Engine) ActionOnPlayerID() string {
	if !e.HandActive || e.ActionOnIdx < 0 || e.ActionOnIdx >= len(e.Seats) {
		return ""
	}

	return e.Seats[e.ActionOnIdx].PlayerID
}

// EffectiveElapsed is wall time since game start excluding paused time
func (e *Engine) EffectiveElapsed(now time.Time) time.Duration {
	elapsed := now.Sub(e.GameStartedAt) - time.Duration(e.TotalPausedSeconds)*time.Second
	if e.Paused && e.PauseStartedAt != nil {
		elapsed -= now.Sub(*e.PauseStartedAt)
	}

	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// CreatorID returns the creator's player id, or ""
func (e *Engine) CreatorID() string {
	for _, s := range e.Seats {
		if s.IsCreator {
			return s.PlayerID
		}
	}

	return ""
}

func errInvalidState(format string, a ...interface{}) error {
	return apperr.E(apperr.InvalidState, format, a...)
}

func errInvalidArgument(format string, a ...interface{}) error {
	return apperr.E(apperr.InvalidArgument, format, a...)
}
