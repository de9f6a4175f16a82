package engine

import (
	"time"

	"pokernight-server/pkg/deck"
)

// SeatView is a seat as seen by a viewer. Hole cards are only present for
// seats that reached showdown unfolded and chose to show.
type SeatView struct {
	PlayerID       string    `json:"player_id"`
	Name           string    `json:"name"`
	IsCreator      bool      `json:"is_creator"`
	Chips          int       `json:"chips"`
	BetThisRound   int       `json:"bet_this_round"`
	BetThisHand    int       `json:"bet_this_hand"`
	Folded         bool      `json:"folded"`
	AllIn          bool      `json:"all_in"`
	SittingOut     bool      `json:"is_sitting_out"`
	RebuyQueued    bool      `json:"rebuy_queued"`
	HasShownCards  bool      `json:"has_shown_cards"`
	LastAction     string    `json:"last_action"`
	RebuyCount     int       `json:"rebuy_count"`
	EliminatedHand int       `json:"eliminated_hand,omitempty"`
	HoleCards      deck.Hand `json:"hole_cards,omitempty"`
}

// View is the authoritative state as seen by one viewer
type View struct {
	GameCode           string        `json:"game_code"`
	HandNumber         int           `json:"hand_number"`
	Street             Street        `json:"street"`
	Pot                int           `json:"pot"`
	CommunityCards     deck.Hand     `json:"community_cards"`
	DealerPlayerID     string        `json:"dealer_player_id"`
	ActionOn           string        `json:"action_on,omitempty"`
	CurrentBet         int           `json:"current_bet"`
	MinRaise           int           `json:"min_raise"`
	HandActive         bool          `json:"hand_active"`
	GameOver           bool          `json:"game_over"`
	Paused             bool          `json:"paused"`
	Message            string        `json:"message,omitempty"`
	LastHandResult     *HandResult   `json:"last_hand_result,omitempty"`
	Players            []SeatView    `json:"players"`
	MyCards            deck.Hand     `json:"my_cards,omitempty"`
	ValidActions       []ValidAction `json:"valid_actions,omitempty"`
	TurnTimeout        int           `json:"turn_timeout"`
	ActionDeadline     *time.Time    `json:"action_deadline,omitempty"`
	AutoDealDeadline   *time.Time    `json:"auto_deal_deadline,omitempty"`
	GameStartedAt      time.Time     `json:"game_started_at"`
	TotalPausedSeconds int           `json:"total_paused_seconds"`
	SmallBlind         int           `json:"small_blind"`
	BigBlind           int           `json:"big_blind"`
	BlindLevel         int           `json:"blind_level"`
	BlindLevelDuration int           `json:"blind_level_duration"`
	BlindSchedule      []BlindLevel  `json:"blind_schedule,omitempty"`
	NextBlindChangeAt  *time.Time    `json:"next_blind_change_at,omitempty"`
	AllowRebuys        bool          `json:"allow_rebuys"`
	MaxRebuys          int           `json:"max_rebuys"`
	RebuyCutoffMinutes int           `json:"rebuy_cutoff_minutes"`
	FinalStandings     []Standing    `json:"final_standings,omitempty"`
}

// PlayerView builds the state as seen by the given player: their own hole
// cards in my_cards, valid actions only when they are on the clock, and
// everyone else's cards hidden
func (e *Engine) PlayerView(viewerID string, now time.Time) *View {
	v := e.baseView(now)

	if s := e.FindSeat(viewerID); s != nil {
		v.MyCards = s.HoleCards.Clone()
	}

	v.ValidActions = e.ValidActions(viewerID)
	return v
}

// SpectatorView builds the state with every hole card hidden
func (e *Engine) SpectatorView(now time.Time) *View {
	v := e.baseView(now)
	for i := range v.Players {
		v.Players[i].HoleCards = nil
	}

	return v
}

func (e *Engine) baseView(now time.Time) *View {
	sb, bb := e.Blinds()

	players := make([]SeatView, len(e.Seats))
	for i, s := range e.Seats {
		players[i] = SeatView{
			PlayerID:       s.PlayerID,
			Name:           s.Name,
			IsCreator:      s.IsCreator,
			Chips:          s.Chips,
			BetThisRound:   s.BetThisRound,
			BetThisHand:    s.BetThisHand,
			Folded:         s.Folded,
			AllIn:          s.AllIn,
			SittingOut:     s.SittingOut,
			RebuyQueued:    s.RebuyQueued,
			HasShownCards:  s.HasShownCards,
			LastAction:     s.LastAction,
			RebuyCount:     s.RebuyCount,
			EliminatedHand: s.EliminatedHand,
		}

		if e.Street == StreetShowdown && !s.Folded && s.HasShownCards {
			players[i].HoleCards = s.HoleCards.Clone()
		}
	}

	return &View{
		GameCode:           e.GameCode,
		HandNumber:         e.HandNumber,
		Street:             e.Street,
		Pot:                e.TotalPot(),
		CommunityCards:     e.CommunityCards.Clone(),
		DealerPlayerID:     e.Seats[e.DealerIdx].PlayerID,
		ActionOn:           e.ActionOnPlayerID(),
		CurrentBet:         e.CurrentBet,
		MinRaise:           e.MinRaise,
		HandActive:         e.HandActive,
		GameOver:           e.GameOver,
		Paused:             e.Paused,
		LastHandResult:     e.LastHandResult,
		Players:            players,
		TurnTimeout:        e.Settings.TurnTimeoutSeconds,
		ActionDeadline:     e.ActionDeadline,
		AutoDealDeadline:   e.AutoDealDeadline,
		GameStartedAt:      e.GameStartedAt,
		TotalPausedSeconds: e.TotalPausedSeconds,
		SmallBlind:         sb,
		BigBlind:           bb,
		BlindLevel:         e.CurrentLevel(now),
		BlindLevelDuration: e.Settings.BlindLevelDurationMinutes,
		BlindSchedule:      e.BlindSchedule,
		NextBlindChangeAt:  e.NextBlindChangeAt(now),
		AllowRebuys:        e.Settings.AllowRebuys,
		MaxRebuys:          e.Settings.MaxRebuys,
		RebuyCutoffMinutes: e.Settings.RebuyCutoffMinutes,
		FinalStandings:     e.FinalStandings,
	}
}
