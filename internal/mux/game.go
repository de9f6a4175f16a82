package mux

import (
	"net/http"

	gmux "github.com/gorilla/mux"

	"pokernight-server/pkg/coordinator"
	"pokernight-server/pkg/engine"
)

type createGameRequest struct {
	CreatorName string          `json:"creator_name"`
	CreatorPIN  string          `json:"creator_pin"`
	Settings    engine.Settings `json:"settings"`
}

type createGameResponse struct {
	Code     string                 `json:"code"`
	PlayerID string                 `json:"player_id"`
	Game     *coordinator.LobbyView `json:"game"`
}

func (m *Mux) postGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createGameRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		code, playerID, lobby, err := m.coordinator.Create(r.Context(), coordinator.CreateRequest{
			CreatorName: payload.CreatorName,
			CreatorPIN:  payload.CreatorPIN,
			Settings:    payload.Settings,
			CreatorIP:   remoteAddr(r),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createGameResponse{
			Code:     code,
			PlayerID: playerID,
			Game:     lobby,
		})
	}
}

type joinGameRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

type joinGameResponse struct {
	PlayerID string                 `json:"player_id"`
	Game     *coordinator.LobbyView `json:"game"`
}

func (m *Mux) postJoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload joinGameRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		playerID, lobby, err := m.coordinator.Join(r.Context(), gameCode(r), payload.Name, payload.PIN)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, joinGameResponse{PlayerID: playerID, Game: lobby})
	}
}

func (m *Mux) getLobby() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobby, err := m.coordinator.Lobby(r.Context(), gameCode(r))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, lobby)
	}
}

func (m *Mux) getState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := gameCode(r)

		var view *engine.View
		var err error
		if playerID := r.FormValue("player_id"); playerID != "" {
			view, err = m.coordinator.State(r.Context(), code, playerID)
		} else {
			view, err = m.coordinator.SpectatorState(r.Context(), code)
		}

		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// playerRequest is the common authenticated body for player operations
type playerRequest struct {
	PlayerID string `json:"player_id"`
	PIN      string `json:"pin"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// playerOp handles the decode-call-respond cycle shared by the simple
// authenticated operations
func (m *Mux) playerOp(op func(r *http.Request, p playerRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload playerRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		if err := op(r, payload); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

type readyRequest struct {
	playerRequest
	Ready *bool `json:"ready"`
}

func (m *Mux) postReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload readyRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		ready := true
		if payload.Ready != nil {
			ready = *payload.Ready
		}

		lobby, err := m.coordinator.SetReady(r.Context(), gameCode(r), payload.PlayerID, payload.PIN, ready)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, lobby)
	}
}

func (m *Mux) postStart() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Start(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

type actionRequest struct {
	playerRequest
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

func (m *Mux) postAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload actionRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		err := m.coordinator.Action(r.Context(), gameCode(r), payload.PlayerID, payload.PIN, engine.Action{
			Type:   payload.Action,
			Amount: payload.Amount,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (m *Mux) postDeal() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Deal(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postRebuy() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Rebuy(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postCancelRebuy() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.CancelRebuy(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postShowCards() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.ShowCards(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postPause() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Pause(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postResume() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Resume(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func (m *Mux) postLeave() http.HandlerFunc {
	return m.playerOp(func(r *http.Request, p playerRequest) error {
		return m.coordinator.Leave(r.Context(), gameCode(r), p.PlayerID, p.PIN)
	})
}

func gameCode(r *http.Request) string {
	return gmux.Vars(r)["code"]
}
