// Package mux is the HTTP boundary over the session coordinator. It stays
// thin: request decoding, PIN plumbing, error mapping, and the websocket
// upgrade.
package mux

import (
	"net/http"

	gmux "github.com/gorilla/mux"

	"pokernight-server/pkg/coordinator"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	coordinator *coordinator.Coordinator
	version     string
}

// NewMux returns a new HTTP mux over the coordinator
func NewMux(version string, c *coordinator.Coordinator) *Mux {
	this := &Mux{
		Router:      gmux.NewRouter(),
		coordinator: c,
		version:     version,
	}

	r := this.Router
	r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	r.Methods(http.MethodGet).Path("/admin/metrics").Handler(this.getAdminMetrics())

	r.Methods(http.MethodPost).Path("/game").Handler(this.postGame())

	gr := r.PathPrefix("/game/{code:[A-Z2-9]{6}}").Subrouter()
	gr.Methods(http.MethodPost).Path("/join").Handler(this.postJoin())
	gr.Methods(http.MethodGet).Path("/lobby").Handler(this.getLobby())
	gr.Methods(http.MethodGet).Path("/state").Handler(this.getState())
	gr.Methods(http.MethodPost).Path("/ready").Handler(this.postReady())
	gr.Methods(http.MethodPost).Path("/start").Handler(this.postStart())
	gr.Methods(http.MethodPost).Path("/action").Handler(this.postAction())
	gr.Methods(http.MethodPost).Path("/deal").Handler(this.postDeal())
	gr.Methods(http.MethodPost).Path("/rebuy").Handler(this.postRebuy())
	gr.Methods(http.MethodPost).Path("/cancel-rebuy").Handler(this.postCancelRebuy())
	gr.Methods(http.MethodPost).Path("/show-cards").Handler(this.postShowCards())
	gr.Methods(http.MethodPost).Path("/pause").Handler(this.postPause())
	gr.Methods(http.MethodPost).Path("/resume").Handler(this.postResume())
	gr.Methods(http.MethodPost).Path("/leave").Handler(this.postLeave())
	gr.Methods(http.MethodGet).Path("/ws").Handler(this.getGameWS())

	return this
}

func (m *Mux) getHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": m.version,
		})
	}
}

func (m *Mux) getAdminMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.coordinator.Metrics(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
