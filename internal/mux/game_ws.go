package mux

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/apperr"
	"pokernight-server/pkg/registry"
)

// a send that cannot complete within writeWait drops the connection
const writeWait = 5 * time.Second

// the client answers the registry's ping with a pong message; a connection
// silent for longer than readWait is dead
const readWait = 75 * time.Second

const sendBufferSize = 256

// wsClient adapts a websocket connection to the registry's Conn capability
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// SendBytes enqueues a message for the write loop. A full buffer means the
// client has stopped draining, which counts as a failed send.
func (c *wsClient) SendBytes(b []byte) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	select {
	case c.send <- b:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *wsClient) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *wsClient) sendJSON(v interface{}) {
	if b, err := json.Marshal(v); err == nil {
		_ = c.SendBytes(b)
	}
}

func (c *wsClient) writeLoop() {
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readLoop consumes client messages until the connection dies. The only
// message a client sends here is the heartbeat pong.
func (c *wsClient) readLoop() {
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("websocket read failed")
			}
			return
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(msg, &envelope) == nil && envelope.Type == "pong" {
			_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		}
	}
}

type gameStateEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (m *Mux) getGameWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := gameCode(r)
		playerID := r.FormValue("player_id")
		pin := r.FormValue("pin")

		role := registry.RoleSpectator
		id := "spectator:" + uuid.New().String()

		if playerID != "" {
			if err := m.coordinator.Authenticate(r.Context(), code, playerID, pin); err != nil {
				writeError(w, err)
				return
			}

			role = registry.RolePlayer
			id = playerID
		} else if lobby, err := m.coordinator.Lobby(r.Context(), code); err != nil || lobby == nil {
			writeError(w, apperr.E(apperr.NotFound, "game %s not found", code))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}

		client := newWSClient(conn)
		go client.writeLoop()

		m.coordinator.RegisterConn(r.Context(), code, id, role, client)
		m.pushCurrentState(r, code, playerID, client)

		defer func() {
			m.coordinator.UnregisterConn(r.Context(), code, id, role, client)
			_ = client.Close()
		}()

		client.readLoop()
	}
}

// pushCurrentState sends the newly connected client the authoritative state
// so it doesn't wait for the next broadcast
func (m *Mux) pushCurrentState(r *http.Request, code, playerID string, client *wsClient) {
	var view interface{}
	var err error

	if playerID != "" {
		view, err = m.coordinator.State(r.Context(), code, playerID)
	} else {
		view, err = m.coordinator.SpectatorState(r.Context(), code)
	}

	if err == nil {
		client.sendJSON(gameStateEnvelope{Type: "game_state", Data: view})
		return
	}

	if lobby, lerr := m.coordinator.Lobby(r.Context(), code); lerr == nil {
		client.sendJSON(gameStateEnvelope{Type: "lobby_state", Data: lobby})
	}
}
