package registry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokernight-server/pkg/engine"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	sendErr  error
}

func (c *fakeConn) SendBytes(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	c.messages = append(c.messages, cp)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messagesOfType(t string) []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []map[string]interface{}
	for _, raw := range c.messages {
		var m map[string]interface{}
		if json.Unmarshal(raw, &m) == nil && m["type"] == t {
			out = append(out, m)
		}
	}

	return out
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	e := engine.New("GAMEXX", []engine.NewSeat{
		{PlayerID: "p1", Name: "Alice", IsCreator: true},
		{PlayerID: "p2", Name: "Bob"},
	}, engine.Settings{
		StartingChips:     1000,
		SmallBlindInitial: 10,
		BigBlindInitial:   20,
	}, t0)

	require.NoError(t, e.StartHand(t0))
	return e
}

func TestRegistry_RegisterEmitsConnectionInfo(t *testing.T) {
	a := assert.New(t)
	r := New(nil)

	c1 := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, c1)

	infos := c1.messagesOfType("connection_info")
	require.Len(t, infos, 1)
	a.Equal([]interface{}{"p1"}, infos[0]["connected_players"])
	a.Equal(float64(0), infos[0]["spectator_count"])

	c2 := &fakeConn{}
	r.Register("GAMEXX", "spec-1", RoleSpectator, c2)
	a.Equal(1, r.SpectatorCount("GAMEXX"))
	a.Equal([]string{"p1"}, r.ConnectedPlayerIDs("GAMEXX"))

	infos = c1.messagesOfType("connection_info")
	require.Len(t, infos, 2)
	a.Equal(float64(1), infos[1]["spectator_count"])
}

// a second connection for the same player supersedes the
// first, and the player stays listed exactly once
func TestRegistry_ReconnectSupersedes(t *testing.T) {
	a := assert.New(t)
	r := New(nil)

	c1 := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, c1)

	c2 := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, c2)

	a.True(c1.isClosed())
	a.False(c2.isClosed())
	a.Equal([]string{"p1"}, r.ConnectedPlayerIDs("GAMEXX"))

	infos := c2.messagesOfType("connection_info")
	require.NotEmpty(t, infos)
	a.Equal([]interface{}{"p1"}, infos[len(infos)-1]["connected_players"])

	// the stale connection's delayed disconnect must not evict the new one
	r.Unregister("GAMEXX", "p1", c1)
	a.Equal([]string{"p1"}, r.ConnectedPlayerIDs("GAMEXX"))

	r.Unregister("GAMEXX", "p1", c2)
	a.Empty(r.ConnectedPlayerIDs("GAMEXX"))
}

func TestRegistry_BroadcastFiltersViews(t *testing.T) {
	a := assert.New(t)
	r := New(nil)
	e := newTestEngine(t)

	p1 := &fakeConn{}
	p2 := &fakeConn{}
	spec := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, p1)
	r.Register("GAMEXX", "p2", RolePlayer, p2)
	r.Register("GAMEXX", "watcher", RoleSpectator, spec)

	r.Broadcast("GAMEXX", e, t0)

	states := p1.messagesOfType("game_state")
	require.Len(t, states, 1)
	data := states[0]["data"].(map[string]interface{})
	a.Len(data["my_cards"], 2)

	// spectators never see hole cards
	states = spec.messagesOfType("game_state")
	require.Len(t, states, 1)
	data = states[0]["data"].(map[string]interface{})
	_, hasMyCards := data["my_cards"]
	a.False(hasMyCards)

	for _, p := range data["players"].([]interface{}) {
		_, hasCards := p.(map[string]interface{})["hole_cards"]
		a.False(hasCards)
	}
}

func TestRegistry_BroadcastDropsDeadConnections(t *testing.T) {
	a := assert.New(t)
	r := New(nil)
	e := newTestEngine(t)

	dead := &fakeConn{sendErr: errors.New("broken pipe")}
	live := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, dead)
	r.Register("GAMEXX", "p2", RolePlayer, live)

	r.Broadcast("GAMEXX", e, t0)

	a.Equal([]string{"p2"}, r.ConnectedPlayerIDs("GAMEXX"))
	a.True(dead.isClosed())
}

func TestRegistry_PingAndDrop(t *testing.T) {
	a := assert.New(t)
	r := New(nil)

	flaky := &fakeConn{}
	solid := &fakeConn{}
	r.Register("GAMEXX", "p1", RolePlayer, flaky)
	r.Register("GAMEXX", "p2", RolePlayer, solid)

	// flaky starts failing only after registration, so the connection_info
	// broadcasts above do not drop it
	flaky.sendErr = errors.New("gone")

	// one failure is tolerated
	r.pingAll()
	a.Equal(2, len(r.ConnectedPlayerIDs("GAMEXX")))

	// the second consecutive failure drops the connection
	r.pingAll()
	a.Equal([]string{"p2"}, r.ConnectedPlayerIDs("GAMEXX"))

	pings := solid.messagesOfType("ping")
	a.Len(pings, 2)
}
