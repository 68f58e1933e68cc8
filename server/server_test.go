package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/server/events"
	"github.com/lazharichir/holdem/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Options{
		Rules: domain.TableRules{SmallBlind: 10, BigBlind: 20, BuyIn: 1000, MaxPlayers: 4},
		Loop:  table.Config{NextHandDelay: time.Hour, RunoutDelay: time.Hour},
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Lobby().Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) events.EventEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env events.EventEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndListTables(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/tables/create", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := `{"name":"friday","password":"pw","bigBlind":40,"smallBlind":20}`
	resp, err = http.Post(ts.URL+"/api/tables/create", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created table.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "friday", created.Name)
	assert.True(t, created.HasPassword)
	assert.Equal(t, 0, created.Players)
	assert.Equal(t, 40, created.BigBlind)

	resp, err = http.Get(ts.URL + "/api/tables")
	require.NoError(t, err)
	var list []table.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	resp, err = http.Get(ts.URL + "/api/tables/history?id=" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/tables/events?id=missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocketSession(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{"name": "CREATE_TABLE"}))
	env := readEnvelope(t, conn)
	require.Equal(t, events.ErrorName, env.Name)

	require.NoError(t, conn.WriteJSON(map[string]any{"name": "IDENTIFY", "playerId": "p1", "playerName": "Alice"}))
	assert.Equal(t, "IDENTIFIED", readEnvelope(t, conn).Name)

	require.NoError(t, conn.WriteJSON(map[string]any{"name": "CREATE_TABLE", "tableName": "home"}))
	assert.Equal(t, "TABLE_CREATED", readEnvelope(t, conn).Name)
	env = readEnvelope(t, conn)
	require.Equal(t, events.SnapshotName, env.Name)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, "home", snap.Name)
	assert.Equal(t, "p1", snap.HostID)

	require.NoError(t, conn.WriteJSON(map[string]any{"name": "START_HAND", "tableId": snap.TableID}))
	env = readEnvelope(t, conn)
	require.Equal(t, events.ErrorName, env.Name)
	var payload events.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, domain.ErrTooFewPlayers.Error(), payload.Code)
	assert.Equal(t, string(domain.KindPrecondition), payload.Kind)

	resp, err := http.Get(ts.URL + "/api/tables/events?id=" + snap.TableID)
	require.NoError(t, err)
	var evs []events.EventEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&evs))
	resp.Body.Close()
	require.NotEmpty(t, evs)
	assert.Equal(t, "PLAYER_JOINED_TABLE", evs[0].Name)

	conn.Close()
	assert.Eventually(t, func() bool {
		return len(s.Lobby().List()) == 0
	}, 5*time.Second, 20*time.Millisecond)
}
