package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/lobby"
	"github.com/lazharichir/holdem/server/connection"
	"github.com/lazharichir/holdem/server/events"
	"github.com/lazharichir/holdem/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router  *CommandRouter
	lobby   *lobby.Lobby
	connMgr *connection.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := lobby.New(lobby.Config{
		Rules: domain.TableRules{SmallBlind: 10, BigBlind: 20, BuyIn: 1000, MaxPlayers: 4},
		Loop:  table.Config{NextHandDelay: time.Hour, RunoutDelay: time.Hour},
	})
	t.Cleanup(l.Close)
	connMgr := connection.NewManager(nil)
	return &harness{
		router:  NewCommandRouter(l, connMgr, events.NewDispatcher(connMgr, nil), nil),
		lobby:   l,
		connMgr: connMgr,
	}
}

func (h *harness) connect(id string) *connection.Client {
	c := &connection.Client{ID: id, Send: make(chan []byte, 64)}
	h.connMgr.Register(c)
	return c
}

func (h *harness) send(t *testing.T, c *connection.Client, cmd string) error {
	t.Helper()
	return h.router.HandleCommand(c, []byte(cmd))
}

func nextEnvelope(t *testing.T, c *connection.Client) events.EventEnvelope {
	t.Helper()
	require.NotEmpty(t, c.Send)
	var env events.EventEnvelope
	require.NoError(t, json.Unmarshal(<-c.Send, &env))
	return env
}

func drain(c *connection.Client) {
	for len(c.Send) > 0 {
		<-c.Send
	}
}

func TestCommandsRequireIdentify(t *testing.T) {
	h := newHarness(t)
	c := h.connect("c1")

	err := h.send(t, c, `{"name":"CREATE_TABLE"}`)
	assert.ErrorIs(t, err, ErrNotIdentified)

	require.NoError(t, h.send(t, c, `{"name":"IDENTIFY","playerId":"p1","playerName":"Alice"}`))
	assert.Equal(t, IdentifiedName, nextEnvelope(t, c).Name)

	err = h.send(t, c, `{"name":"IDENTIFY","playerId":"p2"}`)
	assert.Error(t, err)
}

func TestIdentifyRequiresPlayerID(t *testing.T) {
	h := newHarness(t)
	c := h.connect("c1")

	assert.Error(t, h.send(t, c, `{"name":"IDENTIFY","playerId":"  "}`))
	assert.Error(t, h.send(t, c, `not json`))
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	c := h.connect("c1")
	require.NoError(t, h.send(t, c, `{"name":"IDENTIFY","playerId":"p1"}`))

	err := h.send(t, c, `{"name":"DANCE"}`)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCreateJoinAndLeave(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.connect("c1"), h.connect("c2")
	require.NoError(t, h.send(t, alice, `{"name":"IDENTIFY","playerId":"p1","playerName":"Alice"}`))
	require.NoError(t, h.send(t, bob, `{"name":"IDENTIFY","playerId":"p2","playerName":"Bob"}`))
	nextEnvelope(t, alice)
	nextEnvelope(t, bob)

	require.NoError(t, h.send(t, alice, `{"name":"CREATE_TABLE","tableName":"home","password":"pw"}`))
	created := nextEnvelope(t, alice)
	require.Equal(t, TableCreatedName, created.Name)
	var payload struct {
		TableID string `json:"tableId"`
	}
	require.NoError(t, json.Unmarshal(created.Payload, &payload))
	tableID := payload.TableID
	assert.Equal(t, events.SnapshotName, nextEnvelope(t, alice).Name)
	assert.True(t, h.connMgr.IsClientAtTable("c1", tableID))

	err := h.send(t, bob, `{"name":"JOIN_TABLE","tableId":"`+tableID+`","password":"bad"}`)
	assert.ErrorIs(t, err, domain.ErrBadPassword)
	assert.False(t, h.connMgr.IsClientAtTable("c2", tableID))

	require.NoError(t, h.send(t, bob, `{"name":"JOIN_TABLE","tableId":"`+tableID+`","password":"pw","avatar":"owl.png"}`))
	assert.True(t, h.connMgr.IsClientAtTable("c2", tableID))

	loop, err := h.lobby.Get(tableID)
	require.NoError(t, err)
	snap, err := loop.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Seats, 2)
	assert.Equal(t, "owl.png", snap.Seats[1].Avatar)

	list := h.lobby.List()
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Players)

	require.NoError(t, h.send(t, bob, `{"name":"LEAVE_TABLE","tableId":"`+tableID+`"}`))
	assert.False(t, h.connMgr.IsClientAtTable("c2", tableID))
	assert.ErrorIs(t, h.send(t, bob, `{"name":"LEAVE_TABLE","tableId":"`+tableID+`"}`), ErrNotAtTable)

	h.router.LeaveAll(alice)
	assert.Empty(t, h.lobby.List())
	assert.Empty(t, h.connMgr.Tables("c1"))
}

func TestPlayHandThroughCommands(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.connect("c1"), h.connect("c2")
	require.NoError(t, h.send(t, alice, `{"name":"IDENTIFY","playerId":"p1"}`))
	require.NoError(t, h.send(t, bob, `{"name":"IDENTIFY","playerId":"p2"}`))

	tableID, err := h.lobby.CreateTable("p1", "p1", lobby.CreateOptions{})
	require.NoError(t, err)
	h.connMgr.AddTableToClient("c1", tableID)
	require.NoError(t, h.send(t, bob, `{"name":"JOIN_TABLE","tableId":"`+tableID+`"}`))

	err = h.send(t, bob, `{"name":"START_HAND","tableId":"`+tableID+`"}`)
	assert.ErrorIs(t, err, domain.ErrNotHost)

	require.NoError(t, h.send(t, bob, `{"name":"SET_READY","tableId":"`+tableID+`","ready":true}`))
	require.NoError(t, h.send(t, alice, `{"name":"START_HAND","tableId":"`+tableID+`"}`))

	loop, err := h.lobby.Get(tableID)
	require.NoError(t, err)
	snap, err := loop.Snapshot()
	require.NoError(t, err)
	require.Equal(t, domain.PhasePlaying, snap.Phase)

	turn := bob
	if snap.TurnSeatID == "p1" {
		turn = alice
	}
	other := alice
	if turn == alice {
		other = bob
	}

	err = h.send(t, other, `{"name":"PLAYER_ACTS","tableId":"`+tableID+`","action":"call"}`)
	assert.ErrorIs(t, err, domain.ErrOutOfTurn)

	err = h.send(t, turn, `{"name":"PLAYER_ACTS","tableId":"`+tableID+`","action":"dance"}`)
	assert.Error(t, err)

	drain(turn)
	drain(other)
	require.NoError(t, h.send(t, turn, `{"name":"PLAYER_ACTS","tableId":"`+tableID+`","action":"fold"}`))
	ack := nextEnvelope(t, turn)
	require.Equal(t, ActionAcceptedName, ack.Name)
	var accepted ActionAccepted
	require.NoError(t, json.Unmarshal(ack.Payload, &accepted))
	assert.Equal(t, ActionAccepted{TableID: tableID, Action: domain.ActionFold, Value: 0}, accepted)
	assert.Empty(t, other.Send)

	snap, err = loop.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseShowdown, snap.Phase)
	require.NotNil(t, snap.LastSettlement)
	assert.True(t, snap.LastSettlement.WinByFold)
}

func TestAddBotIsHostOnly(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.connect("c1"), h.connect("c2")
	require.NoError(t, h.send(t, alice, `{"name":"IDENTIFY","playerId":"p1"}`))
	require.NoError(t, h.send(t, bob, `{"name":"IDENTIFY","playerId":"p2"}`))

	tableID, err := h.lobby.CreateTable("p1", "p1", lobby.CreateOptions{})
	require.NoError(t, err)
	require.NoError(t, h.send(t, bob, `{"name":"JOIN_TABLE","tableId":"`+tableID+`"}`))

	err = h.send(t, bob, `{"name":"ADD_BOT","tableId":"`+tableID+`"}`)
	assert.ErrorIs(t, err, domain.ErrNotHost)

	require.NoError(t, h.send(t, alice, `{"name":"ADD_BOT","tableId":"`+tableID+`"}`))
	list := h.lobby.List()
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Players)

	err = h.send(t, alice, `{"name":"SET_READY","tableId":"missing","ready":true}`)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}
