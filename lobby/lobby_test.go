package lobby

import (
	"testing"
	"time"

	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	l := New(Config{
		Rules: domain.TableRules{SmallBlind: 10, BigBlind: 20, BuyIn: 1000, MaxPlayers: 3},
		Loop:  table.Config{EventStore: events.NewInMemoryEventStore(0)},
	})
	t.Cleanup(l.Close)
	return l
}

func TestCreateTableSeatsHost(t *testing.T) {
	l := newTestLobby(t)

	id, err := l.CreateTable("p1", "Alice", CreateOptions{})
	require.NoError(t, err)

	loop, err := l.Get(id)
	require.NoError(t, err)
	snap, err := loop.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Alice's table", snap.Name)
	assert.Equal(t, "p1", snap.HostID)
	require.Len(t, snap.Seats, 1)
	assert.Equal(t, 1000, snap.Seats[0].Chips)
}

func TestCreateTableRejectsBadRules(t *testing.T) {
	l := newTestLobby(t)

	_, err := l.CreateTable("p1", "Alice", CreateOptions{SmallBlind: 50, BigBlind: 20})
	assert.Error(t, err)
	assert.Empty(t, l.List())
}

func TestListing(t *testing.T) {
	l := newTestLobby(t)

	open, err := l.CreateTable("p1", "Alice", CreateOptions{Name: "b open"})
	require.NoError(t, err)
	locked, err := l.CreateTable("p2", "Bob", CreateOptions{Name: "a locked", Password: "pw", MaxPlayers: 2})
	require.NoError(t, err)

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, locked, list[0].ID)
	assert.True(t, list[0].HasPassword)
	assert.Equal(t, 2, list[0].MaxPlayers)
	assert.Equal(t, open, list[1].ID)
	assert.False(t, list[1].HasPassword)
	assert.Equal(t, 1, list[1].Players)
	assert.Equal(t, domain.PhaseLobby, list[1].Phase)
	assert.Equal(t, 20, list[1].BigBlind)
}

func TestJoin(t *testing.T) {
	l := newTestLobby(t)
	id, err := l.CreateTable("p1", "Alice", CreateOptions{Password: "pw", MaxPlayers: 2})
	require.NoError(t, err)

	_, err = l.Join(id, "p2", "Bob", 0, "nope")
	assert.ErrorIs(t, err, domain.ErrBadPassword)

	seat, err := l.Join(id, "p2", "Bob", 500, "pw")
	require.NoError(t, err)
	assert.Equal(t, 500, seat.Chips)

	_, err = l.Join(id, "p3", "Carol", 0, "pw")
	assert.ErrorIs(t, err, domain.ErrTableFull)

	_, err = l.Join("missing", "p3", "Carol", 0, "")
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestLeaveDeletesEmptyTable(t *testing.T) {
	l := newTestLobby(t)
	id, err := l.CreateTable("p1", "Alice", CreateOptions{})
	require.NoError(t, err)
	_, err = l.Join(id, "p2", "Bob", 0, "")
	require.NoError(t, err)

	require.NoError(t, l.Leave(id, "p1"))
	loop, err := l.Get(id)
	require.NoError(t, err)
	snap, err := loop.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "p2", snap.HostID)

	require.NoError(t, l.Leave(id, "p2"))
	_, err = l.Get(id)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
	assert.Empty(t, l.List())

	_, err = loop.Snapshot()
	assert.ErrorIs(t, err, table.ErrStopped)
}

func TestDeleteUnknownTable(t *testing.T) {
	l := newTestLobby(t)
	assert.ErrorIs(t, l.Delete("nope"), domain.ErrTableNotFound)
}

func TestReapEmptyTables(t *testing.T) {
	l := New(Config{
		Rules:         domain.TableRules{SmallBlind: 10, BigBlind: 20, BuyIn: 1000, MaxPlayers: 3},
		EmptyTableTTL: time.Minute,
	})
	t.Cleanup(l.Close)

	hostless, err := l.CreateTable("", "", CreateOptions{Name: "nobody"})
	require.NoError(t, err)
	hosted, err := l.CreateTable("p1", "Alice", CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, l.ReapEmpty(time.Now()))
	assert.Len(t, l.List(), 2)

	assert.Equal(t, 1, l.ReapEmpty(time.Now().Add(2*time.Minute)))
	_, err = l.Get(hostless)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
	_, err = l.Get(hosted)
	assert.NoError(t, err)
}

func TestReapDisabledWithoutTTL(t *testing.T) {
	l := newTestLobby(t)
	_, err := l.CreateTable("", "", CreateOptions{Name: "nobody"})
	require.NoError(t, err)

	assert.Equal(t, 0, l.ReapEmpty(time.Now().Add(24*time.Hour)))
	assert.Len(t, l.List(), 1)
}
