package events_test

import (
	"testing"

	"github.com/lazharichir/holdem/domain/events"
	"github.com/stretchr/testify/assert"
)

type noTableID struct {
	OtherField string
}

func (noTableID) Name() string { return "noTableID" }

func TestExtractTableID(t *testing.T) {
	t.Run("struct with TableID field", func(t *testing.T) {
		e := events.PlayerActed{TableID: "table123"}
		id := events.ExtractTableID(e)
		assert.Equal(t, "table123", id)
	})

	t.Run("pointer to struct with TableID field", func(t *testing.T) {
		e := &events.PlayerActed{TableID: "tablePointer"}
		id := events.ExtractTableID(e)
		assert.Equal(t, "tablePointer", id)
	})

	t.Run("struct without TableID field", func(t *testing.T) {
		e := noTableID{OtherField: "noID"}
		id := events.ExtractTableID(e)
		assert.Equal(t, "", id)
	})

	t.Run("pointer to struct without TableID field", func(t *testing.T) {
		e := &noTableID{OtherField: "stillNoID"}
		id := events.ExtractTableID(e)
		assert.Equal(t, "", id)
	})
}

func TestPublicDropsHoleCards(t *testing.T) {
	evs := []events.Event{
		events.HandStarted{TableID: "t"},
		events.HoleCardsDealt{TableID: "t", PlayerID: "alice"},
		events.PlayerActed{TableID: "t"},
	}

	public := events.Public(evs)
	assert.Len(t, public, 2)
	assert.True(t, events.IsPrivate(evs[1]))
	assert.False(t, events.IsPrivate(evs[0]))
}
