package cmd

import (
	"testing"

	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRows(t *testing.T) {
	rows := tableRows([]table.Summary{{
		ID:         "t1",
		Name:       "home",
		Players:    2,
		MaxPlayers: 6,
		Phase:      domain.PhaseLobby,
		SmallBlind: 100,
		BigBlind:   200,
		HandNumber: 3,
	}})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"t1", "home", "2/6", "100/200", "LOBBY", "3", ""}, rows[1])
}

func TestNewLoggersRejectsUnknownLevel(t *testing.T) {
	_, err := newLoggers("loud")
	assert.Error(t, err)

	l, err := newLoggers("debug")
	require.NoError(t, err)
	assert.NotNil(t, l.table)
}
