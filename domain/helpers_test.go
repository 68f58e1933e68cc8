package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/domain/hands"
	"github.com/stretchr/testify/require"
)

var testRules = TableRules{SmallBlind: 10, BigBlind: 20, BuyIn: 1000, MaxPlayers: 6}

// newTestTable seats p1..pn with chips each on a deterministically shuffled
// table. p1 is the host.
func newTestTable(t *testing.T, rules TableRules, n int, chips int, opts ...TableOption) (*Table, *recorder) {
	t.Helper()

	opts = append([]TableOption{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	table, err := NewTable("Test Table", rules, opts...)
	require.NoError(t, err)

	rec := &recorder{}
	table.RegisterEventHandler(rec.handle)

	for i := 1; i <= n; i++ {
		_, err := table.Sit(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i), chips)
		require.NoError(t, err)
	}
	return table, rec
}

func act(t *testing.T, table *Table, playerID string, action ActionType, amount int) ActionResult {
	t.Helper()
	result, err := table.ApplyAction(playerID, action, amount)
	require.NoError(t, err, "%s %s %d", playerID, action, amount)
	return result
}

// chipsInPlay is every chip the table is responsible for.
func chipsInPlay(table *Table) int {
	total := 0
	for _, s := range table.Seats {
		total += s.Chips
	}
	if table.Hand != nil {
		total += table.Hand.Pot
	}
	if table.Phase == PhaseShowdown && table.LastSettlement != nil {
		total += table.LastSettlement.Remainder
	}
	return total
}

type recorder struct {
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.events = append(r.events, e)
}

func (r *recorder) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name()
	}
	return out
}

func (r *recorder) count(name string) int {
	n := 0
	for _, e := range r.events {
		if e.Name() == name {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.events = nil
}

// fixedResolver declares the listed players the winners of every showdown.
type fixedResolver struct {
	winners []string
	err     error
}

func (f fixedResolver) Evaluate(hole, board cards.Stack) (hands.Result, error) {
	return hands.Result{}, f.err
}

func (f fixedResolver) Compare(a, b cards.Stack) (int, error) {
	return 0, f.err
}

func (f fixedResolver) Resolve(board cards.Stack, candidates []hands.Candidate) ([]hands.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []hands.Result
	for _, c := range candidates {
		for _, w := range f.winners {
			if c.PlayerID == w {
				out = append(out, hands.Result{PlayerID: w, Title: "Pair", Detail: "Pair, fixed"})
			}
		}
	}
	return out, nil
}
