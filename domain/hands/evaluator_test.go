package hands

import (
	"testing"

	"github.com/lazharichir/holdem/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_RoyalFlush(t *testing.T) {
	r, err := NewEvaluator().Evaluate(
		cards.MustParse("Ah", "Kh"),
		cards.MustParse("Qh", "Jh", "10h", "2c", "3d"),
	)
	require.NoError(t, err)

	assert.Equal(t, "Royal Flush", r.Title)
	assert.Equal(t, ClassStraightFlush, r.Class)
	assert.Equal(t, cards.MustParse("Ah", "Kh", "Qh", "Jh", "10h"), r.BestFive)
}

func TestEvaluate_PicksBestFiveOfSeven(t *testing.T) {
	r, err := NewEvaluator().Evaluate(
		cards.MustParse("Ks", "Kd"),
		cards.MustParse("Kc", "7h", "7d", "2c", "3s"),
	)
	require.NoError(t, err)

	assert.Equal(t, ClassFullHouse, r.Class)
	assert.Equal(t, "Full House", r.Title)
	assert.Len(t, r.BestFive, 5)
	assert.False(t, r.BestFive.Contains(cards.MustParse("2c")[0]))
	assert.Contains(t, r.Detail, "Full House")
}

func TestEvaluate_TooFewCards(t *testing.T) {
	_, err := NewEvaluator().Evaluate(cards.MustParse("As", "Ks"), nil)
	assert.ErrorIs(t, err, ErrNotEnoughCards)
}

func TestCompare(t *testing.T) {
	e := NewEvaluator()
	board := cards.MustParse("2h", "7c", "9d", "Js", "4c")

	pairOfAces := append(cards.MustParse("As", "Ad"), board...)
	pairOfKings := append(cards.MustParse("Ks", "Kd"), board...)
	otherAces := append(cards.MustParse("Ah", "Ac"), board...)

	cmp, err := e.Compare(pairOfAces, pairOfKings)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	cmp, err = e.Compare(pairOfKings, pairOfAces)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = e.Compare(pairOfAces, otherAces)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp, "same ranks in different suits tie exactly")
}

func TestResolve_SingleWinner(t *testing.T) {
	board := cards.MustParse("2h", "7c", "9d", "Js", "4c")
	winners, err := NewEvaluator().Resolve(board, []Candidate{
		{PlayerID: "alice", HoleCards: cards.MustParse("As", "Ad")},
		{PlayerID: "bob", HoleCards: cards.MustParse("Ks", "Kd")},
	})
	require.NoError(t, err)

	require.Len(t, winners, 1)
	assert.Equal(t, "alice", winners[0].PlayerID)
	assert.Equal(t, "Pair", winners[0].Title)
}

func TestResolve_SplitWhenBoardPlays(t *testing.T) {
	board := cards.MustParse("10s", "Js", "Qs", "Ks", "As")
	winners, err := NewEvaluator().Resolve(board, []Candidate{
		{PlayerID: "alice", HoleCards: cards.MustParse("2h", "3d")},
		{PlayerID: "bob", HoleCards: cards.MustParse("4c", "5c")},
		{PlayerID: "carol", HoleCards: cards.MustParse("6h", "7h")},
	})
	require.NoError(t, err)

	require.Len(t, winners, 3)
	assert.Equal(t, "alice", winners[0].PlayerID)
	assert.Equal(t, "carol", winners[2].PlayerID)
}

func TestResolve_Empty(t *testing.T) {
	winners, err := NewEvaluator().Resolve(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, winners)
}

func TestCombinations(t *testing.T) {
	assert.Len(t, combinations(7, 5), 21)
	assert.Nil(t, combinations(3, 5))
}
