package hands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chehsunliu/poker"
	"github.com/lazharichir/holdem/cards"
)

// Hand classes as reported by the evaluator, best first.
const (
	ClassStraightFlush int32 = iota + 1
	ClassFourOfAKind
	ClassFullHouse
	ClassFlush
	ClassStraight
	ClassThreeOfAKind
	ClassTwoPair
	ClassPair
	ClassHighCard
)

// bestScore is the royal flush; lower scores are stronger hands.
const bestScore int32 = 1

var ErrNotEnoughCards = errors.New("need at least 5 cards to evaluate a hand")

// Candidate is a seat taking part in a showdown.
type Candidate struct {
	PlayerID  string
	HoleCards cards.Stack
}

// Result is the evaluation of one candidate's best five card hand.
type Result struct {
	PlayerID string
	Score    int32 // 1 (royal flush) .. 7462 (worst high card)
	Class    int32
	Title    string
	Detail   string
	BestFive cards.Stack
}

// Resolver ranks showdown hands. Implementations hold no state.
type Resolver interface {
	Evaluate(hole, board cards.Stack) (Result, error)
	Compare(a, b cards.Stack) (int, error)
	Resolve(board cards.Stack, candidates []Candidate) ([]Result, error)
}

// Evaluator is the Resolver backed by the chehsunliu lookup tables.
type Evaluator struct{}

var _ Resolver = Evaluator{}

func NewEvaluator() Evaluator {
	return Evaluator{}
}

// Evaluate finds the best five cards out of hole + board.
func (e Evaluator) Evaluate(hole, board cards.Stack) (Result, error) {
	all := make(cards.Stack, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)
	if len(all) < 5 {
		return Result{}, fmt.Errorf("%d cards: %w", len(all), ErrNotEnoughCards)
	}

	var best cards.Stack
	var bestRank int32
	for _, combo := range combinations(len(all), 5) {
		hand := make(cards.Stack, 5)
		for i, idx := range combo {
			hand[i] = all[idx]
		}
		rank := poker.Evaluate(toLibrary(hand))
		if best == nil || rank < bestRank {
			best, bestRank = hand, rank
		}
	}

	sortByRank(best)
	title := poker.RankString(bestRank)
	if bestRank == bestScore {
		title = "Royal Flush"
	}

	return Result{
		Score:    bestRank,
		Class:    poker.RankClass(bestRank),
		Title:    title,
		Detail:   fmt.Sprintf("%s, %s", title, best),
		BestFive: best,
	}, nil
}

// Compare orders two hands of the same size. Positive means a wins, zero is
// an exact tie.
func (e Evaluator) Compare(a, b cards.Stack) (int, error) {
	ra, err := e.Evaluate(a, nil)
	if err != nil {
		return 0, err
	}
	rb, err := e.Evaluate(b, nil)
	if err != nil {
		return 0, err
	}

	switch {
	case ra.Score < rb.Score:
		return 1, nil
	case ra.Score > rb.Score:
		return -1, nil
	}
	return 0, nil
}

// Resolve returns the winning subset of candidates, more than one on an
// exact tie, in candidate order.
func (e Evaluator) Resolve(board cards.Stack, candidates []Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		r, err := e.Evaluate(c.HoleCards, board)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", c.PlayerID, err)
		}
		r.PlayerID = c.PlayerID
		results = append(results, r)
	}

	top := results[0].Score
	for _, r := range results[1:] {
		if r.Score < top {
			top = r.Score
		}
	}

	winners := make([]Result, 0, 1)
	for _, r := range results {
		if r.Score == top {
			winners = append(winners, r)
		}
	}
	return winners, nil
}

func toLibrary(hand cards.Stack) []poker.Card {
	out := make([]poker.Card, len(hand))
	for i, c := range hand {
		out[i] = poker.NewCard(c.Short())
	}
	return out
}

// highest rank first so the detail string reads naturally
func sortByRank(hand cards.Stack) {
	sort.SliceStable(hand, func(i, j int) bool {
		return hand[i].Value.Rank() > hand[j].Value.Rank()
	})
}

// combinations generates all possible combinations of k indexes out of n
func combinations(n, k int) [][]int {
	if k > n {
		return nil
	}

	var result [][]int
	var combine func(int, []int)

	combine = func(start int, current []int) {
		if len(current) == k {
			combo := make([]int, k)
			copy(combo, current)
			result = append(result, combo)
			return
		}

		for i := start; i < n; i++ {
			current = append(current, i)
			combine(i+1, current)
			current = current[:len(current)-1]
		}
	}

	combine(0, []int{})
	return result
}
