// Package bot decides actions for computer controlled seats.
package bot

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/hands"
)

// Decision is a bot's chosen action, with a short explanation for the logs.
type Decision struct {
	Action    domain.ActionType
	Amount    int
	Reasoning string
}

// Policy picks one legal action from what the bot's seat can observe.
type Policy interface {
	Decide(view domain.PlayerView) Decision
}

// weakHand is the strength below which the bot mostly gives up.
const weakHand = 0.3

// StrengthPolicy plays by hand strength with a dose of randomness: weak
// hands mostly fold, strong hands call, raise or shove.
type StrengthPolicy struct {
	resolver hands.Resolver
	rng      *rand.Rand
}

var _ Policy = (*StrengthPolicy)(nil)

// NewStrengthPolicy builds a policy. A nil rng is seeded from the clock.
func NewStrengthPolicy(resolver hands.Resolver, rng *rand.Rand) *StrengthPolicy {
	if resolver == nil {
		resolver = hands.NewEvaluator()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &StrengthPolicy{resolver: resolver, rng: rng}
}

func (p *StrengthPolicy) Decide(view domain.PlayerView) Decision {
	legal := make(map[domain.ActionType]bool, len(view.AvailableActions))
	for _, a := range view.AvailableActions {
		legal[a] = true
	}

	strength := p.Strength(view.HoleCards, view.CommunityCards)
	roll := p.rng.Intn(100)

	var want domain.ActionType
	switch {
	case strength < weakHand && roll < 70:
		want = domain.ActionFold
	case strength < weakHand:
		want = domain.ActionCheck
	case roll < 50:
		want = domain.ActionCall
	case roll < 80:
		want = domain.ActionRaise
	default:
		want = domain.ActionAllIn
	}

	d := p.legalize(view, legal, want)
	d.Reasoning = fmt.Sprintf("strength %.2f, roll %d, wanted %s", strength, roll, want)
	return d
}

// legalize turns a wish into something the table will accept.
func (p *StrengthPolicy) legalize(view domain.PlayerView, legal map[domain.ActionType]bool, want domain.ActionType) Decision {
	switch want {
	case domain.ActionFold, domain.ActionCheck:
		if legal[domain.ActionCheck] {
			return Decision{Action: domain.ActionCheck}
		}
		return Decision{Action: domain.ActionFold}

	case domain.ActionRaise:
		if legal[domain.ActionRaise] {
			step := view.CurrentBet
			if step < view.BigBlind {
				step = view.BigBlind
			}
			total := view.CurrentBet + step
			if total-ownStreetBet(view) < ownChips(view) {
				return Decision{Action: domain.ActionRaise, Amount: total}
			}
		}
		if legal[domain.ActionAllIn] {
			return Decision{Action: domain.ActionAllIn}
		}

	case domain.ActionAllIn:
		if legal[domain.ActionAllIn] {
			return Decision{Action: domain.ActionAllIn}
		}
	}

	if legal[domain.ActionCheck] {
		return Decision{Action: domain.ActionCheck}
	}
	if legal[domain.ActionCall] {
		return Decision{Action: domain.ActionCall}
	}
	return Decision{Action: domain.ActionFold}
}

// Strength rates a holding from 0 (hopeless) to 1 (the nuts). Before the
// flop only the two hole cards count.
func (p *StrengthPolicy) Strength(hole, board cards.Stack) float64 {
	if len(hole) < 2 {
		return 0
	}
	if len(board) < 3 {
		return preflopStrength(hole)
	}

	result, err := p.resolver.Evaluate(hole, board)
	if err != nil || result.Class == 0 {
		return 0
	}
	return 1 - float64(result.Class-1)/float64(hands.ClassHighCard-1)
}

func preflopStrength(hole cards.Stack) float64 {
	hi, lo := hole[0].Value.Rank(), hole[1].Value.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}

	strength := float64(hi+lo-4) / 24 * 0.5
	if hi == lo {
		strength += 0.4
	}
	if hole[0].Suit == hole[1].Suit {
		strength += 0.05
	}
	if strength > 1 {
		strength = 1
	}
	return strength
}

func ownSeat(view domain.PlayerView) *domain.SeatView {
	for i := range view.Seats {
		if view.Seats[i].ID == view.PlayerID {
			return &view.Seats[i]
		}
	}
	return nil
}

func ownStreetBet(view domain.PlayerView) int {
	if s := ownSeat(view); s != nil {
		return s.StreetBet
	}
	return 0
}

func ownChips(view domain.PlayerView) int {
	if s := ownSeat(view); s != nil {
		return s.Chips
	}
	return 0
}
