package domain

import (
	"sort"
	"time"

	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/domain/hands"
)

// WinByFoldTitle is the hand title of an uncontested pot.
const WinByFoldTitle = "Win by Fold"

// Settlement is the outcome of one hand. Remainder is the part of the pot
// that could not be split evenly and was not paid to anyone.
type Settlement struct {
	HandID      string            `json:"handId"`
	HandNumber  int               `json:"handNumber"`
	Pot         int               `json:"pot"`
	Distributed int               `json:"distributed"`
	Remainder   int               `json:"remainder"`
	WinByFold   bool              `json:"winByFold"`
	Refunded    bool              `json:"refunded"`
	Board       cards.Stack       `json:"board"`
	Winners     []events.Winner   `json:"winners"`
	Rankings    []events.Standing `json:"rankings"`
	SettledAt   time.Time         `json:"settledAt"`
}

// WinnerIDs lists the ids of the paid seats.
func (s *Settlement) WinnerIDs() []string {
	ids := make([]string, len(s.Winners))
	for i, w := range s.Winners {
		ids[i] = w.ID
	}
	return ids
}

// Settle ends the hand in progress. A non-empty winnerOverride hands the
// whole pot to that seat; otherwise the best hands among the seats still in
// split it.
func (t *Table) Settle(winnerOverride string) error {
	if t.Phase != PhasePlaying || t.Hand == nil {
		return invalid(ErrBadPhase, "no hand to settle while %s", t.Phase)
	}
	if winnerOverride == "" {
		t.revealBoard()
		t.settle(-1)
		return nil
	}

	idx := t.seatIndex(winnerOverride)
	if idx == -1 || !t.Seats[idx].InHand() {
		return precondition(ErrPlayerNotFound, "%s is not in the hand", winnerOverride)
	}
	t.settle(idx)
	return nil
}

// revealBoard deals whatever is left of the board so that a showdown is
// only ever decided on community cards the players have seen.
func (t *Table) revealBoard() {
	h := t.Hand
	if h.Street == StreetShowdown {
		return
	}
	h.Street = StreetShowdown
	h.CommunityCards = h.board[:h.Street.revealed()].Clone()

	t.emitEvent(events.StreetAdvanced{
		TableID:        t.ID,
		HandID:         h.ID,
		Street:         string(h.Street),
		CommunityCards: h.CommunityCards.Clone(),
		Runout:         h.RunoutPending,
	})
}

// settle pays the pot. winner >= 0 is an uncontested win; -1 goes to
// showdown.
func (t *Table) settle(winner int) {
	h := t.Hand
	s := &Settlement{
		HandID:     h.ID,
		HandNumber: h.Number,
		Pot:        h.Pot,
		Board:      h.CommunityCards.Clone(),
		SettledAt:  time.Now(),
	}

	if winner >= 0 {
		seat := t.Seats[winner]
		seat.Chips += h.Pot
		s.WinByFold = true
		s.Distributed = h.Pot
		s.Winners = []events.Winner{{
			ID:        seat.ID,
			Name:      seat.Name,
			Profit:    h.Pot,
			HandTitle: WinByFoldTitle,
		}}
	} else {
		t.showdown(s)
	}

	h.Pot = 0
	h.CurrentBet = 0
	h.TurnIndex = -1
	h.RunoutPending = false
	for _, seat := range t.Seats {
		seat.IsTurn = false
	}
	t.Phase = PhaseShowdown

	t.purgeDeparted()
	s.Rankings = t.rankings(s)
	t.LastSettlement = s

	t.emitEvent(events.HandSettled{
		TableID:     t.ID,
		HandID:      s.HandID,
		HandNumber:  s.HandNumber,
		Pot:         s.Pot,
		Distributed: s.Distributed,
		Remainder:   s.Remainder,
		WinByFold:   s.WinByFold,
		Winners:     s.Winners,
		Rankings:    s.Rankings,
		At:          s.SettledAt,
	})
}

// showdown splits the pot between the best hands. If the hands cannot be
// ranked every seat gets its contribution back.
func (t *Table) showdown(s *Settlement) {
	h := t.Hand
	board := h.CommunityCards
	var candidates []hands.Candidate
	byID := make(map[string]*Seat)
	for _, seat := range t.Seats {
		if !seat.InHand() {
			continue
		}
		candidates = append(candidates, hands.Candidate{PlayerID: seat.ID, HoleCards: seat.HoleCards})
		byID[seat.ID] = seat
	}

	results, err := t.resolver.Resolve(board, candidates)
	if err != nil || len(results) == 0 {
		t.refund(s)
		return
	}

	share := h.Pot / len(results)
	for _, r := range results {
		seat := byID[r.PlayerID]
		if seat == nil {
			continue
		}
		seat.Chips += share
		s.Distributed += share
		s.Winners = append(s.Winners, events.Winner{
			ID:           seat.ID,
			Name:         seat.Name,
			Profit:       share,
			HandTitle:    r.Title,
			HandDetail:   r.Detail,
			WinningCards: r.BestFive.Clone(),
		})
	}
	s.Remainder = h.Pot - s.Distributed
}

func (t *Table) refund(s *Settlement) {
	s.Refunded = true
	for _, seat := range t.Seats {
		seat.Chips += seat.HandBet
		s.Distributed += seat.HandBet
	}
	s.Remainder = t.Hand.Pot - s.Distributed
}

// rankings orders the remaining players by stack, biggest first.
func (t *Table) rankings(s *Settlement) []events.Standing {
	winners := make(map[string]bool, len(s.Winners))
	for _, w := range s.Winners {
		winners[w.ID] = true
	}

	out := make([]events.Standing, 0, len(t.Seats))
	for _, seat := range t.Seats {
		out = append(out, events.Standing{
			ID:       seat.ID,
			Name:     seat.Name,
			Chips:    seat.Chips,
			IsWinner: winners[seat.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Chips > out[j].Chips
	})
	return out
}

// ResetToLobby brings the table back to the lobby between hands, for
// instance after it ended for lack of players.
func (t *Table) ResetToLobby() error {
	if t.Phase == PhasePlaying {
		return invalid(ErrBadPhase, "hand in progress")
	}

	t.Phase = PhaseLobby
	t.Hand = nil
	t.purgeDeparted()
	for _, seat := range t.Seats {
		seat.ResetForNewHand()
		seat.IsReady = seat.IsBot
		if seat.Chips > 0 {
			seat.Status = SeatWaiting
		}
	}

	t.emitEvent(events.TableReset{
		TableID: t.ID,
		At:      time.Now(),
	})
	return nil
}
