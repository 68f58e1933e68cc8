package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/domain/events"
)

type Street string

const (
	StreetPreflop  Street = "PREFLOP"
	StreetFlop     Street = "FLOP"
	StreetTurn     Street = "TURN"
	StreetRiver    Street = "RIVER"
	StreetShowdown Street = "SHOWDOWN"
)

func (s Street) next() Street {
	switch s {
	case StreetPreflop:
		return StreetFlop
	case StreetFlop:
		return StreetTurn
	case StreetTurn:
		return StreetRiver
	}
	return StreetShowdown
}

// revealed is how many board cards are face up on this street.
func (s Street) revealed() int {
	switch s {
	case StreetFlop:
		return 3
	case StreetTurn:
		return 4
	case StreetRiver, StreetShowdown:
		return 5
	}
	return 0
}

type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
)

// ParseAction accepts the wire spellings of an action, e.g. "CALL" or "ALL_IN".
func ParseAction(s string) (ActionType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	switch ActionType(normalized) {
	case ActionFold, ActionCheck, ActionCall, ActionRaise, ActionAllIn:
		return ActionType(normalized), nil
	}
	return "", invalid(ErrIllegalAction, "unknown action %q", s)
}

// ActionResult is what an accepted action did. Value is the chips moved for
// call and allin, and the new street total for raise.
type ActionResult struct {
	PlayerID string
	Action   ActionType
	Value    int
}

// Hand is the state of one deal, from blinds to settlement.
type Hand struct {
	ID              string
	Number          int
	Street          Street
	Pot             int
	CurrentBet      int
	TurnIndex       int
	SmallBlindIndex int
	BigBlindIndex   int
	CommunityCards  cards.Stack
	RunoutPending   bool
	StartedAt       time.Time

	// pre-drawn at the deal, revealed street by street
	board cards.Stack
}

// startHand deals a new hand: rotate the button, post blinds, deal.
func (t *Table) startHand() error {
	t.purgeDeparted()

	eligible := 0
	for _, s := range t.Seats {
		if s.Chips > 0 {
			eligible++
		}
	}
	if eligible < 2 {
		t.Phase = PhaseEnded
		t.emitEvent(events.TableEnded{
			TableID: t.ID,
			Reason:  "not enough players with chips",
			At:      time.Now(),
		})
		return precondition(ErrTooFewPlayers, "%d player(s) with chips", eligible)
	}

	// everything is drawn before any seat is touched so a short deck
	// cannot leave a half dealt table behind
	t.deck.Reset()
	drawn, err := t.deck.Draw(2*eligible + 5)
	if err != nil {
		return reject(KindResource, ErrInsufficientCards, "dealing %d players", eligible)
	}

	for _, s := range t.Seats {
		s.ResetForNewHand()
	}

	t.HandCount++
	hand := &Hand{
		ID:        uuid.NewString(),
		Number:    t.HandCount,
		Street:    StreetPreflop,
		TurnIndex: -1,
		StartedAt: time.Now(),
	}
	t.Hand = hand
	t.Phase = PhasePlaying

	t.DealerIndex = t.nextActive(t.DealerIndex)
	t.Seats[t.DealerIndex].IsDealer = true

	if eligible == 2 {
		hand.SmallBlindIndex = t.DealerIndex
	} else {
		hand.SmallBlindIndex = t.nextActive(t.DealerIndex)
	}
	hand.BigBlindIndex = t.nextActive(hand.SmallBlindIndex)

	playerIDs := make([]string, 0, eligible)
	for _, s := range t.Seats {
		if s.Status == SeatActive {
			playerIDs = append(playerIDs, s.ID)
		}
	}
	t.emitEvent(events.HandStarted{
		TableID:      t.ID,
		HandID:       hand.ID,
		HandNumber:   hand.Number,
		DealerID:     t.Seats[t.DealerIndex].ID,
		SmallBlindID: t.Seats[hand.SmallBlindIndex].ID,
		BigBlindID:   t.Seats[hand.BigBlindIndex].ID,
		SmallBlind:   t.Rules.SmallBlind,
		BigBlind:     t.Rules.BigBlind,
		PlayerIDs:    playerIDs,
		At:           hand.StartedAt,
	})

	t.postBlind(hand.SmallBlindIndex, t.Rules.SmallBlind, "small")
	t.postBlind(hand.BigBlindIndex, t.Rules.BigBlind, "big")
	hand.CurrentBet = t.Rules.BigBlind

	t.deal(drawn)

	if t.roundClosed() {
		t.advanceStreet()
		return nil
	}
	t.setTurn(t.nextActive(hand.BigBlindIndex))

	return nil
}

func (t *Table) postBlind(idx int, amount int, kind string) {
	seat := t.Seats[idx]
	if amount > seat.Chips {
		amount = seat.Chips
	}
	t.bet(seat, amount)

	t.emitEvent(events.BlindPosted{
		TableID:  t.ID,
		HandID:   t.Hand.ID,
		PlayerID: seat.ID,
		Kind:     kind,
		Amount:   amount,
		AllIn:    seat.Status == SeatAllIn,
	})
}

// deal hands out two cards one at a time starting left of the dealer, then
// keeps the last five as the board.
func (t *Table) deal(drawn cards.Stack) {
	order := make([]*Seat, 0, len(t.Seats))
	n := len(t.Seats)
	for i := 1; i <= n; i++ {
		s := t.Seats[(t.DealerIndex+i)%n]
		if s.InHand() {
			order = append(order, s)
		}
	}

	next := 0
	for round := 0; round < 2; round++ {
		for _, s := range order {
			s.HoleCards = append(s.HoleCards, drawn[next])
			next++
		}
	}
	t.Hand.board = drawn[next : next+5].Clone()

	for _, s := range order {
		t.emitEvent(events.HoleCardsDealt{
			TableID:  t.ID,
			HandID:   t.Hand.ID,
			PlayerID: s.ID,
			Cards:    s.HoleCards.Clone(),
		})
	}
}

// ApplyAction validates and applies one betting action from the seat whose
// turn it is. A rejected action leaves the table untouched.
func (t *Table) ApplyAction(playerID string, action ActionType, amount int) (ActionResult, error) {
	if t.Phase != PhasePlaying || t.Hand == nil {
		return ActionResult{}, invalid(ErrBadPhase, "table is %s", t.Phase)
	}
	idx := t.Hand.TurnIndex
	if idx < 0 || t.Seats[idx].ID != playerID {
		return ActionResult{}, invalid(ErrOutOfTurn, "waiting on %s", t.TurnSeatID())
	}

	effective, err := t.validateAction(t.Seats[idx], action, amount)
	if err != nil {
		return ActionResult{}, err
	}

	result := t.perform(idx, effective, amount)
	t.afterAction()

	return result, nil
}

// validateAction returns the action that will actually run, a short call
// becoming an all-in.
func (t *Table) validateAction(seat *Seat, action ActionType, amount int) (ActionType, error) {
	h := t.Hand
	toCall := h.CurrentBet - seat.StreetBet

	switch action {
	case ActionFold:
	case ActionCheck:
		if toCall != 0 {
			return "", invalid(ErrIllegalAction, "cannot check facing %d", toCall)
		}
	case ActionCall:
		if seat.Chips < toCall {
			return ActionAllIn, nil
		}
	case ActionRaise:
		if amount <= h.CurrentBet {
			return "", invalid(ErrIllegalAction, "raise to %d must exceed the current bet of %d", amount, h.CurrentBet)
		}
		if amount-seat.StreetBet > seat.Chips {
			return "", invalid(ErrInsufficientChips, "raise to %d needs %d, stack is %d", amount, amount-seat.StreetBet, seat.Chips)
		}
	case ActionAllIn:
		if seat.Chips == 0 {
			return "", invalid(ErrIllegalAction, "no chips left to push")
		}
	default:
		return "", invalid(ErrIllegalAction, "unknown action %q", action)
	}

	return action, nil
}

func (t *Table) perform(idx int, action ActionType, amount int) ActionResult {
	h := t.Hand
	seat := t.Seats[idx]
	value := 0

	switch action {
	case ActionFold:
		seat.Status = SeatFolded
	case ActionCheck:
	case ActionCall:
		value = h.CurrentBet - seat.StreetBet
		t.bet(seat, value)
	case ActionRaise:
		t.bet(seat, amount-seat.StreetBet)
		h.CurrentBet = amount
		t.reopen(idx)
		value = amount
	case ActionAllIn:
		value = seat.Chips
		t.bet(seat, value)
		if seat.StreetBet > h.CurrentBet {
			h.CurrentBet = seat.StreetBet
			t.reopen(idx)
		}
	}

	seat.HasActed = true
	seat.IsTurn = false

	t.emitEvent(events.PlayerActed{
		TableID:   t.ID,
		HandID:    h.ID,
		PlayerID:  seat.ID,
		Action:    string(action),
		Value:     value,
		StreetBet: seat.StreetBet,
		Chips:     seat.Chips,
		Pot:       h.Pot,
	})

	return ActionResult{PlayerID: seat.ID, Action: action, Value: value}
}

func (t *Table) afterAction() {
	if winner := t.lastStanding(); winner >= 0 {
		t.settle(winner)
		return
	}
	if t.roundClosed() {
		t.advanceStreet()
		return
	}
	t.setTurn(t.nextActive(t.Hand.TurnIndex))
}

// forfeit folds a seat that left mid-hand.
func (t *Table) forfeit(idx int) {
	if idx == t.Hand.TurnIndex {
		t.perform(idx, ActionFold, 0)
		t.afterAction()
		return
	}

	t.Seats[idx].Status = SeatFolded
	if winner := t.lastStanding(); winner >= 0 {
		t.settle(winner)
	}
}

// AdvanceRunout reveals the next street of an all-in run-out.
func (t *Table) AdvanceRunout() error {
	if t.Phase != PhasePlaying || t.Hand == nil || !t.Hand.RunoutPending {
		return invalid(ErrBadPhase, "no run-out pending")
	}
	t.advanceStreet()
	return nil
}

// RunOut reveals every remaining street at once.
func (t *Table) RunOut() {
	for t.RunoutPending() {
		t.advanceStreet()
	}
}

// RunoutPending reports whether streets are waiting to be revealed without
// any betting.
func (t *Table) RunoutPending() bool {
	return t.Phase == PhasePlaying && t.Hand != nil && t.Hand.RunoutPending
}

func (t *Table) advanceStreet() {
	h := t.Hand
	for _, s := range t.Seats {
		s.StreetBet = 0
		s.HasActed = false
		s.IsTurn = false
	}
	h.CurrentBet = 0
	h.TurnIndex = -1
	h.Street = h.Street.next()
	h.CommunityCards = h.board[:h.Street.revealed()].Clone()

	t.emitEvent(events.StreetAdvanced{
		TableID:        t.ID,
		HandID:         h.ID,
		Street:         string(h.Street),
		CommunityCards: h.CommunityCards.Clone(),
		Runout:         h.RunoutPending,
	})

	if h.Street == StreetShowdown {
		t.settle(-1)
		return
	}

	if t.countActive() < 2 {
		if !h.RunoutPending {
			h.RunoutPending = true
			t.emitEvent(events.RunoutStarted{
				TableID: t.ID,
				HandID:  h.ID,
				Street:  string(h.Street),
			})
		}
		return
	}

	t.setTurn(t.nextActive(t.DealerIndex))
}

// roundClosed: every ACTIVE seat has matched the bet and acted since it last
// moved. No ACTIVE seats at all closes the street too.
func (t *Table) roundClosed() bool {
	for _, s := range t.Seats {
		if s.Status != SeatActive {
			continue
		}
		if s.StreetBet != t.Hand.CurrentBet || !s.HasActed {
			return false
		}
	}
	return true
}

// lastStanding returns the only seat still in the hand, or -1.
func (t *Table) lastStanding() int {
	winner := -1
	for i, s := range t.Seats {
		if !s.InHand() {
			continue
		}
		if winner >= 0 {
			return -1
		}
		winner = i
	}
	return winner
}

func (t *Table) countActive() int {
	n := 0
	for _, s := range t.Seats {
		if s.Status == SeatActive {
			n++
		}
	}
	return n
}

// nextActive scans clockwise from after position from; -1 if nobody is ACTIVE.
func (t *Table) nextActive(from int) int {
	n := len(t.Seats)
	for i := 1; i <= n; i++ {
		idx := ((from+i)%n + n) % n
		if t.Seats[idx].Status == SeatActive {
			return idx
		}
	}
	return -1
}

func (t *Table) setTurn(idx int) {
	h := t.Hand
	for _, s := range t.Seats {
		s.IsTurn = false
	}
	h.TurnIndex = idx
	if idx < 0 {
		return
	}

	seat := t.Seats[idx]
	seat.IsTurn = true
	t.emitEvent(events.PlayerTurnStarted{
		TableID:    t.ID,
		HandID:     h.ID,
		PlayerID:   seat.ID,
		Street:     string(h.Street),
		ToCall:     h.CurrentBet - seat.StreetBet,
		CurrentBet: h.CurrentBet,
	})
}

func (t *Table) bet(seat *Seat, amount int) {
	seat.commit(amount)
	t.Hand.Pot += amount
}

// reopen gives every other ACTIVE seat a new decision after a raise.
func (t *Table) reopen(raiser int) {
	for i, s := range t.Seats {
		if i != raiser && s.Status == SeatActive {
			s.HasActed = false
		}
	}
}

// TurnSeatID returns the player to act, or "" when nobody is.
func (t *Table) TurnSeatID() string {
	if t.Hand == nil || t.Hand.TurnIndex < 0 || t.Phase != PhasePlaying {
		return ""
	}
	return t.Seats[t.Hand.TurnIndex].ID
}

// LegalActions lists what the given player may do right now.
func (t *Table) LegalActions(playerID string) []ActionType {
	if t.TurnSeatID() != playerID || playerID == "" {
		return nil
	}
	seat := t.Seats[t.Hand.TurnIndex]
	toCall := t.Hand.CurrentBet - seat.StreetBet

	actions := []ActionType{ActionFold}
	if toCall == 0 {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}
	if seat.Chips > toCall {
		actions = append(actions, ActionRaise)
	}
	actions = append(actions, ActionAllIn)
	return actions
}

// MinRaise is the smallest legal raise total for the player to act.
func (t *Table) MinRaise() int {
	if t.Hand == nil {
		return 0
	}
	return t.Hand.CurrentBet + 1
}

func (h *Hand) String() string {
	return fmt.Sprintf("hand #%d %s pot=%d bet=%d", h.Number, h.Street, h.Pot, h.CurrentBet)
}
