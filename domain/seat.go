package domain

import "github.com/lazharichir/holdem/cards"

// SeatStatus is where a seat stands in the current hand.
type SeatStatus string

const (
	SeatWaiting SeatStatus = "WAITING"
	SeatActive  SeatStatus = "ACTIVE"
	SeatFolded  SeatStatus = "FOLDED"
	SeatAllIn   SeatStatus = "ALLIN"
	SeatSitOut  SeatStatus = "SIT_OUT"
)

// Seat is one occupied position at a table.
type Seat struct {
	ID        string
	Name      string
	Chips     int
	HoleCards cards.Stack
	StreetBet int
	HandBet   int
	Status    SeatStatus
	HasActed  bool
	IsDealer  bool
	IsTurn    bool
	IsReady   bool
	IsBot     bool
	Avatar    string
	Character string

	// set when the player leaves mid-hand; the seat is dropped at settlement
	departed bool
}

// SeatOption sets the display details a player brings to the table.
type SeatOption func(*Seat)

func WithAvatar(avatar string) SeatOption {
	return func(s *Seat) {
		s.Avatar = avatar
	}
}

func WithCharacter(character string) SeatOption {
	return func(s *Seat) {
		s.Character = character
	}
}

// NewSeat creates a seat for a player who just sat down with buyIn chips.
func NewSeat(id, name string, buyIn int, opts ...SeatOption) *Seat {
	s := &Seat{
		ID:      id,
		Name:    name,
		Chips:   buyIn,
		Status:  SeatWaiting,
		IsReady: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResetForNewHand clears per-hand state and decides whether the seat plays.
func (s *Seat) ResetForNewHand() {
	s.HoleCards = nil
	s.StreetBet = 0
	s.HandBet = 0
	s.HasActed = false
	s.IsDealer = false
	s.IsTurn = false
	if s.Chips > 0 {
		s.Status = SeatActive
	} else {
		s.Status = SeatSitOut
	}
}

// InHand reports whether the seat can still win the current pot.
func (s *Seat) InHand() bool {
	return s.Status == SeatActive || s.Status == SeatAllIn
}

// commit moves chips from the stack into the current bets. The caller has
// already checked amount <= Chips.
func (s *Seat) commit(amount int) {
	s.Chips -= amount
	s.StreetBet += amount
	s.HandBet += amount
	if s.Chips == 0 {
		s.Status = SeatAllIn
	}
}
