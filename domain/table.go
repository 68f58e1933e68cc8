package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/domain/hands"
	"github.com/sanity-io/litter"
	"golang.org/x/crypto/bcrypt"
)

// Occupancy is what a lobby needs from a table to seat and unseat players.
type Occupancy interface {
	AddOccupant(seat *Seat) error
	RemoveOccupant(playerID string) (*Seat, error)
}

var _ Occupancy = (*Table)(nil)

type TablePhase string

const (
	PhaseLobby    TablePhase = "LOBBY"
	PhasePlaying  TablePhase = "PLAYING"
	PhaseShowdown TablePhase = "SHOWDOWN"
	PhaseEnded    TablePhase = "ENDED"
)

// TableRules defines the stakes and size of a table
type TableRules struct {
	SmallBlind int
	BigBlind   int
	BuyIn      int
	MaxPlayers int
}

// DefaultRules are the stakes used when a table is created without any.
func DefaultRules() TableRules {
	return TableRules{
		SmallBlind: 100,
		BigBlind:   200,
		BuyIn:      20000,
		MaxPlayers: 6,
	}
}

func (r TableRules) Validate() error {
	if r.SmallBlind <= 0 || r.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive, got %d/%d", r.SmallBlind, r.BigBlind)
	}
	if r.SmallBlind > r.BigBlind {
		return fmt.Errorf("small blind %d above big blind %d", r.SmallBlind, r.BigBlind)
	}
	if r.BuyIn <= 0 {
		return fmt.Errorf("buy-in must be positive, got %d", r.BuyIn)
	}
	// 23 seats * 2 + 5 board cards is the most a 52 card deck can serve
	if r.MaxPlayers < 2 || r.MaxPlayers > 23 {
		return fmt.Errorf("max players must be between 2 and 23, got %d", r.MaxPlayers)
	}
	return nil
}

// Table is the betting engine of one poker table: it owns the seats, the
// deck and the state of the hand in progress.
type Table struct {
	ID             string
	Name           string
	Rules          TableRules
	HostID         string
	Seats          []*Seat
	Phase          TablePhase
	DealerIndex    int
	Hand           *Hand
	HandCount      int
	LastSettlement *Settlement

	passwordHash  []byte
	deck          *cards.Deck
	resolver      hands.Resolver
	eventHandlers []events.EventHandler
}

// TableOption configures a table at creation.
type TableOption func(*Table) error

// WithPassword protects the table; an empty password leaves it open.
func WithPassword(password string) TableOption {
	return func(t *Table) error {
		if password == "" {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash table password: %w", err)
		}
		t.passwordHash = hash
		return nil
	}
}

// WithRand seeds the deck, mostly for tests.
func WithRand(rng *rand.Rand) TableOption {
	return func(t *Table) error {
		t.deck = cards.NewDeck(rng)
		return nil
	}
}

func WithResolver(resolver hands.Resolver) TableOption {
	return func(t *Table) error {
		t.resolver = resolver
		return nil
	}
}

func WithID(id string) TableOption {
	return func(t *Table) error {
		t.ID = id
		return nil
	}
}

// NewTable creates an empty table in the lobby phase.
func NewTable(name string, rules TableRules, opts ...TableOption) (*Table, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		ID:          uuid.NewString(),
		Name:        name,
		Rules:       rules,
		Phase:       PhaseLobby,
		DealerIndex: -1,
		Seats:       []*Seat{},
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.deck == nil {
		t.deck = cards.NewDeck(nil)
	}
	if t.resolver == nil {
		t.resolver = hands.NewEvaluator()
	}

	return t, nil
}

// HasPassword reports whether joining requires a password.
func (t *Table) HasPassword() bool {
	return len(t.passwordHash) > 0
}

// CheckPassword validates a join attempt against the table password.
func (t *Table) CheckPassword(password string) error {
	if !t.HasPassword() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(t.passwordHash, []byte(password)); err != nil {
		return precondition(ErrBadPassword, "table %s", t.Name)
	}
	return nil
}

// Sit creates a seat for the player and adds it to the table. A buyIn <= 0
// uses the table buy-in.
func (t *Table) Sit(playerID, name string, buyIn int, opts ...SeatOption) (*Seat, error) {
	if buyIn <= 0 {
		buyIn = t.Rules.BuyIn
	}
	seat := NewSeat(playerID, name, buyIn, opts...)
	if err := t.AddOccupant(seat); err != nil {
		return nil, err
	}
	return seat, nil
}

// AddOccupant seats a player. The first occupant becomes host.
func (t *Table) AddOccupant(seat *Seat) error {
	if seat == nil {
		return errors.New("seat is nil")
	}

	if t.seatIndex(seat.ID) != -1 {
		return precondition(ErrAlreadySeated, "%s", seat.ID)
	}

	if t.OccupantCount() >= t.Rules.MaxPlayers {
		return precondition(ErrTableFull, "%d/%d seats taken", t.OccupantCount(), t.Rules.MaxPlayers)
	}

	seat.Status = SeatWaiting
	if seat.Chips <= 0 {
		seat.Status = SeatSitOut
	}
	t.Seats = append(t.Seats, seat)

	t.emitEvent(events.PlayerJoinedTable{
		TableID:    t.ID,
		PlayerID:   seat.ID,
		PlayerName: seat.Name,
		Chips:      seat.Chips,
		IsBot:      seat.IsBot,
		Avatar:     seat.Avatar,
		Character:  seat.Character,
		At:         time.Now(),
	})

	if t.HostID == "" {
		t.changeHost(seat.ID)
	}

	return nil
}

// RemoveOccupant takes a player off the table. During a hand the seat folds
// and stays in the seat list until the hand settles, so that its chips in
// the pot are still accounted for.
func (t *Table) RemoveOccupant(playerID string) (*Seat, error) {
	idx := t.seatIndex(playerID)
	if idx == -1 {
		return nil, precondition(ErrPlayerNotFound, "%s", playerID)
	}
	seat := t.Seats[idx]

	midHand := t.Phase == PhasePlaying && seat.InHand()
	if t.Phase == PhasePlaying {
		seat.departed = true
	} else {
		t.removeSeatAt(idx)
	}

	if t.HostID == playerID {
		t.changeHost(t.nextHost(idx))
	}

	t.emitEvent(events.PlayerLeftTable{
		TableID:  t.ID,
		PlayerID: playerID,
		MidHand:  midHand,
		At:       time.Now(),
	})

	if midHand {
		t.forfeit(idx)
	}

	return seat, nil
}

// SetReady flips a player's ready flag.
func (t *Table) SetReady(playerID string, ready bool) error {
	seat := t.GetSeat(playerID)
	if seat == nil {
		return precondition(ErrPlayerNotFound, "%s", playerID)
	}
	if seat.IsReady == ready {
		return nil
	}
	seat.IsReady = ready

	t.emitEvent(events.PlayerReadyChanged{
		TableID:  t.ID,
		PlayerID: playerID,
		Ready:    ready,
		At:       time.Now(),
	})
	return nil
}

// Start is the host's request to deal the first hand from the lobby.
func (t *Table) Start(requesterID string) error {
	if requesterID != t.HostID {
		return precondition(ErrNotHost, "%s is not the host", requesterID)
	}
	if t.Phase != PhaseLobby {
		return precondition(ErrAlreadyPlaying, "table is %s", t.Phase)
	}

	funded := 0
	var unready []string
	for _, s := range t.occupants() {
		if s.Chips <= 0 {
			continue
		}
		funded++
		if !s.IsReady {
			unready = append(unready, s.Name)
		}
	}
	if funded < 2 {
		return precondition(ErrTooFewPlayers, "%d player(s) with chips", funded)
	}
	if len(unready) > 0 {
		return precondition(ErrNotAllReady, "waiting on %s", strings.Join(unready, ", "))
	}

	return t.startHand()
}

// NextHand deals the following hand once the previous one has settled.
// With fewer than two funded players the table ends instead.
func (t *Table) NextHand() error {
	if t.Phase != PhaseShowdown {
		return invalid(ErrBadPhase, "cannot deal the next hand while %s", t.Phase)
	}
	return t.startHand()
}

// OccupantCount returns the number of players seated, not counting seats
// that already left during the current hand.
func (t *Table) OccupantCount() int {
	return len(t.occupants())
}

// GetSeat returns the seat of a player still at the table, or nil.
func (t *Table) GetSeat(playerID string) *Seat {
	if idx := t.seatIndex(playerID); idx >= 0 {
		return t.Seats[idx]
	}
	return nil
}

// IsEmpty reports whether every player has left.
func (t *Table) IsEmpty() bool {
	return t.OccupantCount() == 0
}

// PrintState dumps the public view of the table for debugging.
func (t *Table) PrintState() string {
	return litter.Sdump(t.Snapshot())
}

// RegisterEventHandler registers a callback function that will be called when events occur
func (t *Table) RegisterEventHandler(handler events.EventHandler) {
	t.eventHandlers = append(t.eventHandlers, handler)
}

// emitEvent notifies all registered handlers of a new event
func (t *Table) emitEvent(event events.Event) {
	for _, handler := range t.eventHandlers {
		handler(event)
	}
}

func (t *Table) occupants() []*Seat {
	out := make([]*Seat, 0, len(t.Seats))
	for _, s := range t.Seats {
		if !s.departed {
			out = append(out, s)
		}
	}
	return out
}

func (t *Table) seatIndex(playerID string) int {
	for i, s := range t.Seats {
		if s.ID == playerID && !s.departed {
			return i
		}
	}
	return -1
}

// nextHost picks the first remaining occupant after position idx.
func (t *Table) nextHost(idx int) string {
	n := len(t.Seats)
	for i := 0; i < n; i++ {
		s := t.Seats[(idx+i)%n]
		if !s.departed {
			return s.ID
		}
	}
	return ""
}

func (t *Table) changeHost(newHostID string) {
	previous := t.HostID
	t.HostID = newHostID

	t.emitEvent(events.HostChanged{
		TableID:        t.ID,
		PreviousHostID: previous,
		NewHostID:      newHostID,
		At:             time.Now(),
	})
}

// removeSeatAt drops a seat and keeps the dealer button on the same
// rotation: the seat sliding into a removed dealer's slot is next.
func (t *Table) removeSeatAt(idx int) {
	t.Seats = append(t.Seats[:idx], t.Seats[idx+1:]...)
	if idx <= t.DealerIndex {
		t.DealerIndex--
	}
}

func (t *Table) purgeDeparted() {
	for i := len(t.Seats) - 1; i >= 0; i-- {
		if t.Seats[i].departed {
			t.removeSeatAt(i)
		}
	}
}
