package cards

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInsufficientCards is returned when a draw asks for more cards than remain.
var ErrInsufficientCards = errors.New("insufficient cards")

// NewDeck52 returns the 52 cards of a standard deck in a fixed order.
func NewDeck52() Stack {
	deck := make(Stack, 0, 52)
	for _, suit := range AllSuits {
		for _, value := range AllValues {
			deck = append(deck, Card{Suit: suit, Value: value})
		}
	}
	return deck
}

// Deck is a shuffled 52-card draw source. The top of the deck is the end of
// the slice.
type Deck struct {
	cards Stack
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck. A nil rng is replaced by a time seeded one.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{rng: rng}
	d.Reset()
	return d
}

// Reset rebuilds the full deck and shuffles it.
func (d *Deck) Reset() {
	d.cards = NewDeck52()
	d.shuffle()
}

// Fisher-Yates, last index down to 1
func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top n cards. The deck is left untouched when
// fewer than n remain.
func (d *Deck) Draw(n int) (Stack, error) {
	if n < 0 {
		return nil, fmt.Errorf("cannot draw %d cards", n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("draw %d of %d: %w", n, len(d.cards), ErrInsufficientCards)
	}

	cut := len(d.cards) - n
	drawn := make(Stack, n)
	// top card first
	for i := 0; i < n; i++ {
		drawn[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:cut]

	return drawn, nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
