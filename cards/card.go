package cards

import "fmt"

// CardFromString creates a card from a string representation
// e.g., "10♠" or "10s" or "Ts" -> Card{Suit: Spades, Value: Ten}
func CardFromString(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %s", s)
	}

	// suit symbols are multi-byte, so split on the last rune
	runes := []rune(s)
	suitPart := string(runes[len(runes)-1])
	valuePart := string(runes[:len(runes)-1])

	var suit Suit
	switch suitPart {
	case "♠", "s", "S":
		suit = Spades
	case "♥", "h", "H":
		suit = Hearts
	case "♦", "d", "D":
		suit = Diamonds
	case "♣", "c", "C":
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid card suit: %s", suitPart)
	}

	var value Value
	switch valuePart {
	case "A":
		value = Ace
	case "K":
		value = King
	case "Q":
		value = Queen
	case "J":
		value = Jack
	case "10", "T":
		value = Ten
	case "9":
		value = Nine
	case "8":
		value = Eight
	case "7":
		value = Seven
	case "6":
		value = Six
	case "5":
		value = Five
	case "4":
		value = Four
	case "3":
		value = Three
	case "2":
		value = Two
	default:
		return Card{}, fmt.Errorf("invalid card value: %s", valuePart)
	}

	return Card{Suit: suit, Value: value}, nil
}

// MustParse parses each shorthand with CardFromString and panics on error.
// Meant for tests and fixtures.
func MustParse(cards ...string) Stack {
	stack := make(Stack, 0, len(cards))
	for _, s := range cards {
		c, err := CardFromString(s)
		if err != nil {
			panic(err)
		}
		stack = append(stack, c)
	}
	return stack
}

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Name returns the long suit name used at the hand resolver boundary.
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	}
	return ""
}

// Value represents a card value
type Value string

const (
	Ace   Value = "A"
	King  Value = "K"
	Queen Value = "Q"
	Jack  Value = "J"
	Ten   Value = "10"
	Nine  Value = "9"
	Eight Value = "8"
	Seven Value = "7"
	Six   Value = "6"
	Five  Value = "5"
	Four  Value = "4"
	Three Value = "3"
	Two   Value = "2"
)

var (
	AllSuits  = []Suit{Spades, Hearts, Diamonds, Clubs}
	AllValues = []Value{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
)

// Rank returns 2..14, aces high.
func (v Value) Rank() int {
	for i, candidate := range AllValues {
		if candidate == v {
			return i + 2
		}
	}
	return 0
}

// Card represents a playing card
type Card struct {
	Suit  Suit  `json:"suit"`
	Value Value `json:"value"`
}

// String returns the string representation of a card
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Value, c.Suit)
}

// Short returns the two character ASCII form, e.g. "Ts" for the ten of spades.
func (c Card) Short() string {
	value := string(c.Value)
	if c.Value == Ten {
		value = "T"
	}

	var suit string
	switch c.Suit {
	case Spades:
		suit = "s"
	case Hearts:
		suit = "h"
	case Diamonds:
		suit = "d"
	case Clubs:
		suit = "c"
	}

	return value + suit
}

// Equals checks if two cards are equal
func (c Card) Equals(other Card) bool {
	return c.Suit == other.Suit && c.Value == other.Value
}
