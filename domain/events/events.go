package events

import (
	"time"

	"github.com/lazharichir/holdem/cards"
)

// Seating Events
type PlayerJoinedTable struct {
	TableID    string    `json:"tableId"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Chips      int       `json:"chips"`
	IsBot      bool      `json:"isBot"`
	Avatar     string    `json:"avatar,omitempty"`
	Character  string    `json:"character,omitempty"`
	At         time.Time `json:"at"`
}

func (p PlayerJoinedTable) Name() string { return "PLAYER_JOINED_TABLE" }

type PlayerLeftTable struct {
	TableID  string    `json:"tableId"`
	PlayerID string    `json:"playerId"`
	MidHand  bool      `json:"midHand"`
	At       time.Time `json:"at"`
}

func (p PlayerLeftTable) Name() string { return "PLAYER_LEFT_TABLE" }

type HostChanged struct {
	TableID        string    `json:"tableId"`
	PreviousHostID string    `json:"previousHostId"`
	NewHostID      string    `json:"newHostId"`
	At             time.Time `json:"at"`
}

func (h HostChanged) Name() string { return "HOST_CHANGED" }

type PlayerReadyChanged struct {
	TableID  string    `json:"tableId"`
	PlayerID string    `json:"playerId"`
	Ready    bool      `json:"ready"`
	At       time.Time `json:"at"`
}

func (p PlayerReadyChanged) Name() string { return "PLAYER_READY_CHANGED" }

// Hand Structure Events
type HandStarted struct {
	TableID      string    `json:"tableId"`
	HandID       string    `json:"handId"`
	HandNumber   int       `json:"handNumber"`
	DealerID     string    `json:"dealerId"`
	SmallBlindID string    `json:"smallBlindId"`
	BigBlindID   string    `json:"bigBlindId"`
	SmallBlind   int       `json:"smallBlind"`
	BigBlind     int       `json:"bigBlind"`
	PlayerIDs    []string  `json:"playerIds"`
	At           time.Time `json:"at"`
}

func (h HandStarted) Name() string { return "HAND_STARTED" }

type BlindPosted struct {
	TableID  string `json:"tableId"`
	HandID   string `json:"handId"`
	PlayerID string `json:"playerId"`
	Kind     string `json:"kind"` // "small" or "big"
	Amount   int    `json:"amount"`
	AllIn    bool   `json:"allIn"`
}

func (b BlindPosted) Name() string { return "BLIND_POSTED" }

// HoleCardsDealt carries one seat's private cards.
type HoleCardsDealt struct {
	TableID  string      `json:"tableId"`
	HandID   string      `json:"handId"`
	PlayerID string      `json:"playerId"`
	Cards    cards.Stack `json:"cards"`
}

func (h HoleCardsDealt) Name() string      { return "HOLE_CARDS_DEALT" }
func (h HoleCardsDealt) Recipient() string { return h.PlayerID }

// Turn Management Events
type PlayerTurnStarted struct {
	TableID    string `json:"tableId"`
	HandID     string `json:"handId"`
	PlayerID   string `json:"playerId"`
	Street     string `json:"street"`
	ToCall     int    `json:"toCall"`
	CurrentBet int    `json:"currentBet"`
}

func (p PlayerTurnStarted) Name() string { return "PLAYER_TURN_STARTED" }

type PlayerActed struct {
	TableID   string `json:"tableId"`
	HandID    string `json:"handId"`
	PlayerID  string `json:"playerId"`
	Action    string `json:"action"`
	Value     int    `json:"value"`
	StreetBet int    `json:"streetBet"`
	Chips     int    `json:"chips"`
	Pot       int    `json:"pot"`
}

func (p PlayerActed) Name() string { return "PLAYER_ACTED" }

type StreetAdvanced struct {
	TableID        string      `json:"tableId"`
	HandID         string      `json:"handId"`
	Street         string      `json:"street"`
	CommunityCards cards.Stack `json:"communityCards"`
	Runout         bool        `json:"runout"`
}

func (s StreetAdvanced) Name() string { return "STREET_ADVANCED" }

// RunoutStarted is emitted once no more betting is possible and the remaining
// streets will be revealed on a timer.
type RunoutStarted struct {
	TableID string `json:"tableId"`
	HandID  string `json:"handId"`
	Street  string `json:"street"`
}

func (r RunoutStarted) Name() string { return "RUNOUT_STARTED" }

// Settlement Events
type Winner struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Profit       int         `json:"profit"`
	HandTitle    string      `json:"handTitle"`
	HandDetail   string      `json:"handDetail"`
	WinningCards cards.Stack `json:"winningCards"`
}

type Standing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Chips    int    `json:"chips"`
	IsWinner bool   `json:"isWinner"`
}

type HandSettled struct {
	TableID     string     `json:"tableId"`
	HandID      string     `json:"handId"`
	HandNumber  int        `json:"handNumber"`
	Pot         int        `json:"pot"`
	Distributed int        `json:"distributed"`
	Remainder   int        `json:"remainder"`
	WinByFold   bool       `json:"winByFold"`
	Winners     []Winner   `json:"winners"`
	Rankings    []Standing `json:"rankings"`
	At          time.Time  `json:"at"`
}

func (h HandSettled) Name() string { return "HAND_SETTLED" }

// Table Lifecycle Events
type TableEnded struct {
	TableID string    `json:"tableId"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (t TableEnded) Name() string { return "TABLE_ENDED" }

type TableReset struct {
	TableID string    `json:"tableId"`
	At      time.Time `json:"at"`
}

func (t TableReset) Name() string { return "TABLE_RESET" }
