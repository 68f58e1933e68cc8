package domain

import "github.com/lazharichir/holdem/cards"

// SeatView is the public state of one seat.
type SeatView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Chips     int         `json:"chips"`
	Status    SeatStatus  `json:"status"`
	StreetBet int         `json:"streetBet"`
	IsDealer  bool        `json:"isDealer"`
	IsTurn    bool        `json:"isTurn"`
	IsReady   bool        `json:"isReady"`
	IsBot     bool        `json:"isBot"`
	Avatar    string      `json:"avatar,omitempty"`
	Character string      `json:"character,omitempty"`
	HasCards  bool        `json:"hasCards"`
	Cards     cards.Stack `json:"cards"`
}

// Snapshot is the table as every player may see it.
type Snapshot struct {
	TableID        string      `json:"tableId"`
	Name           string      `json:"name"`
	Phase          TablePhase  `json:"phase"`
	Street         Street      `json:"street,omitempty"`
	Seats          []SeatView  `json:"seats"`
	Pot            int         `json:"pot"`
	CurrentBet     int         `json:"currentBet"`
	CommunityCards cards.Stack `json:"communityCards"`
	TurnSeatID     string      `json:"turnSeatId"`
	HostID         string      `json:"hostId"`
	HandNumber     int         `json:"handNumber"`
	SmallBlind     int         `json:"smallBlind"`
	BigBlind       int         `json:"bigBlind"`
	MaxPlayers     int         `json:"maxPlayers"`
	HasPassword    bool        `json:"hasPassword"`
	RunoutPending  bool        `json:"runoutPending"`
	LastSettlement *Settlement `json:"lastSettlement"`
}

// PlayerView is a snapshot personalised for one seat: its own hole cards
// and what it may do now.
type PlayerView struct {
	Snapshot
	PlayerID         string       `json:"playerId"`
	HoleCards        cards.Stack  `json:"holeCards"`
	AvailableActions []ActionType `json:"availableActions"`
	ToCall           int          `json:"toCall"`
	MinRaise         int          `json:"minRaise"`
}

// Snapshot builds the public view. Hole cards are only shown for the seats
// that reached a contested showdown.
func (t *Table) Snapshot() Snapshot {
	snap := Snapshot{
		TableID:        t.ID,
		Name:           t.Name,
		Phase:          t.Phase,
		Seats:          make([]SeatView, 0, len(t.Seats)),
		CommunityCards: cards.Stack{},
		TurnSeatID:     t.TurnSeatID(),
		HostID:         t.HostID,
		HandNumber:     t.HandCount,
		SmallBlind:     t.Rules.SmallBlind,
		BigBlind:       t.Rules.BigBlind,
		MaxPlayers:     t.Rules.MaxPlayers,
		HasPassword:    t.HasPassword(),
		LastSettlement: t.LastSettlement,
	}

	if h := t.Hand; h != nil {
		snap.Street = h.Street
		snap.Pot = h.Pot
		snap.CurrentBet = h.CurrentBet
		snap.CommunityCards = append(snap.CommunityCards, h.CommunityCards...)
		snap.RunoutPending = h.RunoutPending
	}

	reveal := t.Phase == PhaseShowdown && t.LastSettlement != nil && !t.LastSettlement.WinByFold
	for _, s := range t.Seats {
		if s.departed {
			continue
		}
		view := SeatView{
			ID:        s.ID,
			Name:      s.Name,
			Chips:     s.Chips,
			Status:    s.Status,
			StreetBet: s.StreetBet,
			IsDealer:  s.IsDealer,
			IsTurn:    s.IsTurn,
			IsReady:   s.IsReady,
			IsBot:     s.IsBot,
			Avatar:    s.Avatar,
			Character: s.Character,
			HasCards:  len(s.HoleCards) > 0 && s.Status != SeatFolded,
		}
		if reveal && s.InHand() {
			view.Cards = s.HoleCards.Clone()
		}
		snap.Seats = append(snap.Seats, view)
	}

	return snap
}

// PlayerView builds the snapshot as seen from playerID's seat.
func (t *Table) PlayerView(playerID string) PlayerView {
	view := PlayerView{
		Snapshot: t.Snapshot(),
		PlayerID: playerID,
	}

	seat := t.GetSeat(playerID)
	if seat == nil {
		return view
	}
	view.HoleCards = seat.HoleCards.Clone()
	view.AvailableActions = t.LegalActions(playerID)
	if t.Phase == PhasePlaying && t.Hand != nil {
		view.ToCall = t.Hand.CurrentBet - seat.StreetBet
		view.MinRaise = t.MinRaise()
	}
	return view
}
