// Package commands lists the requests a client can send over the websocket.
// The acting player is always the identified connection, never a field of
// the command.
package commands

type Command interface {
	Name() string
}

type Identify struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

func (i Identify) Name() string { return "IDENTIFY" }

type CreateTable struct {
	TableName  string `json:"tableName"`
	Password   string `json:"password"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	BuyIn      int    `json:"buyIn"`
	MaxPlayers int    `json:"maxPlayers"`
	Avatar     string `json:"avatar"`
	Character  string `json:"character"`
}

func (c CreateTable) Name() string { return "CREATE_TABLE" }

type JoinTable struct {
	TableID   string `json:"tableId"`
	Password  string `json:"password"`
	BuyIn     int    `json:"buyIn"`
	Avatar    string `json:"avatar"`
	Character string `json:"character"`
}

func (j JoinTable) Name() string { return "JOIN_TABLE" }

type LeaveTable struct {
	TableID string `json:"tableId"`
}

func (l LeaveTable) Name() string { return "LEAVE_TABLE" }

type SetReady struct {
	TableID string `json:"tableId"`
	Ready   bool   `json:"ready"`
}

func (s SetReady) Name() string { return "SET_READY" }

type StartHand struct {
	TableID string `json:"tableId"`
}

func (s StartHand) Name() string { return "START_HAND" }

// PlayerActs carries a betting action. Amount is the raise-to total and is
// ignored for the other actions.
type PlayerActs struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int    `json:"amount"`
}

func (p PlayerActs) Name() string { return "PLAYER_ACTS" }

type AddBot struct {
	TableID string `json:"tableId"`
}

func (a AddBot) Name() string { return "ADD_BOT" }
