package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/slog"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/commands"
	"github.com/lazharichir/holdem/lobby"
	"github.com/lazharichir/holdem/server/connection"
	"github.com/lazharichir/holdem/server/events"
)

var (
	ErrNotIdentified  = errors.New("send IDENTIFY first")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotAtTable     = errors.New("not seated at that table")
)

const (
	IdentifiedName     = "IDENTIFIED"
	TableCreatedName   = "TABLE_CREATED"
	ActionAcceptedName = "ACTION_ACCEPTED"
)

// ActionAccepted answers the acting player with what the table recorded,
// e.g. a short call turned into an all-in.
type ActionAccepted struct {
	TableID string            `json:"tableId"`
	Action  domain.ActionType `json:"action"`
	Value   int               `json:"value"`
}

// CommandRouter routes incoming commands to the appropriate handler
type CommandRouter struct {
	lobby      *lobby.Lobby
	connMgr    *connection.Manager
	dispatcher *events.Dispatcher
	log        slog.Logger
}

// NewCommandRouter creates a new command router
func NewCommandRouter(l *lobby.Lobby, connMgr *connection.Manager, dispatcher *events.Dispatcher, log slog.Logger) *CommandRouter {
	if log == nil {
		log = slog.Disabled
	}
	return &CommandRouter{
		lobby:      l,
		connMgr:    connMgr,
		dispatcher: dispatcher,
		log:        log,
	}
}

func decode[T commands.Command](message []byte) (T, error) {
	var cmd T
	if err := json.Unmarshal(message, &cmd); err != nil {
		return cmd, fmt.Errorf("decode %s: %w", cmd.Name(), err)
	}
	return cmd, nil
}

// HandleCommand processes an incoming command message
func (r *CommandRouter) HandleCommand(client *connection.Client, message []byte) error {
	var baseCmd struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(message, &baseCmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}

	if baseCmd.Name == (commands.Identify{}).Name() {
		cmd, err := decode[commands.Identify](message)
		if err != nil {
			return err
		}
		return r.handleIdentify(client, cmd)
	}

	playerID, playerName := r.connMgr.Player(client.ID)
	if playerID == "" {
		return ErrNotIdentified
	}
	p := player{id: playerID, name: playerName}

	switch baseCmd.Name {
	case commands.CreateTable{}.Name():
		cmd, err := decode[commands.CreateTable](message)
		if err != nil {
			return err
		}
		return r.handleCreateTable(client, p, cmd)

	case commands.JoinTable{}.Name():
		cmd, err := decode[commands.JoinTable](message)
		if err != nil {
			return err
		}
		return r.handleJoinTable(client, p, cmd)

	case commands.LeaveTable{}.Name():
		cmd, err := decode[commands.LeaveTable](message)
		if err != nil {
			return err
		}
		return r.handleLeaveTable(client, p, cmd)

	case commands.SetReady{}.Name():
		cmd, err := decode[commands.SetReady](message)
		if err != nil {
			return err
		}
		return r.handleSetReady(client, p, cmd)

	case commands.StartHand{}.Name():
		cmd, err := decode[commands.StartHand](message)
		if err != nil {
			return err
		}
		return r.handleStartHand(client, p, cmd)

	case commands.PlayerActs{}.Name():
		cmd, err := decode[commands.PlayerActs](message)
		if err != nil {
			return err
		}
		return r.handlePlayerActs(client, p, cmd)

	case commands.AddBot{}.Name():
		cmd, err := decode[commands.AddBot](message)
		if err != nil {
			return err
		}
		return r.handleAddBot(client, p, cmd)

	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, baseCmd.Name)
	}
}

type player struct {
	id   string
	name string
}

func (r *CommandRouter) handleIdentify(client *connection.Client, cmd commands.Identify) error {
	id := strings.TrimSpace(cmd.PlayerID)
	if id == "" {
		return errors.New("playerId is required")
	}
	name := strings.TrimSpace(cmd.PlayerName)
	if name == "" {
		name = id
	}

	if current, _ := r.connMgr.Player(client.ID); current != "" && current != id {
		return fmt.Errorf("connection already identified as %s", current)
	}
	r.connMgr.Identify(client.ID, id, name)
	r.log.Debugf("Client %s identified as %s (%s)", client.ID, id, name)

	data, err := events.Encode(IdentifiedName, cmd)
	if err != nil {
		return err
	}
	r.connMgr.SendToClient(client.ID, data)
	return nil
}

func (r *CommandRouter) handleCreateTable(client *connection.Client, p player, cmd commands.CreateTable) error {
	tableID, err := r.lobby.CreateTable(p.id, p.name, lobby.CreateOptions{
		Name:       cmd.TableName,
		Password:   cmd.Password,
		SmallBlind: cmd.SmallBlind,
		BigBlind:   cmd.BigBlind,
		BuyIn:      cmd.BuyIn,
		MaxPlayers: cmd.MaxPlayers,

		HostAvatar:    cmd.Avatar,
		HostCharacter: cmd.Character,
	})
	if err != nil {
		return err
	}
	r.connMgr.AddTableToClient(client.ID, tableID)

	data, err := events.Encode(TableCreatedName, map[string]string{"tableId": tableID})
	if err != nil {
		return err
	}
	r.connMgr.SendToClient(client.ID, data)
	return r.sendSnapshot(client, tableID)
}

func (r *CommandRouter) handleJoinTable(client *connection.Client, p player, cmd commands.JoinTable) error {
	// listen first so the joiner sees its own join
	wasListening := r.connMgr.IsClientAtTable(client.ID, cmd.TableID)
	r.connMgr.AddTableToClient(client.ID, cmd.TableID)

	_, err := r.lobby.Join(cmd.TableID, p.id, p.name, cmd.BuyIn, cmd.Password,
		domain.WithAvatar(cmd.Avatar), domain.WithCharacter(cmd.Character))
	if err != nil {
		if !wasListening {
			r.connMgr.RemoveTableFromClient(client.ID, cmd.TableID)
		}
		return err
	}
	return nil
}

func (r *CommandRouter) handleLeaveTable(client *connection.Client, p player, cmd commands.LeaveTable) error {
	if !r.connMgr.IsClientAtTable(client.ID, cmd.TableID) {
		return ErrNotAtTable
	}
	r.connMgr.RemoveTableFromClient(client.ID, cmd.TableID)

	if err := r.lobby.Leave(cmd.TableID, p.id); err != nil {
		r.connMgr.AddTableToClient(client.ID, cmd.TableID)
		return err
	}
	return nil
}

// LeaveAll takes a disconnected player off every table it sat at.
func (r *CommandRouter) LeaveAll(client *connection.Client) {
	playerID, _ := r.connMgr.Player(client.ID)
	if playerID == "" {
		return
	}
	for _, tableID := range r.connMgr.Tables(client.ID) {
		r.connMgr.RemoveTableFromClient(client.ID, tableID)
		if err := r.lobby.Leave(tableID, playerID); err != nil && !errors.Is(err, domain.ErrPlayerNotFound) {
			r.log.Warnf("%s could not leave table %s: %v", playerID, tableID, err)
		}
	}
}

func (r *CommandRouter) handleSetReady(client *connection.Client, p player, cmd commands.SetReady) error {
	loop, err := r.lobby.Get(cmd.TableID)
	if err != nil {
		return err
	}
	return loop.SetReady(p.id, cmd.Ready)
}

func (r *CommandRouter) handleStartHand(client *connection.Client, p player, cmd commands.StartHand) error {
	loop, err := r.lobby.Get(cmd.TableID)
	if err != nil {
		return err
	}
	return loop.StartHand(p.id)
}

func (r *CommandRouter) handlePlayerActs(client *connection.Client, p player, cmd commands.PlayerActs) error {
	action, err := domain.ParseAction(cmd.Action)
	if err != nil {
		return err
	}
	loop, err := r.lobby.Get(cmd.TableID)
	if err != nil {
		return err
	}
	result, err := loop.Act(p.id, action, cmd.Amount)
	if err != nil {
		return err
	}

	data, err := events.Encode(ActionAcceptedName, ActionAccepted{
		TableID: cmd.TableID,
		Action:  result.Action,
		Value:   result.Value,
	})
	if err != nil {
		return err
	}
	r.connMgr.SendToClient(client.ID, data)
	return nil
}

func (r *CommandRouter) handleAddBot(client *connection.Client, p player, cmd commands.AddBot) error {
	loop, err := r.lobby.Get(cmd.TableID)
	if err != nil {
		return err
	}
	seat, err := loop.AddBot(p.id)
	if err != nil {
		return err
	}
	r.log.Infof("%s added %s to table %s", p.id, seat.Name, cmd.TableID)
	return nil
}

func (r *CommandRouter) sendSnapshot(client *connection.Client, tableID string) error {
	loop, err := r.lobby.Get(tableID)
	if err != nil {
		return err
	}
	snap, err := loop.Snapshot()
	if err != nil {
		return err
	}
	r.dispatcher.SendSnapshot(client.ID, snap)
	return nil
}
