package events

import (
	"encoding/json"
	"errors"

	"github.com/decred/slog"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/server/connection"
)

const (
	SnapshotName = "TABLE_SNAPSHOT"
	ErrorName    = "ERROR"
)

// EventEnvelope wraps an event with its name for client consumption
type EventEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is sent to the one client whose request was rejected.
type ErrorPayload struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Encode builds the wire form of a named payload.
func Encode(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{Name: name, Payload: raw})
}

// Dispatcher handles routing events to clients
type Dispatcher struct {
	connMgr *connection.Manager
	log     slog.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(connMgr *connection.Manager, log slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Disabled
	}
	return &Dispatcher{
		connMgr: connMgr,
		log:     log,
	}
}

// HandleEvent sends a table event to the players it concerns: private
// events to their recipient only, the rest to the whole table.
func (d *Dispatcher) HandleEvent(tableID string, event events.Event) {
	data, err := Encode(event.Name(), event)
	if err != nil {
		d.log.Errorf("Failed to encode %s: %v", event.Name(), err)
		return
	}
	d.log.Tracef("Dispatching %s to table %s", event.Name(), tableID)

	switch e := event.(type) {
	case events.PrivateEvent:
		d.connMgr.SendToPlayer(e.Recipient(), data)

	case events.PlayerLeftTable:
		// the leaver no longer listens on the table
		d.connMgr.SendToTable(tableID, data)
		d.connMgr.SendToPlayer(e.PlayerID, data)

	default:
		d.connMgr.SendToTable(tableID, data)
	}
}

// HandleSnapshot broadcasts the public table state.
func (d *Dispatcher) HandleSnapshot(snap domain.Snapshot) {
	data, err := Encode(SnapshotName, snap)
	if err != nil {
		d.log.Errorf("Failed to encode snapshot of %s: %v", snap.TableID, err)
		return
	}
	d.connMgr.SendToTable(snap.TableID, data)
}

// SendSnapshot gives one client the current state, e.g. right after it sat.
func (d *Dispatcher) SendSnapshot(clientID string, snap domain.Snapshot) {
	data, err := Encode(SnapshotName, snap)
	if err != nil {
		d.log.Errorf("Failed to encode snapshot of %s: %v", snap.TableID, err)
		return
	}
	d.connMgr.SendToClient(clientID, data)
}

// SendError reports a failed request to the client that made it.
func (d *Dispatcher) SendError(clientID string, err error) {
	payload := ErrorPayload{Code: "ERROR", Message: err.Error()}

	var rejection *domain.Rejection
	if errors.As(err, &rejection) {
		payload.Code = rejection.Code.Error()
		payload.Kind = string(rejection.Kind)
	}

	data, encErr := Encode(ErrorName, payload)
	if encErr != nil {
		d.log.Errorf("Failed to encode error for %s: %v", clientID, encErr)
		return
	}
	d.connMgr.SendToClient(clientID, data)
}
