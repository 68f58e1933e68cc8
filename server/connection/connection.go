package connection

import (
	"sync"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
)

// Client represents a connected player
type Client struct {
	ID         string
	Conn       *websocket.Conn
	Send       chan []byte
	PlayerID   string // set by IDENTIFY
	PlayerName string
	TableIDs   []string // Tables the player is currently on
}

// Manager handles all client connections
type Manager struct {
	clients   map[string]*Client // Map connection IDs to clients
	playerMap map[string]string  // Map player IDs to connection IDs
	mutex     sync.RWMutex
	log       slog.Logger
}

// NewManager creates a new connection manager
func NewManager(log slog.Logger) *Manager {
	if log == nil {
		log = slog.Disabled
	}
	return &Manager{
		clients:   make(map[string]*Client),
		playerMap: make(map[string]string),
		log:       log,
	}
}

// Register adds a new connection.
func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.clients[client.ID] = client
}

// Unregister drops a connection and closes its send channel.
func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	if client.PlayerID != "" && m.playerMap[client.PlayerID] == client.ID {
		delete(m.playerMap, client.PlayerID)
	}
	delete(m.clients, client.ID)
	close(client.Send)
}

// Identify binds a player to a connection. A newer connection of the same
// player takes over its messages.
func (m *Manager) Identify(clientID, playerID, playerName string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return false
	}
	if client.PlayerID != "" && m.playerMap[client.PlayerID] == clientID {
		delete(m.playerMap, client.PlayerID)
	}
	client.PlayerID = playerID
	client.PlayerName = playerName
	m.playerMap[playerID] = clientID
	return true
}

// SendToClient queues a message for one connection.
func (m *Manager) SendToClient(clientID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if client, ok := m.clients[clientID]; ok {
		return m.enqueue(client, message)
	}
	return false
}

// SendToPlayer sends a message to a specific player
func (m *Manager) SendToPlayer(playerID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if connID, exists := m.playerMap[playerID]; exists {
		if client, ok := m.clients[connID]; ok {
			return m.enqueue(client, message)
		}
	}
	return false
}

// SendToTable sends a message to all players at a table
func (m *Manager) SendToTable(tableID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		for _, id := range client.TableIDs {
			if id == tableID {
				m.enqueue(client, message)
				break
			}
		}
	}
}

// enqueue never blocks: table loops call in here and a stuck client must
// not stall a table. Caller holds the lock.
func (m *Manager) enqueue(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		m.log.Warnf("Client %s send buffer full, dropping message", client.ID)
		return false
	}
}

// AddTableToClient adds a table ID to a client's tables
func (m *Manager) AddTableToClient(clientID string, tableID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client, ok := m.clients[clientID]; ok {
		for _, id := range client.TableIDs {
			if id == tableID {
				return true
			}
		}
		client.TableIDs = append(client.TableIDs, tableID)
		return true
	}
	return false
}

// RemoveTableFromClient removes a table ID from a client's tables
func (m *Manager) RemoveTableFromClient(clientID string, tableID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client, ok := m.clients[clientID]; ok {
		for i, id := range client.TableIDs {
			if id == tableID {
				client.TableIDs = append(client.TableIDs[:i], client.TableIDs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// IsClientAtTable checks if a client is at a specific table
func (m *Manager) IsClientAtTable(clientID string, tableID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if client, ok := m.clients[clientID]; ok {
		for _, id := range client.TableIDs {
			if id == tableID {
				return true
			}
		}
	}
	return false
}

// Tables returns a copy of the tables a client sits at.
func (m *Manager) Tables(clientID string) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if client, ok := m.clients[clientID]; ok {
		return append([]string(nil), client.TableIDs...)
	}
	return nil
}

// Player returns the identity bound to a connection.
func (m *Manager) Player(clientID string) (id, name string) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if client, ok := m.clients[clientID]; ok {
		return client.PlayerID, client.PlayerName
	}
	return "", ""
}
