package terminal

import (
	"errors"
	"sync"

	"github.com/antibyte/zen/pkg/logger"
)

// MaxClientsDefault is used when [Server] max_clients is not set.
const MaxClientsDefault = 100

var ErrTooManyClients = errors.New("too many concurrent clients")

// ClientManager tracks connected clients by session ID.
type ClientManager struct {
	clients    map[string]*Client
	maxClients int
	mu         sync.RWMutex
}

// NewClientManager creates a manager admitting at most maxClients.
func NewClientManager(maxClients int) *ClientManager {
	if maxClients <= 0 {
		maxClients = MaxClientsDefault
	}
	return &ClientManager{
		clients:    make(map[string]*Client),
		maxClients: maxClients,
	}
}

// AddClient registers client under its session ID.
func (cm *ClientManager) AddClient(client *Client) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if len(cm.clients) >= cm.maxClients {
		return ErrTooManyClients
	}
	cm.clients[client.sessionID] = client
	logger.Debug(logger.AreaServer, "Client added for session %s (%d connected)", client.sessionID, len(cm.clients))
	return nil
}

// RemoveClient forgets the client of sessionID.
func (cm *ClientManager) RemoveClient(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.clients[sessionID]; exists {
		delete(cm.clients, sessionID)
		logger.Debug(logger.AreaServer, "Client removed for session %s", sessionID)
	}
}

// GetClient returns the client of sessionID.
func (cm *ClientManager) GetClient(sessionID string) (*Client, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	client, ok := cm.clients[sessionID]
	return client, ok
}

// Count returns the number of connected clients.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// StopAll cancels the runs of every client.
func (cm *ClientManager) StopAll() {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, client := range cm.clients {
		client.stopRun()
	}
}
