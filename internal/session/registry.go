// Package session maps durable player identities to live transport connections.
package session

import "sync"

// Registry is a bidirectional user <-> connection index. A connection belongs to
// at most one user and a user has at most one live connection; binding a user
// to a new connection replaces the old pairing.
type Registry struct {
	mu         sync.RWMutex
	userToConn map[string]string
	connToUser map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		userToConn: make(map[string]string),
		connToUser: make(map[string]string),
	}
}

// Bind associates userID with connID, dropping any previous pairing of either.
func (r *Registry) Bind(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldConn, ok := r.userToConn[userID]; ok && oldConn != connID {
		delete(r.connToUser, oldConn)
	}
	if oldUser, ok := r.connToUser[connID]; ok && oldUser != userID {
		if r.userToConn[oldUser] == connID {
			delete(r.userToConn, oldUser)
		}
	}

	r.userToConn[userID] = connID
	r.connToUser[connID] = userID
}

// UserFor returns the user bound to connID.
func (r *Registry) UserFor(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.connToUser[connID]
	return userID, ok
}

// ConnFor returns the live connection of userID.
func (r *Registry) ConnFor(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.userToConn[userID]
	return connID, ok
}

// Unbind forgets connID and returns the user it belonged to. The user's entry
// is only removed if it still points at connID.
func (r *Registry) Unbind(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.connToUser[connID]
	if !ok {
		return "", false
	}
	delete(r.connToUser, connID)
	if r.userToConn[userID] == connID {
		delete(r.userToConn, userID)
	}
	return userID, true
}

// Count returns the number of bound connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connToUser)
}
