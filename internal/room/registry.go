package room

import "sync"

// Registry maps participant identities to their live connection id.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[string]string
	byConn     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[string]string),
		byConn:     make(map[string]string),
	}
}

// Bind points the identity at the connection, replacing any previous mapping.
// A connection speaks for a single identity: when it was bound to another
// identity, that identity is unbound and returned as displaced.
func (r *Registry) Bind(participantID, connID string) (displaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byIdentity[participantID]; ok && prev != connID {
		delete(r.byConn, prev)
	}
	if prev, ok := r.byConn[connID]; ok && prev != participantID {
		delete(r.byIdentity, prev)
		displaced = prev
	}
	r.byIdentity[participantID] = connID
	r.byConn[connID] = participantID
	return displaced
}

// Resolve returns the connection bound to the identity.
func (r *Registry) Resolve(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byIdentity[participantID]
	return connID, ok
}

// Unbind removes the identity's mapping.
func (r *Registry) Unbind(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.byIdentity[participantID]
	if !ok {
		return
	}
	delete(r.byIdentity, participantID)
	if r.byConn[connID] == participantID {
		delete(r.byConn, connID)
	}
}

// FindIdentityByConnection is the reverse lookup used on disconnect.
func (r *Registry) FindIdentityByConnection(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	participantID, ok := r.byConn[connID]
	return participantID, ok
}

// Len returns the number of live bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity)
}
