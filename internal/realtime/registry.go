package realtime

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Conn is a writable live-connection handle. The production implementation
// wraps a websocket connection with a bounded write deadline; tests use fakes.
type Conn interface {
	WriteMessage(payload []byte) error
	Close() error
}

// Registry tracks at most one live connection per user plus the set of all
// active connections. All fields are guarded by a single mutex; sends happen
// outside it so a slow recipient never blocks connects and disconnects.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]Conn
	active map[Conn]struct{}
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		active: make(map[Conn]struct{}),
	}
}

// Register installs conn as the user's live connection, replacing any previous
// one (last connect wins). The superseded handle is closed so its read loop
// terminates.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	old, had := r.byUser[userID]
	r.byUser[userID] = conn
	r.active[conn] = struct{}{}
	if had {
		delete(r.active, old)
	}
	r.mu.Unlock()

	if had {
		old.Close()
	}
}

// Unregister drops conn from the active set. The user mapping is removed only
// if it still points at conn, so a stale disconnect cannot evict a newer
// connection for the same user.
func (r *Registry) Unregister(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, conn)
	if cur, ok := r.byUser[userID]; ok && cur == conn {
		delete(r.byUser, userID)
	}
}

// SendTo writes payload to the user's live connection. Returns false if the
// user is offline or the write fails; the caller treats that as "not delivered
// live", never as an error.
func (r *Registry) SendTo(userID string, payload []byte) bool {
	r.mu.Lock()
	conn, ok := r.byUser[userID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := conn.WriteMessage(payload); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("live send failed")
		return false
	}
	return true
}

// Broadcast writes payload to every connection active when the call started.
// The handle list is copied out under the lock and sends happen outside it; a
// failed write drops that recipient and continues with the rest.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.active))
	for conn := range r.active {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(payload); err != nil {
			log.Debug().Err(err).Msg("broadcast send failed, skipping recipient")
		}
	}
}

// Len reports the number of active connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
