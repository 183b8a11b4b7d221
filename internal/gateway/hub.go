// Package gateway connects participants to the coordinator: a role
// registry that delivers outbound frames, the websocket endpoint, in-process
// links for local bots and the HTTP routes around them.
package gateway

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/hazz2-game/hazz2/internal/logger"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// sendBuffer is the per-connection outbound queue length.
const sendBuffer = 256

// ErrClosed is returned by a link whose connection was closed or replaced.
var ErrClosed = errors.New("connection closed")

// Conn is one registered participant connection.
type Conn struct {
	ID   uuid.UUID
	Role protocol.Role
	Addr string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed when the connection is unregistered or replaced.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Hub maps roles to their current connection. It implements the
// coordinator's Sender: Send never blocks.
type Hub struct {
	mu    sync.RWMutex
	conns map[protocol.Role]*Conn
	log   *log.Entry
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[protocol.Role]*Conn),
		log:   logger.Component("hub"),
	}
}

// Register binds role to a new connection. A previous connection for the
// same role is closed.
func (h *Hub) Register(role protocol.Role, addr string) *Conn {
	id, _ := uuid.NewRandom()
	conn := &Conn{
		ID:   id,
		Role: role,
		Addr: addr,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	old := h.conns[role]
	h.conns[role] = conn
	h.mu.Unlock()

	if old != nil {
		h.log.Infof("%s reconnected from %s, closing previous connection %s.", role, addr, old.ID)
		old.close()
	}
	return conn
}

// Unregister removes conn if it is still the role's current connection and
// reports whether it was.
func (h *Hub) Unregister(conn *Conn) bool {
	h.mu.Lock()
	current := h.conns[conn.Role] == conn
	if current {
		delete(h.conns, conn.Role)
	}
	h.mu.Unlock()
	conn.close()
	return current
}

// Lookup returns the current connection of role.
func (h *Hub) Lookup(role protocol.Role) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[role]
	return c, ok
}

// Len returns the number of registered roles.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send queues msg for role. Messages for unknown roles and for full queues
// are dropped with a log line.
func (h *Hub) Send(to protocol.Role, msg protocol.Outbound) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Errorf("Failed encoding %s for %s.", msg.Kind(), to)
		return
	}
	h.mu.RLock()
	conn, ok := h.conns[to]
	h.mu.RUnlock()
	if !ok {
		h.log.Debugf("No connection for %s, dropping %s.", to, msg.Kind())
		return
	}
	select {
	case conn.out <- data:
	case <-conn.done:
	default:
		h.log.Warnf("Send queue full for %s (%s), dropping %s.", to, conn.ID, msg.Kind())
	}
}
