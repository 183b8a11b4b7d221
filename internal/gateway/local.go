package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hazz2-game/hazz2/internal/protocol"
)

// LocalLink is an in-process participant connection. Outbound frames go
// through the same encoding as websocket traffic.
type LocalLink struct {
	s    *Server
	conn *Conn
}

// Dial registers an in-process connection for role.
func (s *Server) Dial(role protocol.Role) *LocalLink {
	conn := s.Hub.Register(role, fmt.Sprintf("local:%s/%s", role, uuid.NewString()[:8]))
	s.log.WithField("role", role).Info("Local participant attached.")
	return &LocalLink{s: s, conn: conn}
}

// Role returns the role the link was dialed for.
func (l *LocalLink) Role() protocol.Role { return l.conn.Role }

func (l *LocalLink) Send(_ context.Context, msg protocol.Inbound) error {
	select {
	case <-l.conn.done:
		return ErrClosed
	default:
	}
	if sub, ok := msg.(protocol.Subscribe); ok {
		if sub.Player != l.conn.Role {
			return fmt.Errorf("link is bound to %s, not %s", l.conn.Role, sub.Player)
		}
		sub.Address = l.conn.Addr
		msg = sub
	}
	l.s.coord.HandleMessage(l.conn.Role, msg)
	return nil
}

func (l *LocalLink) Receive(ctx context.Context) (protocol.Outbound, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.conn.done:
		return nil, ErrClosed
	case data := <-l.conn.out:
		return protocol.DecodeOutbound(data)
	}
}

func (l *LocalLink) Close() error {
	if l.s.Hub.Unregister(l.conn) {
		l.s.coord.Unsubscribe(l.conn.Role, l.conn.Addr)
	}
	return nil
}
