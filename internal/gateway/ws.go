package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	redis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/hazz2-game/hazz2/internal/game"
	"github.com/hazz2-game/hazz2/internal/logger"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

const (
	writeWait        = 10 * time.Second
	pingPeriod       = 25 * time.Second
	subscribeTimeout = 10 * time.Second
)

// Coordinator is the session side of the gateway.
type Coordinator interface {
	HandleMessage(from protocol.Role, msg protocol.Inbound)
	Unsubscribe(role protocol.Role, address string)
	Info() game.SessionInfo
}

// Feed opens a subscription to the live action feed.
type Feed interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string // empty accepts any origin
	Feed           Feed     // nil disables /api/feed
}

// Server routes participant connections to the coordinator.
type Server struct {
	Hub   *Hub
	coord Coordinator
	opts  Options
	log   *log.Entry
}

func NewServer(hub *Hub, coord Coordinator, opts Options) *Server {
	return &Server{
		Hub:   hub,
		coord: coord,
		opts:  opts,
		log:   logger.Component("gateway"),
	}
}

// ServeWS upgrades a participant connection. The first frame must be a
// subscribe; the connection is bound to that role until it closes.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	accept := &websocket.AcceptOptions{OriginPatterns: s.opts.AllowedOrigins}
	if len(s.opts.AllowedOrigins) == 0 {
		accept.InsecureSkipVerify = true
	}
	c, err := websocket.Accept(w, r, accept)
	if err != nil {
		s.log.WithError(err).Warnf("Websocket accept failed for %s.", r.RemoteAddr)
		return
	}
	defer c.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.handshake(ctx, c)
	if err != nil {
		s.log.WithError(err).Infof("Rejected connection from %s.", r.RemoteAddr)
		c.Close(websocket.StatusPolicyViolation, "subscribe required")
		return
	}
	role := sub.Player
	sub.Address = r.RemoteAddr

	conn := s.Hub.Register(role, r.RemoteAddr)
	entry := s.log.WithFields(log.Fields{"role": role, "conn": conn.ID.String()[:8]})
	entry.Infof("Connected from %s.", r.RemoteAddr)
	defer func() {
		if s.Hub.Unregister(conn) {
			s.coord.Unsubscribe(role, conn.Addr)
		}
		entry.Info("Connection closed.")
	}()

	go s.writePump(ctx, cancel, c, conn, entry)
	s.coord.HandleMessage(role, sub)
	s.readPump(ctx, c, conn, entry)
}

// handshake reads the subscribe frame, answering anything else with a reject.
func (s *Server) handshake(ctx context.Context, c *websocket.Conn) (protocol.Subscribe, error) {
	rctx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()
	_, data, err := c.Read(rctx)
	if err != nil {
		return protocol.Subscribe{}, fmt.Errorf("read subscribe: %w", err)
	}
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		inv := protocol.AsInvalid(err)
		s.writeNow(ctx, c, protocol.Reject{Error: inv.Code, Detail: inv.Reason})
		return protocol.Subscribe{}, err
	}
	sub, ok := msg.(protocol.Subscribe)
	if !ok {
		s.writeNow(ctx, c, protocol.Reject{Error: protocol.CodeNotSubscribed, Detail: "first message must be subscribe"})
		return protocol.Subscribe{}, fmt.Errorf("first frame was %s", msg.Kind())
	}
	return sub, nil
}

func (s *Server) writeNow(ctx context.Context, c *websocket.Conn, msg protocol.Outbound) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	_ = c.Write(wctx, websocket.MessageText, data)
}

func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *Conn, entry *log.Entry) {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				entry.WithError(err).Debug("Read failed.")
			}
			return
		}
		msg, err := protocol.DecodeInbound(data)
		if err != nil {
			entry.WithError(err).Debug("Invalid frame.")
			msg = protocol.AsInvalid(err)
		}
		if sub, ok := msg.(protocol.Subscribe); ok {
			if sub.Player != conn.Role {
				msg = protocol.Invalid{
					Type:   protocol.KindSubscribe,
					Code:   protocol.CodeNotSubscribed,
					Reason: fmt.Sprintf("connection is bound to %s", conn.Role),
				}
			} else {
				sub.Address = conn.Addr
				msg = sub
			}
		}
		s.coord.HandleMessage(conn.Role, msg)
	}
}

func (s *Server) writePump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, conn *Conn, entry *log.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			c.Close(websocket.StatusPolicyViolation, "replaced by a new connection")
			return
		case data := <-conn.out:
			wctx, wcancel := context.WithTimeout(ctx, writeWait)
			err := c.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				entry.WithError(err).Debug("Write failed.")
				return
			}
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeWait)
			err := c.Ping(pctx)
			pcancel()
			if err != nil {
				entry.WithError(err).Debug("Ping failed.")
				return
			}
		}
	}
}
