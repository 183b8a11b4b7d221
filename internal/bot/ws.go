package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/hazz2-game/hazz2/internal/protocol"
)

const writeWait = 10 * time.Second

// ErrClosed is returned once the websocket has been closed.
var ErrClosed = errors.New("websocket closed")

type inbound struct {
	msg protocol.Outbound
	err error
}

// WSTransport is a participant connection to a remote gateway. A reader
// goroutine decodes frames, so Receive can time out without closing the
// socket.
type WSTransport struct {
	c      *websocket.Conn
	in     chan inbound
	cancel context.CancelFunc
}

// DialWS connects to a gateway's /ws endpoint.
func DialWS(ctx context.Context, url string) (*WSTransport, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	rctx, cancel := context.WithCancel(context.Background())
	t := &WSTransport{c: c, in: make(chan inbound, 64), cancel: cancel}
	go t.readLoop(rctx)
	return t, nil
}

func (t *WSTransport) readLoop(ctx context.Context) {
	defer close(t.in)
	for {
		_, data, err := t.c.Read(ctx)
		if err != nil {
			select {
			case t.in <- inbound{err: err}:
			case <-ctx.Done():
			}
			return
		}
		msg, err := protocol.DecodeOutbound(data)
		if err != nil {
			log.WithError(err).Warn("Dropping undecodable frame.")
			continue
		}
		select {
		case t.in <- inbound{msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}

func (t *WSTransport) Send(ctx context.Context, msg protocol.Inbound) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return t.c.Write(wctx, websocket.MessageText, data)
}

func (t *WSTransport) Receive(ctx context.Context) (protocol.Outbound, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-t.in:
		if !ok {
			return nil, ErrClosed
		}
		return r.msg, r.err
	}
}

func (t *WSTransport) Close() error {
	t.cancel()
	return t.c.Close(websocket.StatusNormalClosure, "bye")
}
