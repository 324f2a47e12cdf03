package matchmake

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Connector opens the client-server game connection once an address is
// known. No business logic lives here.
type Connector interface {
	Connect(ctx context.Context, ip string, port int) (*websocket.Conn, error)
}

type WsConnector struct {
	dialer *websocket.Dialer
}

var _ Connector = (*WsConnector)(nil)

func NewWsConnector() *WsConnector {
	return &WsConnector{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (wc *WsConnector) Connect(ctx context.Context, ip string, port int) (*websocket.Conn, error) {
	url := fmt.Sprintf("ws://%s:%d/arena", ip, port)
	conn, _, err := wc.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return conn, nil
}
