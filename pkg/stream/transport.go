package stream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the manager drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens a stream connection to url.
type Dialer func(ctx context.Context, url string) (Conn, error)

// GorillaDialer dials with gorilla/websocket, honouring proxy settings from
// the environment.
func GorillaDialer(handshakeTimeout time.Duration) Dialer {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	return func(ctx context.Context, url string) (Conn, error) {
		conn, resp, err := d.DialContext(ctx, url, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("stream: dial %s: %w (status %d)", url, err, resp.StatusCode)
			}
			return nil, fmt.Errorf("stream: dial %s: %w", url, err)
		}
		return conn, nil
	}
}

// StreamURL derives the websocket endpoint from an API root, e.g.
// https://api.hyperliquid.xyz becomes wss://api.hyperliquid.xyz/ws.
func StreamURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return "ws" + strings.TrimPrefix(base, "http") + "/ws"
}
