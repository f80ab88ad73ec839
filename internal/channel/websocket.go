package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"streamdash/pkg/logging"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	wsInboundBuffer  = 256
)

// frame is the websocket wire form of an Envelope.
type frame struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

type wsTransport struct {
	conn      *websocket.Conn
	in        chan Envelope
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	// frames that were not a JSON {origin,data} object
	badFrames atomic.Int64
}

// DialWebSocket connects the dashboard to a host websocket endpoint. The
// handshake carries origin in its Origin header so the host can apply the
// same-origin rule before upgrading.
func DialWebSocket(ctx context.Context, url, origin string) (Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	header.Set("Origin", origin)

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial host %s: %w", url, err)
	}
	logging.Info("Channel", "Connected to host at %s", url)
	return newWSTransport(conn), nil
}

// WebSocketHandler upgrades requests whose Origin header equals
// allowedOrigin and passes each connection to onConnect. Other requests are
// refused with 403 before any frame is exchanged.
func WebSocketHandler(allowedOrigin string, onConnect func(Transport)) http.Handler {
	upgrader := websocket.Upgrader{
		HandshakeTimeout: handshakeTimeout,
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("Channel", "Rejected websocket upgrade from %q: %v", r.Header.Get("Origin"), err)
			return
		}
		onConnect(newWSTransport(conn))
	})
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{
		conn: conn,
		in:   make(chan Envelope, wsInboundBuffer),
		done: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *wsTransport) readLoop() {
	defer close(t.in)
	for {
		_, raw, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Warn("Channel", "Websocket read ended: %v", err)
				}
			}
			_ = t.Close()
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.badFrames.Add(1)
			logging.Warn("Channel", "Ignoring malformed websocket frame: %v", err)
			continue
		}
		select {
		case t.in <- Envelope{Origin: f.Origin, Data: f.Data}:
		case <-t.done:
			return
		}
	}
}

func (t *wsTransport) Post(origin string, data []byte) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := t.conn.WriteJSON(frame{Origin: origin, Data: data}); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (t *wsTransport) Inbound() <-chan Envelope { return t.in }

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
