package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocketConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	Header           http.Header
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     25 * time.Second,
		MaxMessageSize:   64 << 10, // a 19x19 frame is well under this
	}
}

// WebSocket is the per-player bidirectional channel.
type WebSocket struct {
	ws  *websocket.Conn
	cfg WebSocketConfig
	log *slog.Logger

	in   chan []byte
	send chan []byte
	done chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func DialWebSocket(ctx context.Context, url string, cfg WebSocketConfig, log *slog.Logger) (*WebSocket, error) {
	if log == nil {
		log = slog.Default()
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	ws, resp, err := dialer.DialContext(ctx, url, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	t := &WebSocket{
		ws:   ws,
		cfg:  cfg,
		log:  log,
		in:   make(chan []byte, 16),
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	if cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(cfg.MaxMessageSize)
	}

	go t.writeLoop()
	go t.readLoop()

	log.Info("websocket connected", "url", url)
	return t, nil
}

func (t *WebSocket) Messages() <-chan []byte { return t.in }

func (t *WebSocket) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *WebSocket) Send(ctx context.Context, msg []byte) error {
	if t.closing() {
		return ErrClosed
	}
	select {
	case t.send <- msg:
		return nil
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *WebSocket) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		deadline := time.Now().Add(time.Second)
		_ = t.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
		err = t.ws.Close()
	})
	return err
}

func (t *WebSocket) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *WebSocket) closing() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *WebSocket) readLoop() {
	defer close(t.in)

	for {
		_, data, err := t.ws.ReadMessage()
		if err != nil {
			switch {
			case t.closing():
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				t.setErr(fmt.Errorf("server closed connection: %w", err))
			default:
				t.setErr(err)
			}
			return
		}
		select {
		case t.in <- data:
		case <-t.done:
			return
		}
	}
}

func (t *WebSocket) writeLoop() {
	var ping <-chan time.Time
	if t.cfg.PingInterval > 0 {
		ticker := time.NewTicker(t.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-t.done:
			return
		case msg := <-t.send:
			t.deadline()
			if err := t.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				t.fail(err)
				return
			}
		case <-ping:
			t.deadline()
			if err := t.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.fail(err)
				return
			}
		}
	}
}

func (t *WebSocket) deadline() {
	if t.cfg.WriteTimeout > 0 {
		_ = t.ws.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
}

// fail records a write error and unblocks the reader by closing the socket.
func (t *WebSocket) fail(err error) {
	if t.closing() {
		return
	}
	if !errors.Is(err, websocket.ErrCloseSent) {
		t.log.Warn("websocket write failed", "err", err)
	}
	t.setErr(err)
	_ = t.ws.Close()
}
