package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	ErrReadOnly = errors.New("transport: channel is read-only")
	ErrClosed   = errors.New("transport: closed")
)

// Transport delivers inbound snapshot payloads and carries outbound action
// payloads. Messages is closed when the channel ends; Err then reports why
// (nil after a local Close).
type Transport interface {
	Messages() <-chan []byte
	Err() error
	Send(ctx context.Context, msg []byte) error
	Close() error
}

// PlayerURL builds the per-player WebSocket endpoint: /ws/{game}/{color}.
func PlayerURL(base, game, color string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path.Join("/", strings.TrimSuffix(u.Path, "/"), "ws", game, color)
	return u.String(), nil
}

// SpectatorURL builds the broadcast event-stream endpoint: /sse/{game}.
func SpectatorURL(base, game string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "http"
	case "https", "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path.Join("/", strings.TrimSuffix(u.Path, "/"), "sse", game)
	return u.String(), nil
}
