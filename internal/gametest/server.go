// Package gametest runs an in-process game server speaking the player and
// spectator protocols, for tests that need a real network peer.
package gametest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"example.com/goban-client/internal/auth"
	"example.com/goban-client/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Received is one action read from a seated player.
type Received struct {
	Color  string
	UserID string
	Action protocol.Action
}

type Options struct {
	// Secret enables bearer token checks on the player route.
	Secret []byte
	// PingInterval for player connections; zero disables pings.
	PingInterval time.Duration
}

// Server is a scripted game host. Tests push snapshots with Broadcast and
// read player actions from Actions.
type Server struct {
	gameID string
	opts   Options
	ts     *httptest.Server

	mu         sync.Mutex
	last       []byte
	players    map[string]*peer
	spectators map[chan []byte]struct{}
	seated     chan string

	actions chan Received
	done    chan struct{}
	once    sync.Once
}

type peer struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.send)
		_ = p.ws.Close()
	})
}

func NewServer(gameID string, opts Options) *Server {
	s := &Server{
		gameID:     gameID,
		opts:       opts,
		players:    make(map[string]*peer),
		spectators: make(map[chan []byte]struct{}),
		seated:     make(chan string, 4),
		actions:    make(chan Received, 64),
		done:       make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{game}/{color}", s.handlePlayer)
	mux.HandleFunc("GET /sse/{game}", s.handleSpectator)
	s.ts = httptest.NewServer(mux)
	return s
}

func (s *Server) URL() string { return s.ts.URL }

func (s *Server) Client() *http.Client { return s.ts.Client() }

func (s *Server) Actions() <-chan Received { return s.actions }

// Seated yields the colour of each player as their socket is accepted.
func (s *Server) Seated() <-chan string { return s.seated }

// Broadcast sends a snapshot to every connected player and spectator. Late
// joiners receive the most recent one on connect.
func (s *Server) Broadcast(snap protocol.Snapshot) {
	b, err := json.Marshal(snap)
	if err != nil {
		panic(err)
	}
	s.BroadcastRaw(b)
}

// BroadcastRaw sends payload bytes as-is.
func (s *Server) BroadcastRaw(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = msg
	for color, p := range s.players {
		select {
		case p.send <- msg:
		default:
			// slow reader
			p.close()
			delete(s.players, color)
		}
	}
	for ch := range s.spectators {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Drop closes a player's socket without a close frame.
func (s *Server) Drop(color string) {
	s.mu.Lock()
	p, ok := s.players[color]
	delete(s.players, color)
	s.mu.Unlock()
	if ok {
		p.close()
	}
}

func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for color, p := range s.players {
			p.close()
			delete(s.players, color)
		}
		s.mu.Unlock()
		s.ts.Close()
	})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("game") != s.gameID {
		writeError(w, http.StatusNotFound, "game_not_found", "unknown game")
		return
	}
	color := r.PathValue("color")
	if color != "black" && color != "white" {
		writeError(w, http.StatusBadRequest, "bad_color", "colour must be black or white")
		return
	}

	var userID string
	if s.opts.Secret != nil {
		claims, err := s.verify(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		userID = claims.UserID
	}

	s.mu.Lock()
	_, taken := s.players[color]
	s.mu.Unlock()
	if taken {
		writeError(w, http.StatusConflict, "seat_taken", color+" is already seated")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &peer{ws: ws, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.players[color] = p
	if s.last != nil {
		p.send <- s.last
	}
	s.mu.Unlock()
	select {
	case s.seated <- color:
	default:
	}

	// writer loop
	go func() {
		var ping <-chan time.Time
		if s.opts.PingInterval > 0 {
			ticker := time.NewTicker(s.opts.PingInterval)
			defer ticker.Stop()
			ping = ticker.C
		}
		for {
			select {
			case msg, ok := <-p.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ping:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	// reader loop
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		a, err := protocol.DecodeAction(data)
		if err != nil {
			continue
		}
		select {
		case s.actions <- Received{Color: color, UserID: userID, Action: a}:
		default:
		}
	}

	s.mu.Lock()
	if s.players[color] == p {
		delete(s.players, color)
	}
	s.mu.Unlock()
	p.close()
}

func (s *Server) handleSpectator(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("game") != s.gameID {
		writeError(w, http.StatusNotFound, "game_not_found", "unknown game")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "no_stream", "streaming unsupported")
		return
	}

	ch := make(chan []byte, 64)
	s.mu.Lock()
	s.spectators[ch] = struct{}{}
	if s.last != nil {
		ch <- s.last
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.spectators, ch)
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		}
	}
}

func (s *Server) verify(header string) (*auth.Claims, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, auth.ErrNoToken
	}
	t, err := jwt.ParseWithClaims(token, &auth.Claims{}, func(t *jwt.Token) (any, error) {
		return s.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := t.Claims.(*auth.Claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Token signs a player token the way the game server issues them.
func Token(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Code: errCode, Message: msg})
}
