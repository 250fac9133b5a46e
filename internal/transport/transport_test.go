package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerURL(t *testing.T) {
	cases := []struct {
		base string
		want string
		ok   bool
	}{
		{base: "http://localhost:8080", want: "ws://localhost:8080/ws/42/black", ok: true},
		{base: "https://go.example.com/", want: "wss://go.example.com/ws/42/black", ok: true},
		{base: "https://go.example.com/casual", want: "wss://go.example.com/casual/ws/42/black", ok: true},
		{base: "ws://127.0.0.1", want: "ws://127.0.0.1/ws/42/black", ok: true},
		{base: "ftp://x", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.base, func(t *testing.T) {
			got, err := PlayerURL(tc.base, "42", "black")
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSpectatorURL(t *testing.T) {
	got, err := SpectatorURL("wss://go.example.com", "7")
	require.NoError(t, err)
	assert.Equal(t, "https://go.example.com/sse/7", got)

	got, err = SpectatorURL("http://localhost:80/", "7")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:80/sse/7", got)
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func recv(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
		return nil, false
	}
}

func TestWebSocket_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	received := make(chan string, 1)
	gotAuth := make(chan string, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"turn":"wait"}`))
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
	}))
	defer ts.Close()

	cfg := DefaultWebSocketConfig()
	cfg.Header = http.Header{"Authorization": []string{"Bearer tok"}}
	tr, err := DialWebSocket(context.Background(), wsURL(ts, "/ws/1/black"), cfg, nil)
	require.NoError(t, err)
	defer tr.Close()

	assert.Equal(t, "Bearer tok", <-gotAuth)

	msg, ok := recv(t, tr.Messages())
	require.True(t, ok)
	assert.JSONEq(t, `{"turn":"wait"}`, string(msg))

	require.NoError(t, tr.Send(context.Background(), []byte(`{"action":"pass"}`)))
	select {
	case got := <-received:
		assert.JSONEq(t, `{"action":"pass"}`, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive action")
	}

	_, ok = recv(t, tr.Messages())
	require.False(t, ok, "messages closes when the server closes")
	require.Error(t, tr.Err())
}

func TestWebSocket_DialRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "seat taken", http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := DialWebSocket(context.Background(), wsURL(ts, "/ws/1/white"), DefaultWebSocketConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestWebSocket_LocalCloseIsClean(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	tr, err := DialWebSocket(context.Background(), wsURL(ts, "/ws/1/black"), DefaultWebSocketConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	_, ok := recv(t, tr.Messages())
	require.False(t, ok)
	assert.NoError(t, tr.Err())
	assert.ErrorIs(t, tr.Send(context.Background(), []byte("x")), ErrClosed)
}

func TestSSE_Events(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"turn\":\"wait\"}\n\n")
		fmt.Fprint(w, "event: message\ndata: {\"turn\":\ndata: \"black\"}\n\n")
		fmt.Fprint(w, "data:{\"turn\":\"end\"}\n\n")
		flusher.Flush()
	}))
	defer ts.Close()

	tr, err := DialSSE(context.Background(), ts.URL+"/sse/1", ts.Client(), nil)
	require.NoError(t, err)
	defer tr.Close()

	msg, ok := recv(t, tr.Messages())
	require.True(t, ok)
	assert.Equal(t, `{"turn":"wait"}`, string(msg))

	msg, ok = recv(t, tr.Messages())
	require.True(t, ok)
	assert.Equal(t, "{\"turn\":\n\"black\"}", string(msg))

	msg, ok = recv(t, tr.Messages())
	require.True(t, ok)
	assert.Equal(t, `{"turn":"end"}`, string(msg))

	_, ok = recv(t, tr.Messages())
	require.False(t, ok)
	require.Error(t, tr.Err(), "end of stream is a lost connection")

	assert.ErrorIs(t, tr.Send(context.Background(), []byte("{}")), ErrReadOnly)
}

func TestSSE_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := DialSSE(context.Background(), ts.URL+"/sse/404", ts.Client(), nil)
	require.Error(t, err)
}
