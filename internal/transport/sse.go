package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// SSE is the one-way spectator channel. Each event's data lines form one
// snapshot payload.
type SSE struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	log    *slog.Logger

	in chan []byte

	mu     sync.Mutex
	err    error
	closed bool

	closeOnce sync.Once
}

func DialSSE(ctx context.Context, url string, client *http.Client, log *slog.Logger) (*SSE, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}

	// The stream outlives ctx's dial phase; Close cancels it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("dial %s: unexpected status %d", url, resp.StatusCode)
	}

	t := &SSE{
		body:   resp.Body,
		cancel: cancel,
		log:    log,
		in:     make(chan []byte, 16),
	}
	go t.readLoop(streamCtx)

	log.Info("event stream connected", "url", url)
	return t, nil
}

func (t *SSE) Messages() <-chan []byte { return t.in }

func (t *SSE) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *SSE) Send(context.Context, []byte) error { return ErrReadOnly }

func (t *SSE) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		t.cancel()
		err = t.body.Close()
	})
	return err
}

func (t *SSE) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil && !t.closed {
		t.err = err
	}
}

func (t *SSE) readLoop(ctx context.Context) {
	defer close(t.in)

	sc := bufio.NewScanner(t.body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var data [][]byte
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			if len(data) == 0 {
				continue
			}
			msg := bytes.Join(data, []byte("\n"))
			data = data[:0]
			select {
			case t.in <- msg:
			case <-ctx.Done():
				return
			}
			continue
		}
		// comments and non-data fields carry nothing for us
		if v, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			v = bytes.TrimPrefix(v, []byte(" "))
			data = append(data, append([]byte(nil), v...))
		}
	}
	if err := sc.Err(); err != nil {
		t.setErr(err)
		return
	}
	t.setErr(io.EOF)
}
