package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"example.com/goban-client/internal/auth"
	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/config"
	"example.com/goban-client/internal/console"
	"example.com/goban-client/internal/journal"
	"example.com/goban-client/internal/migrate"
	"example.com/goban-client/internal/protocol"
	"example.com/goban-client/internal/session"
	"example.com/goban-client/internal/store"
	"example.com/goban-client/internal/transport"
)

const (
	recordTimeout = 5 * time.Second
	recordBuffer  = 64
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	journal *journal.Redis
	results *store.ResultsStore

	tr      transport.Transport
	session *session.Session
	input   io.Reader
	records chan protocol.Snapshot
}

type Options struct {
	Renderer   session.Renderer // required
	Input      io.Reader        // optional; nil means view only
	Clock      clockwork.Clock  // optional; real clock when nil
	HTTPClient *http.Client     // optional; spectator stream client
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Renderer == nil {
		return nil, errors.New("app: renderer is required")
	}

	color, err := board.ParseStone(cfg.Game.Color)
	if err != nil {
		return nil, err
	}
	if color != board.Empty && cfg.Game.Token != "" {
		claims, err := auth.Inspect(cfg.Game.Token, time.Now())
		if err != nil {
			return nil, err
		}
		log.Info("player token", "uid", claims.UserID)
	}

	a := &App{cfg: cfg, log: log, input: opts.Input, records: make(chan protocol.Snapshot, recordBuffer)}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Transport.DialTimeout)
	defer cancel()

	// --- Redis journal (optional) ---
	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := a.rdb.Ping(pingCtx).Err(); err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		a.journal = journal.NewRedis(a.rdb, cfg.Redis.JournalTTL, cfg.Redis.JournalMax)
	}

	// --- Postgres results (optional) ---
	if cfg.Postgres.URL != "" {
		if cfg.Postgres.RunMigrations {
			if err := migrate.Up(cfg.Postgres.URL, log); err != nil {
				_ = a.Close(ctx)
				return nil, err
			}
		}
		a.db, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		if err := a.db.Ping(pingCtx); err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		a.results = store.NewResultsStore(a.db)
	}

	// --- Channel ---
	a.tr, err = dial(pingCtx, cfg, color, opts.HTTPClient, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.session = session.New(a.tr, session.Options{
		Color:      color,
		Clock:      opts.Clock,
		Renderer:   opts.Renderer,
		Log:        log.With("game", cfg.Game.ID),
		OnSnapshot: a.enqueue,
	})
	return a, nil
}

func dial(ctx context.Context, cfg config.Config, color board.Stone, client *http.Client, log *slog.Logger) (transport.Transport, error) {
	if color == board.Empty {
		u, err := transport.SpectatorURL(cfg.Game.ServerURL, cfg.Game.ID)
		if err != nil {
			return nil, err
		}
		sse, err := transport.DialSSE(ctx, u, client, log)
		if err != nil {
			return nil, err
		}
		return sse, nil
	}

	u, err := transport.PlayerURL(cfg.Game.ServerURL, cfg.Game.ID, color.String())
	if err != nil {
		return nil, err
	}
	wsCfg := transport.DefaultWebSocketConfig()
	wsCfg.HandshakeTimeout = cfg.Transport.DialTimeout
	wsCfg.PingInterval = cfg.Transport.PingInterval
	wsCfg.WriteTimeout = cfg.Transport.WriteTimeout
	wsCfg.Header = auth.Header(cfg.Game.Token)
	ws, err := transport.DialWebSocket(ctx, u, wsCfg, log)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Run drives the session until the game ends, the context is cancelled or
// the session faults.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("session starting", "session", a.session.ID(), "game", a.cfg.Game.ID, "color", a.cfg.Game.Color)

	g.Go(func() error {
		return a.session.Run(gctx)
	})

	g.Go(func() error {
		a.record(ctx)
		return nil
	})

	// Reads on stdin cannot be interrupted, so the pump is left outside the
	// group; it exits on its next line once the session is closed.
	if a.input != nil {
		go func() {
			err := console.Pump(gctx, a.input, a.session.Submit, a.log)
			if err != nil && !errors.Is(err, session.ErrClosed) && gctx.Err() == nil {
				a.log.Warn("input stopped", "err", err)
			}
		}()
	}

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

// enqueue runs on the session loop and must not block.
func (a *App) enqueue(snap protocol.Snapshot) {
	if a.journal == nil && a.results == nil {
		return
	}
	select {
	case a.records <- snap:
	default:
		a.log.Warn("record buffer full, snapshot dropped", "turn", snap.Turn)
	}
}

func (a *App) record(ctx context.Context) {
	for {
		select {
		case snap := <-a.records:
			a.persist(ctx, snap)
		case <-a.session.Done():
			for {
				select {
				case snap := <-a.records:
					a.persist(ctx, snap)
				default:
					return
				}
			}
		}
	}
}

func (a *App) persist(ctx context.Context, snap protocol.Snapshot) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	now := time.Now().UTC()
	if a.journal != nil {
		err := a.journal.Append(ctx, a.cfg.Game.ID, journal.Entry{
			SessionID:  a.session.ID(),
			ReceivedAt: now,
			Snapshot:   snap,
		})
		if err != nil {
			a.log.Warn("journal append failed", "err", err)
		}
	}

	if a.results != nil && snap.Turn == protocol.PhaseEnded {
		color := a.cfg.Game.Color
		if color == "" {
			color = "spectator"
		}
		r := store.NewResult(a.cfg.Game.ID, a.session.ID(), color, snap, now)
		if err := a.results.Save(ctx, r); err != nil {
			a.log.Warn("result save failed", "err", err)
			return
		}
		a.log.Info("result saved", "winner", r.Winner, "black", r.BlackScore, "white", r.WhiteScore)
	}
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	if a.tr != nil {
		_ = a.tr.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
