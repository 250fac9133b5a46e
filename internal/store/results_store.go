package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/protocol"
)

// Result is the final score of a game as this client observed it.
type Result struct {
	GameID     string
	SessionID  string
	Color      string // black|white|spectator
	BlackScore int
	WhiteScore int
	Winner     string // black|white|draw
	FinishedAt time.Time
}

// NewResult builds a Result from the terminal snapshot.
func NewResult(gameID, sessionID, color string, snap protocol.Snapshot, at time.Time) Result {
	score := snap.Score()
	winner := "draw"
	if w := score.Winner(); w != board.Empty {
		winner = w.String()
	}
	return Result{
		GameID:     gameID,
		SessionID:  sessionID,
		Color:      color,
		BlackScore: score.Black,
		WhiteScore: score.White,
		Winner:     winner,
		FinishedAt: at,
	}
}

type ResultsStore struct {
	db *pgxpool.Pool
}

func NewResultsStore(db *pgxpool.Pool) *ResultsStore {
	return &ResultsStore{db: db}
}

// Save is idempotent per (game, session).
func (s *ResultsStore) Save(ctx context.Context, r Result) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO game_results (game_id, session_id, color, black_score, white_score, winner, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id, session_id) DO NOTHING
	`, r.GameID, r.SessionID, r.Color, r.BlackScore, r.WhiteScore, r.Winner, r.FinishedAt)
	return err
}

// Recent lists the latest results, newest first.
func (s *ResultsStore) Recent(ctx context.Context, limit int) ([]Result, error) {
	rows, err := s.db.Query(ctx, `
		SELECT game_id, session_id, color, black_score, white_score, winner, finished_at
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.GameID, &r.SessionID, &r.Color, &r.BlackScore, &r.WhiteScore, &r.Winner, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
