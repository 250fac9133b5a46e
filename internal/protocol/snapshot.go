package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"example.com/goban-client/internal/board"
)

var ErrMalformed = errors.New("protocol: malformed snapshot")

// Phase is the authoritative turn value carried by every snapshot.
type Phase string

const (
	PhaseWaiting  Phase = "wait"
	PhaseHandicap Phase = "handicap"
	PhaseBlack    Phase = "black"
	PhaseWhite    Phase = "white"
	PhaseEnded    Phase = "end"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseWaiting, PhaseHandicap, PhaseBlack, PhaseWhite, PhaseEnded:
		return true
	}
	return false
}

// Mover reports whose stone the phase solicits; Empty for wait and end.
func (p Phase) Mover() board.Stone {
	switch p {
	case PhaseHandicap, PhaseBlack:
		return board.Black
	case PhaseWhite:
		return board.White
	}
	return board.Empty
}

// Snapshot is the full authoritative state pushed by the server.
//
// Frame format:
//
//	{
//		"board_size": 19,
//		"handicap": 2,
//		"board": [0, 1, 2, ...],
//		"moves": [true, false, ...],
//		"turn": "black",
//		"black_time": 300,
//		"white_time": 300
//	}
type Snapshot struct {
	BoardSize     int   `json:"board_size"`
	Handicap      int   `json:"handicap"`
	Board         []int `json:"board"`
	Moves         Mask  `json:"moves"`
	Turn          Phase `json:"turn"`
	BlackTime     int   `json:"black_time"`
	WhiteTime     int   `json:"white_time"`
	BlackScore    int   `json:"black_score"`
	WhiteScore    int   `json:"white_score"`
	BlackOccupied bool  `json:"black_occupied"`
	WhiteOccupied bool  `json:"white_occupied"`
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (s Snapshot) Validate() error {
	if s.BoardSize <= 0 || s.BoardSize > board.MaxSize {
		return fmt.Errorf("%w: %w: board_size=%d", ErrMalformed, board.ErrSize, s.BoardSize)
	}
	n := s.BoardSize * s.BoardSize
	if len(s.Board) != n || len(s.Moves) != n {
		return fmt.Errorf("%w: %w: board_size=%d board=%d moves=%d",
			ErrMalformed, board.ErrShapeMismatch, s.BoardSize, len(s.Board), len(s.Moves))
	}
	for i, v := range s.Board {
		if v < int(board.Empty) || v > int(board.White) {
			return fmt.Errorf("%w: cell %d has stone %d", ErrMalformed, i, v)
		}
	}
	if !s.Turn.Valid() {
		return fmt.Errorf("%w: unknown turn %q", ErrMalformed, s.Turn)
	}
	if s.Handicap < 0 || s.BlackTime < 0 || s.WhiteTime < 0 {
		return fmt.Errorf("%w: negative handicap or time", ErrMalformed)
	}
	return nil
}

func (s Snapshot) Stones() []board.Stone {
	out := make([]board.Stone, len(s.Board))
	for i, v := range s.Board {
		out[i] = board.Stone(v)
	}
	return out
}

func (s Snapshot) Score() Score {
	return Score{Black: s.BlackScore, White: s.WhiteScore}
}

// Mask is the per-cell legality mask. The server emits booleans; 0/1
// integers are accepted as well.
type Mask []bool

func (m *Mask) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	out := make(Mask, len(raw))
	for i, v := range raw {
		switch v := v.(type) {
		case bool:
			out[i] = v
		case float64:
			out[i] = v != 0
		default:
			return fmt.Errorf("moves[%d]: unexpected %T", i, v)
		}
	}
	*m = out
	return nil
}

type Score struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Winner returns Empty on a draw.
func (s Score) Winner() board.Stone {
	switch {
	case s.Black > s.White:
		return board.Black
	case s.White > s.Black:
		return board.White
	}
	return board.Empty
}

func (s Score) Margin() int {
	if s.Black > s.White {
		return s.Black - s.White
	}
	return s.White - s.Black
}

func (s Score) Statement() string {
	switch s.Winner() {
	case board.Black:
		return fmt.Sprintf("Black wins by +%d", s.Margin())
	case board.White:
		return fmt.Sprintf("White wins by +%d", s.Margin())
	}
	return "Draw"
}
