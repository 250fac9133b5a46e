package board

import (
	"errors"
	"fmt"
)

type Stone uint8

const (
	Empty Stone = iota
	Black
	White
)

func (s Stone) String() string {
	switch s {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("stone(%d)", uint8(s))
	}
}

// ParseStone accepts the colour names used in URLs and config ("black", "white").
func ParseStone(s string) (Stone, error) {
	switch s {
	case "black":
		return Black, nil
	case "white":
		return White, nil
	case "":
		return Empty, nil
	default:
		return Empty, fmt.Errorf("unknown stone colour %q", s)
	}
}

// MaxSize bounds the grid edge so size*size cannot overflow.
const MaxSize = 52

var (
	ErrShapeMismatch = errors.New("board: shape mismatch")
	ErrSize          = errors.New("board: size out of range")
)

// Board is the locally rendered copy of the grid. stones and moves always
// have size*size cells and are only ever replaced together.
type Board struct {
	size   int
	stones []Stone
	moves  []bool
}

func New() *Board {
	return &Board{}
}

func (b *Board) Size() int { return b.size }

// Resize clears the grid to size x size. Out-of-range sizes leave the board
// untouched.
func (b *Board) Resize(size int) error {
	if size < 0 || size > MaxSize {
		return fmt.Errorf("%w: %d", ErrSize, size)
	}
	b.size = size
	b.stones = make([]Stone, size*size)
	b.moves = make([]bool, size*size)
	return nil
}

// ApplySnapshot replaces occupancy and the legal-move mask wholesale.
// On mismatch nothing is modified.
func (b *Board) ApplySnapshot(stones []Stone, moves []bool) error {
	n := b.size * b.size
	if len(stones) != n || len(moves) != n {
		return fmt.Errorf("%w: size %d wants %d cells, got board=%d moves=%d",
			ErrShapeMismatch, b.size, n, len(stones), len(moves))
	}
	b.stones = append(b.stones[:0:0], stones...)
	b.moves = append(b.moves[:0:0], moves...)
	return nil
}

// PlaceLocally is an optimistic write for immediate feedback; the next
// ApplySnapshot supersedes it.
func (b *Board) PlaceLocally(x, y int, s Stone) {
	i, ok := b.Index(x, y)
	if !ok {
		return
	}
	b.stones[i] = s
}

func (b *Board) IsLegal(x, y int) bool {
	i, ok := b.Index(x, y)
	if !ok {
		return false
	}
	return b.moves[i]
}

func (b *Board) At(x, y int) Stone {
	i, ok := b.Index(x, y)
	if !ok {
		return Empty
	}
	return b.stones[i]
}

// Index maps (x, y) to the row-major cell index; (0,0) is top-left.
func (b *Board) Index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= b.size || y >= b.size {
		return 0, false
	}
	return b.size*y + x, true
}

func (b *Board) Point(index int) (x, y int, ok bool) {
	if b.size == 0 || index < 0 || index >= b.size*b.size {
		return 0, 0, false
	}
	return index % b.size, index / b.size, true
}

func (b *Board) Stones() []Stone {
	return append([]Stone(nil), b.stones...)
}

func (b *Board) Moves() []bool {
	return append([]bool(nil), b.moves...)
}

// Cursor is a hover hint for the renderer; it never affects occupancy.
type Cursor struct {
	X, Y    int
	Stone   Stone
	Enabled bool
}
