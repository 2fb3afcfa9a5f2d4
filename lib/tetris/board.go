package tetris

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	Width  = 10
	Height = 20
)

var (
	ErrGameOver      = errors.New("game over")
	ErrUnknownAction = errors.New("unknown action")
)

// lineScores indexed by the number of lines cleared at once
var lineScores = [...]uint64{0, 100, 300, 500, 800}

// Change describes what an applied action did to the board
type Change struct {
	Locked       bool // the active piece was locked into the grid
	GridChanged  bool // the locked cells differ from before
	LinesCleared int
}

// Board is the authoritative state of one player
type Board struct {
	cells    [Height][Width]Kind
	active   Piece
	next     Kind
	bag      []Kind
	rng      *rand.Rand
	score    uint64
	lines    uint32
	revision uint64
	over     bool
}

// NewBoard creates a board whose piece sequence is determined by seed
func NewBoard(seed uint64) *Board {
	b := &Board{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	b.next = b.draw()
	b.spawn()
	return b
}

// Apply applies one validated input. It fails with ErrGameOver once the game
// ended and with ErrUnknownAction for actions the engine does not know.
func (b *Board) Apply(a Action) (Change, error) {
	if b.over {
		return Change{}, ErrGameOver
	}

	var ch Change
	switch a {
	case MoveLeft:
		b.tryMove(-1, 0)
	case MoveRight:
		b.tryMove(1, 0)
	case RotateCW:
		b.tryRotate(1)
	case RotateCCW:
		b.tryRotate(3)
	case SoftDrop:
		if b.tryMove(0, 1) {
			b.score++
		} else {
			ch = b.lock()
		}
	case HardDrop:
		rows := uint64(0)
		for b.tryMove(0, 1) {
			rows++
		}
		b.score += 2 * rows
		ch = b.lock()
	default:
		return Change{}, fmt.Errorf("%w: %d", ErrUnknownAction, a)
	}

	b.revision++
	return ch, nil
}

// Snapshot returns an immutable copy of the current state
func (b *Board) Snapshot() Snapshot {
	cells := make([]byte, 0, Width*Height)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			cells = append(cells, byte(b.cells[y][x]))
		}
	}
	return Snapshot{
		Revision: b.revision,
		Cells:    cells,
		Piece:    b.active,
		Next:     b.next,
		Score:    b.score,
		Lines:    b.lines,
		GameOver: b.over,
	}
}

// Revision returns the number of inputs applied so far
func (b *Board) Revision() uint64 { return b.revision }

// Score returns the current score
func (b *Board) Score() uint64 { return b.score }

// Over reports whether the game ended
func (b *Board) Over() bool { return b.over }

// Active returns the falling piece
func (b *Board) Active() Piece { return b.active }

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// draw takes the next kind from the 7-bag, refilling it when empty
func (b *Board) draw() Kind {
	if len(b.bag) == 0 {
		b.bag = append(b.bag[:0], allKinds[:]...)
		b.rng.Shuffle(len(b.bag), func(i, j int) {
			b.bag[i], b.bag[j] = b.bag[j], b.bag[i]
		})
	}
	k := b.bag[0]
	b.bag = b.bag[1:]
	return k
}

// spawn places the next piece at the top and ends the game if it collides
func (b *Board) spawn() {
	k := b.next
	b.next = b.draw()
	b.active = Piece{
		Kind: k,
		X:    int32((Width - shapes[k].size) / 2),
		Y:    0,
	}
	if b.collides(b.active) {
		b.over = true
	}
}

func (b *Board) collides(p Piece) bool {
	for _, c := range p.Cells() {
		x, y := c[0], c[1]
		if x < 0 || x >= Width || y < 0 || y >= Height {
			return true
		}
		if b.cells[y][x] != None {
			return true
		}
	}
	return false
}

func (b *Board) tryMove(dx, dy int32) bool {
	p := b.active
	p.X += dx
	p.Y += dy
	if b.collides(p) {
		return false
	}
	b.active = p
	return true
}

// tryRotate turns the piece by quarter turns, kicking one column if needed
func (b *Board) tryRotate(quarters uint8) bool {
	for _, kick := range [...]int32{0, -1, 1} {
		p := b.active
		p.Rotation = (p.Rotation + quarters) % 4
		p.X += kick
		if !b.collides(p) {
			b.active = p
			return true
		}
	}
	return false
}

// lock writes the active piece into the grid, clears full lines and spawns the next piece
func (b *Board) lock() Change {
	for _, c := range b.active.Cells() {
		b.cells[c[1]][c[0]] = b.active.Kind
	}

	cleared := 0
	for y := Height - 1; y >= 0; {
		if b.rowFull(y) {
			copy(b.cells[1:y+1], b.cells[:y])
			b.cells[0] = [Width]Kind{}
			cleared++
			continue // re-check the row that moved down into y
		}
		y--
	}

	b.lines += uint32(cleared)
	b.score += lineScores[cleared]
	b.spawn()

	return Change{Locked: true, GridChanged: true, LinesCleared: cleared}
}

func (b *Board) rowFull(y int) bool {
	for x := 0; x < Width; x++ {
		if b.cells[y][x] == None {
			return false
		}
	}
	return true
}

// String renders the grid with the active piece, mainly for debugging
func (b *Board) String() string {
	return b.Snapshot().String()
}

// --------------------------------------------------------------------------
// Snapshot
// --------------------------------------------------------------------------

// Snapshot is a point-in-time copy of a Board. A partial snapshot omits the
// grid (Cells is nil) and is used when only the piece or score changed.
type Snapshot struct {
	Revision uint64 `json:"revision"`
	Cells    []byte `json:"cells,omitempty"` // Width*Height, row-major, Kind values
	Piece    Piece  `json:"piece"`
	Next     Kind   `json:"next"`
	Score    uint64 `json:"score"`
	Lines    uint32 `json:"lines"`
	GameOver bool   `json:"game_over,omitempty"`
}

// Partial returns a copy of the snapshot without the grid
func (s Snapshot) Partial() Snapshot {
	s.Cells = nil
	return s
}

// IsPartial reports whether the snapshot carries no grid
func (s Snapshot) IsPartial() bool {
	return s.Cells == nil
}

// Cell returns the locked cell at (x, y); partial snapshots report None
func (s Snapshot) Cell(x, y int) Kind {
	if s.IsPartial() || x < 0 || x >= Width || y < 0 || y >= Height {
		return None
	}
	return Kind(s.Cells[y*Width+x])
}

// String renders the snapshot as text, the active piece drawn in lower case
func (s Snapshot) String() string {
	var sb strings.Builder
	active := map[[2]int]bool{}
	for _, c := range s.Piece.Cells() {
		active[c] = true
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if active[[2]int{x, y}] {
				sb.WriteString(strings.ToLower(s.Piece.Kind.String()))
			} else {
				sb.WriteString(s.Cell(x, y).String())
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "score %d, lines %d, revision %d\n", s.Score, s.Lines, s.Revision)
	return sb.String()
}
