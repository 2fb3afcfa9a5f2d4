package tetris

import (
	"fmt"
	"strings"
)

// Kind identifies a tetromino. The zero value marks an empty cell.
type Kind uint8

const (
	None Kind = iota
	I
	O
	T
	S
	Z
	J
	L
)

// allKinds is the content of one 7-bag
var allKinds = [...]Kind{I, O, T, S, Z, J, L}

// String returns the letter of a Kind
func (k Kind) String() string {
	if k == None {
		return "."
	}
	if int(k) <= len(allKinds) {
		return "IOTSZJL"[k-1 : k]
	}
	return "?"
}

// cell is an offset inside a piece's bounding box
type cell struct{ x, y int }

// shape describes a tetromino in its spawn rotation
type shape struct {
	size  int // edge length of the bounding box
	cells [4]cell
}

var shapes = map[Kind]shape{
	I: {4, [4]cell{{0, 1}, {1, 1}, {2, 1}, {3, 1}}},
	O: {2, [4]cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	T: {3, [4]cell{{1, 0}, {0, 1}, {1, 1}, {2, 1}}},
	S: {3, [4]cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}}},
	Z: {3, [4]cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}}},
	J: {3, [4]cell{{0, 0}, {0, 1}, {1, 1}, {2, 1}}},
	L: {3, [4]cell{{2, 0}, {0, 1}, {1, 1}, {2, 1}}},
}

// Piece is a tetromino placed on the grid
type Piece struct {
	Kind     Kind  `json:"kind"`
	Rotation uint8 `json:"rotation"` // quarter turns clockwise, 0..3
	X        int32 `json:"x"`        // left column of the bounding box
	Y        int32 `json:"y"`        // top row of the bounding box
}

// Cells returns the absolute grid positions occupied by the piece
func (p Piece) Cells() [4][2]int {
	var out [4][2]int
	sh, ok := shapes[p.Kind]
	if !ok {
		return out
	}
	for i, c := range sh.cells {
		x, y := c.x, c.y
		for r := uint8(0); r < p.Rotation%4; r++ {
			// clockwise quarter turn inside the bounding box
			x, y = sh.size-1-y, x
		}
		out[i] = [2]int{int(p.X) + x, int(p.Y) + y}
	}
	return out
}

// --------------------------------------------------------------------------
// Actions
// --------------------------------------------------------------------------

// Action is one player input
type Action uint8

const (
	ActionNone Action = iota
	MoveLeft
	MoveRight
	RotateCW
	RotateCCW
	SoftDrop
	HardDrop
)

// String returns the wire name of an Action
func (a Action) String() string {
	switch a {
	case MoveLeft:
		return "move-left"
	case MoveRight:
		return "move-right"
	case RotateCW:
		return "rotate-cw"
	case RotateCCW:
		return "rotate-ccw"
	case SoftDrop:
		return "soft-drop"
	case HardDrop:
		return "hard-drop"
	default:
		return "none"
	}
}

// ParseAction converts a wire or command line name into an Action
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move-left", "left":
		return MoveLeft, nil
	case "move-right", "right":
		return MoveRight, nil
	case "rotate-cw", "rotate", "cw":
		return RotateCW, nil
	case "rotate-ccw", "ccw":
		return RotateCCW, nil
	case "soft-drop", "down":
		return SoftDrop, nil
	case "hard-drop", "drop":
		return HardDrop, nil
	default:
		return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}
