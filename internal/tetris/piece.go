package tetris

import "fmt"

// PieceType identifies one of the seven tetromino shapes.
type PieceType int

const (
	PieceI PieceType = iota
	PieceT
	PieceL
	PieceJ
	PieceO
	PieceS
	PieceZ
)

// PieceCount is the number of distinct piece types in a bag.
const PieceCount = 7

var pieceNames = map[PieceType]string{
	PieceI: "I",
	PieceT: "T",
	PieceL: "L",
	PieceJ: "J",
	PieceO: "O",
	PieceS: "S",
	PieceZ: "Z",
}

func (t PieceType) String() string {
	if name, ok := pieceNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PIECE_%d", int(t))
}

// Valid reports whether t is one of the seven known types.
func (t PieceType) Valid() bool {
	return t >= PieceI && t <= PieceZ
}

// Color returns the grid cell value written when a piece of this type locks.
func (t PieceType) Color() int {
	return int(t) + 1
}

// Shape is a 4x4 occupancy matrix for one rotation state.
type Shape [4][4]int

// Cells calls fn for every occupied cell of the shape.
func (s Shape) Cells(fn func(dx, dy int)) {
	for dy, row := range s {
		for dx, v := range row {
			if v != 0 {
				fn(dx, dy)
			}
		}
	}
}

// Width returns the column count of the shape matrix.
func (s Shape) Width() int {
	return len(s[0])
}

// Matrix returns the shape as a slice-of-slices copy.
func (s Shape) Matrix() [][]int {
	out := make([][]int, len(s))
	for y, row := range s {
		out[y] = append([]int(nil), row[:]...)
	}
	return out
}

// rotationStates holds every orientation of every piece, indexed [type][orientation].
var rotationStates = [PieceCount][4]Shape{
	PieceI: {
		{{0, 0, 0, 0}, {1, 1, 1, 1}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 1, 0}, {0, 0, 1, 0}, {0, 0, 1, 0}, {0, 0, 1, 0}},
		{{0, 0, 0, 0}, {0, 0, 0, 0}, {1, 1, 1, 1}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}},
	},
	PieceT: {
		{{0, 1, 0, 0}, {1, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {1, 1, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {1, 1, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
	},
	PieceL: {
		{{0, 0, 1, 0}, {1, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {1, 1, 1, 0}, {1, 0, 0, 0}, {0, 0, 0, 0}},
		{{1, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
	},
	PieceJ: {
		{{1, 0, 0, 0}, {1, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 1, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {1, 1, 1, 0}, {0, 0, 1, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 0, 0}, {1, 1, 0, 0}, {0, 0, 0, 0}},
	},
	PieceO: {
		{{0, 1, 1, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 1, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 1, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 1, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
	},
	PieceS: {
		{{0, 1, 1, 0}, {1, 1, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {0, 1, 1, 0}, {0, 0, 1, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {0, 1, 1, 0}, {1, 1, 0, 0}, {0, 0, 0, 0}},
		{{1, 0, 0, 0}, {1, 1, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
	},
	PieceZ: {
		{{1, 1, 0, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 1, 0}, {0, 1, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
		{{0, 0, 0, 0}, {1, 1, 0, 0}, {0, 1, 1, 0}, {0, 0, 0, 0}},
		{{0, 1, 0, 0}, {1, 1, 0, 0}, {1, 0, 0, 0}, {0, 0, 0, 0}},
	},
}

// ShapeOf returns the matrix for a piece type in the given orientation.
func ShapeOf(t PieceType, orientation int) Shape {
	return rotationStates[t][normalizeOrientation(orientation)]
}

// Piece is a falling tetromino. X and Y locate the top-left of its 4x4 bounding box.
type Piece struct {
	Type        PieceType
	Orientation int
	X           int
	Y           int
}

// Shape returns the occupancy matrix for the piece's current orientation.
func (p Piece) Shape() Shape {
	return ShapeOf(p.Type, p.Orientation)
}

// Color returns the grid value the piece writes on lock.
func (p Piece) Color() int {
	return p.Type.Color()
}

// Spawn creates a piece of type t centred on a board of the given width.
// The I piece starts one row higher so its filled row sits on the visible top.
// Callers detect topping out with CheckCollision.
func Spawn(t PieceType, cols int) Piece {
	y := 0
	if t == PieceI {
		y = -1
	}
	return Piece{
		Type:        t,
		Orientation: 0,
		X:           cols/2 - 2,
		Y:           y,
	}
}

func normalizeOrientation(o int) int {
	return ((o % 4) + 4) % 4
}
