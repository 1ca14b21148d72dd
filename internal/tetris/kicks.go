package tetris

// Offset is one wall-kick test. Positive DY moves the piece up.
type Offset struct {
	DX int
	DY int
}

type kickClass int

const (
	kickJLSTZ kickClass = iota
	kickI
	kickO
	kickClassCount
)

// KickTests is the number of offsets tried per rotation.
const KickTests = 5

func kickClassOf(t PieceType) kickClass {
	switch t {
	case PieceI:
		return kickI
	case PieceO:
		return kickO
	default:
		return kickJLSTZ
	}
}

// wallKicks is indexed [class][from][to]. Only quarter-turn transitions are
// populated; the remaining entries are all zero and behave as an in-place test.
// The O class never moves.
var wallKicks = [kickClassCount][4][4][KickTests]Offset{
	kickJLSTZ: {
		0: {
			1: {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
			3: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		},
		1: {
			0: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
			2: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
		},
		2: {
			1: {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
			3: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		},
		3: {
			2: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
			0: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
		},
	},
	kickI: {
		0: {
			1: {{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, 2}},
			3: {{0, 0}, {-1, 0}, {2, 0}, {-1, 2}, {2, -1}},
		},
		1: {
			0: {{0, 0}, {2, 0}, {-1, 0}, {2, 1}, {-1, -2}},
			2: {{0, 0}, {-1, 0}, {2, 0}, {-1, 2}, {2, -1}},
		},
		2: {
			1: {{0, 0}, {1, 0}, {-2, 0}, {1, -2}, {-2, 1}},
			3: {{0, 0}, {2, 0}, {-1, 0}, {2, 1}, {-1, -2}},
		},
		3: {
			2: {{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, 2}},
			0: {{0, 0}, {1, 0}, {-2, 0}, {1, -2}, {-2, 1}},
		},
	},
	kickO: {},
}

// Kicks returns the ordered offset tests for rotating t from one orientation to another.
func Kicks(t PieceType, from, to int) [KickTests]Offset {
	return wallKicks[kickClassOf(t)][normalizeOrientation(from)][normalizeOrientation(to)]
}
