package tetris

const (
	// DefaultRows is the visible board height.
	DefaultRows = 20
	// DefaultCols is the board width.
	DefaultCols = 10
	// EmptyCell marks an unoccupied grid cell.
	EmptyCell = 0
	// GarbageCell marks a cell injected by an attack.
	GarbageCell = PieceCount + 1
)

// Grid is a row-major matrix of cell values.
type Grid [][]int

// NewGrid returns an empty grid of the given size.
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for y := range g {
		g[y] = make([]int, cols)
	}
	return g
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the number of columns.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]int(nil), row...)
	}
	return out
}

// Matrix returns the grid as a plain [][]int copy, suitable for snapshots.
func (g Grid) Matrix() [][]int {
	return [][]int(g.Clone())
}

func rowFull(row []int) bool {
	for _, v := range row {
		if v == EmptyCell {
			return false
		}
	}
	return true
}

// MergePiece writes the piece into a copy of the grid. Cells above or below the
// grid are dropped.
func MergePiece(g Grid, p Piece) Grid {
	out := g.Clone()
	color := p.Color()
	p.Shape().Cells(func(dx, dy int) {
		y := p.Y + dy
		x := p.X + dx
		if y < 0 || y >= out.Rows() || x < 0 || x >= out.Cols() {
			return
		}
		out[y][x] = color
	})
	return out
}

// ClearResult describes the outcome of ClearLines.
type ClearResult struct {
	Grid  Grid
	Count int
	// Rows lists removed row indices, bottom first.
	Rows []int
}

// ClearLines removes every full row and pads the top with empty rows so the
// row count never changes.
func ClearLines(g Grid) ClearResult {
	var cleared []int
	for y := g.Rows() - 1; y >= 0; y-- {
		if rowFull(g[y]) {
			cleared = append(cleared, y)
		}
	}
	if len(cleared) == 0 {
		return ClearResult{Grid: g}
	}

	cols := g.Cols()
	out := make(Grid, 0, g.Rows())
	for range cleared {
		out = append(out, make([]int, cols))
	}
	for _, row := range g {
		if rowFull(row) {
			continue
		}
		out = append(out, append([]int(nil), row...))
	}

	return ClearResult{Grid: out, Count: len(cleared), Rows: cleared}
}

// AddGarbage pushes count garbage rows in from the bottom. Each row is solid
// except for one random hole. The top rows fall off the board. If active is
// non-nil it is moved up by count rows, stopping at row 0.
func AddGarbage(g Grid, count int, active *Piece, rng Rand) Grid {
	if count <= 0 {
		return g
	}

	out := g.Clone()
	cols := out.Cols()
	for i := 0; i < count; i++ {
		hole := rng.IntN(cols)
		row := make([]int, cols)
		for x := range row {
			if x != hole {
				row[x] = GarbageCell
			}
		}
		out = append(out[1:], row)
	}

	if active != nil {
		active.Y = max(active.Y-count, 0)
	}
	return out
}
