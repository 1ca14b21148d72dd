package bot

import "github.com/lunablock/lunablock-server/internal/tetris"

// Placement is where the planner wants the active piece to land.
type Placement struct {
	Orientation int
	X           int
}

// Heuristic weights for a placement: reward clears, punish height, holes and
// an uneven surface.
const (
	weightLines     = 0.76
	weightHeight    = -0.51
	weightHoles     = -0.36
	weightBumpiness = -0.18
)

// Plan searches every orientation and column for p on g and returns the
// best-scoring reachable-from-above placement.
func Plan(g tetris.Grid, p tetris.Piece) (Placement, bool) {
	var (
		best  Placement
		score float64
		found bool
	)
	for o := 0; o < 4; o++ {
		for x := -3; x < g.Cols(); x++ {
			candidate := tetris.Piece{Type: p.Type, Orientation: o, X: x, Y: p.Y}
			if tetris.CheckCollision(candidate, g) {
				continue
			}
			landed := tetris.GhostPosition(candidate, g)
			result := tetris.ClearLines(tetris.MergePiece(g, landed))
			s := evaluate(result.Grid, result.Count)
			if !found || s > score {
				best, score, found = Placement{Orientation: o, X: x}, s, true
			}
		}
	}
	return best, found
}

func evaluate(g tetris.Grid, cleared int) float64 {
	heights := columnHeights(g)

	aggregate, bumpiness := 0, 0
	for x, h := range heights {
		aggregate += h
		if x > 0 {
			bumpiness += abs(h - heights[x-1])
		}
	}

	return weightLines*float64(cleared) +
		weightHeight*float64(aggregate) +
		weightHoles*float64(countHoles(g)) +
		weightBumpiness*float64(bumpiness)
}

func columnHeights(g tetris.Grid) []int {
	heights := make([]int, g.Cols())
	for x := range heights {
		for y := 0; y < g.Rows(); y++ {
			if g[y][x] != tetris.EmptyCell {
				heights[x] = g.Rows() - y
				break
			}
		}
	}
	return heights
}

// countHoles counts empty cells with a filled cell somewhere above them.
func countHoles(g tetris.Grid) int {
	holes := 0
	for x := 0; x < g.Cols(); x++ {
		covered := false
		for y := 0; y < g.Rows(); y++ {
			switch {
			case g[y][x] != tetris.EmptyCell:
				covered = true
			case covered:
				holes++
			}
		}
	}
	return holes
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
