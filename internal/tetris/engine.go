package tetris

// Rand is the random source used by the engine. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
}

// GenerateBag returns a uniformly random permutation of all seven piece types.
func GenerateBag(rng Rand) []PieceType {
	bag := make([]PieceType, PieceCount)
	for i := range bag {
		bag[i] = PieceType(i)
	}
	for i := len(bag) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		bag[i], bag[j] = bag[j], bag[i]
	}
	return bag
}

// CheckCollision reports whether the piece overlaps a wall, the floor or a
// filled cell. Cells above the top row never collide.
func CheckCollision(p Piece, g Grid) bool {
	return collides(p.Shape(), p.X, p.Y, g)
}

func collides(s Shape, px, py int, g Grid) bool {
	hit := false
	s.Cells(func(dx, dy int) {
		if hit {
			return
		}
		x := px + dx
		y := py + dy
		switch {
		case x < 0 || x >= g.Cols():
			hit = true
		case y >= g.Rows():
			hit = true
		case y >= 0 && g[y][x] != EmptyCell:
			hit = true
		}
	})
	return hit
}

// Rotate turns the piece by dir quarter turns (+1 clockwise, -1 counter-clockwise)
// using the SRS wall-kick tests. It returns false when every test collides; the
// input piece is never modified.
func Rotate(p Piece, g Grid, dir int) (Piece, bool) {
	to := normalizeOrientation(p.Orientation + dir)
	shape := ShapeOf(p.Type, to)

	for _, kick := range Kicks(p.Type, p.Orientation, to) {
		x := p.X + kick.DX
		y := p.Y - kick.DY
		if !collides(shape, x, y, g) {
			return Piece{Type: p.Type, Orientation: to, X: x, Y: y}, true
		}
	}
	return p, false
}

// GhostPosition returns the piece dropped straight down as far as it can go.
func GhostPosition(p Piece, g Grid) Piece {
	ghost := p
	for {
		next, ok := Move(ghost, g, 0, 1)
		if !ok {
			return ghost
		}
		ghost = next
	}
}

// Move returns the piece shifted by dx, dy and whether that placement is free.
func Move(p Piece, g Grid, dx, dy int) (Piece, bool) {
	moved := p
	moved.X += dx
	moved.Y += dy
	if CheckCollision(moved, g) {
		return p, false
	}
	return moved, true
}
