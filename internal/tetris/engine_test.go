package tetris

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = []PieceType{PieceI, PieceT, PieceL, PieceJ, PieceO, PieceS, PieceZ}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestGenerateBag(t *testing.T) {
	rng := newRand()

	for i := 0; i < 200; i++ {
		bag := GenerateBag(rng)
		require.Len(t, bag, PieceCount)

		seen := make(map[PieceType]int)
		for _, pt := range bag {
			seen[pt]++
		}
		for _, pt := range allTypes {
			assert.Equal(t, 1, seen[pt], "type %s in bag %v", pt, bag)
		}
	}
}

func TestSpawn(t *testing.T) {
	for _, pt := range allTypes {
		p := Spawn(pt, DefaultCols)
		assert.Equal(t, 3, p.X)
		assert.Equal(t, 0, p.Orientation)
		if pt == PieceI {
			assert.Equal(t, -1, p.Y)
		} else {
			assert.Equal(t, 0, p.Y)
		}
	}
}

func TestCheckCollision(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)

	t.Run("fresh spawn on empty board", func(t *testing.T) {
		for _, pt := range allTypes {
			assert.False(t, CheckCollision(Spawn(pt, DefaultCols), g), pt.String())
		}
	})

	t.Run("below the last row", func(t *testing.T) {
		for _, pt := range allTypes {
			p := Spawn(pt, DefaultCols)
			p.Y = DefaultRows
			assert.True(t, CheckCollision(p, g), pt.String())
		}
	})

	t.Run("walls", func(t *testing.T) {
		p := Spawn(PieceO, DefaultCols)
		p.X = -2
		assert.True(t, CheckCollision(p, g))
		p.X = DefaultCols - 2
		assert.True(t, CheckCollision(p, g))
		p.X = -1
		assert.False(t, CheckCollision(p, g))
	})

	t.Run("above the top never collides", func(t *testing.T) {
		p := Spawn(PieceT, DefaultCols)
		p.Y = -1
		assert.False(t, CheckCollision(p, g))
	})

	t.Run("filled cell", func(t *testing.T) {
		filled := g.Clone()
		filled[1][4] = PieceJ.Color()
		assert.True(t, CheckCollision(Spawn(PieceT, DefaultCols), filled))
	})
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)

	for _, pt := range allTypes {
		for x := 1; x <= 5; x++ {
			for y := 1; y <= 15; y++ {
				for _, dir := range []int{1, -1} {
					start := Piece{Type: pt, X: x, Y: y}
					p := start
					for i := 0; i < 4; i++ {
						var ok bool
						p, ok = Rotate(p, g, dir)
						require.True(t, ok, "%s at (%d,%d) dir %d", pt, x, y, dir)
					}
					assert.Equal(t, start, p)
				}
			}
		}
	}
}

func TestRotateUsesWallKicks(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)

	// Vertical I hugging the left wall; the in-place test and the first kick
	// both leave the board, the third test shifts it right by two.
	vertical := Piece{Type: PieceI, Orientation: 1, X: -2, Y: 5}
	require.False(t, CheckCollision(vertical, g))

	rotated, ok := Rotate(vertical, g, 1)
	require.True(t, ok)
	assert.Equal(t, Piece{Type: PieceI, Orientation: 2, X: 0, Y: 5}, rotated)
	assert.Equal(t, Piece{Type: PieceI, Orientation: 1, X: -2, Y: 5}, vertical)
}

func TestRotateFailsWhenBoxedIn(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)
	for y := range g {
		for x := range g[y] {
			g[y][x] = GarbageCell
		}
	}
	p := Piece{Type: PieceT, X: 3, Y: 5}
	// carve out exactly the T's spawn cells
	p.Shape().Cells(func(dx, dy int) {
		g[p.Y+dy][p.X+dx] = EmptyCell
	})

	_, ok := Rotate(p, g, 1)
	assert.False(t, ok)
}

func TestRotateO(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)
	p := Spawn(PieceO, DefaultCols)

	rotated, ok := Rotate(p, g, 1)
	require.True(t, ok)
	assert.Equal(t, p.X, rotated.X)
	assert.Equal(t, p.Y, rotated.Y)
	assert.Equal(t, 1, rotated.Orientation)
	assert.Equal(t, p.Shape(), rotated.Shape())
}

func TestKicksTable(t *testing.T) {
	assert.Equal(t, Offset{-1, 0}, Kicks(PieceT, 0, 1)[1])
	assert.Equal(t, Offset{1, 2}, Kicks(PieceI, 0, 1)[4])
	assert.Equal(t, Offset{-1, 2}, Kicks(PieceZ, 3, 0)[4])
	assert.Equal(t, [KickTests]Offset{}, Kicks(PieceO, 2, 3))
}

func TestGhostPosition(t *testing.T) {
	g := NewGrid(DefaultRows, DefaultCols)
	p := Spawn(PieceO, DefaultCols)

	ghost := GhostPosition(p, g)
	assert.Equal(t, DefaultRows-2, ghost.Y)
	assert.Equal(t, p.X, ghost.X)
	assert.Equal(t, 0, p.Y, "ghost must not move the real piece")

	g[DefaultRows-1][4] = GarbageCell
	ghost = GhostPosition(p, g)
	assert.Equal(t, DefaultRows-3, ghost.Y)
}
