package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunablock/lunablock-server/internal/tetris"
)

func land(g tetris.Grid, p tetris.Piece, plan Placement) tetris.ClearResult {
	placed := tetris.Piece{Type: p.Type, Orientation: plan.Orientation, X: plan.X, Y: p.Y}
	return tetris.ClearLines(tetris.MergePiece(g, tetris.GhostPosition(placed, g)))
}

func TestPlanCompletesLine(t *testing.T) {
	g := tetris.NewGrid(tetris.DefaultRows, tetris.DefaultCols)
	for x := 0; x < 6; x++ {
		g[tetris.DefaultRows-1][x] = tetris.GarbageCell
	}
	piece := tetris.Spawn(tetris.PieceI, g.Cols())

	plan, ok := Plan(g, piece)
	require.True(t, ok)

	result := land(g, piece, plan)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 0, countHoles(result.Grid))
}

func TestPlanAvoidsHoles(t *testing.T) {
	g := tetris.NewGrid(tetris.DefaultRows, tetris.DefaultCols)
	for _, typ := range []tetris.PieceType{tetris.PieceO, tetris.PieceT, tetris.PieceL} {
		piece := tetris.Spawn(typ, g.Cols())
		plan, ok := Plan(g, piece)
		require.True(t, ok, typ.String())

		result := land(g, piece, plan)
		assert.Equal(t, 0, countHoles(result.Grid), typ.String())
	}
}

func TestPlanNoRoom(t *testing.T) {
	g := tetris.NewGrid(4, 4)
	for y := range g {
		for x := range g[y] {
			g[y][x] = tetris.GarbageCell
		}
	}
	_, ok := Plan(g, tetris.Spawn(tetris.PieceT, 4))
	assert.False(t, ok)
}

func TestEvaluateHelpers(t *testing.T) {
	g := tetris.Grid{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 1},
	}
	assert.Equal(t, []int{2, 1, 1}, columnHeights(g))
	assert.Equal(t, 1, countHoles(g))
	assert.Greater(t, evaluate(g, 1), evaluate(g, 0))
}
