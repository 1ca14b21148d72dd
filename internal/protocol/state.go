package protocol

import "fmt"

const (
	maxGridRows = 64
	maxGridCols = 32
)

// Position is a piece's bounding-box origin.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PieceState describes the falling piece inside a reported snapshot.
type PieceState struct {
	Type        int      `json:"type"`
	Orientation int      `json:"orientation"`
	Shape       [][]int  `json:"shape"`
	Pos         Position `json:"pos"`
	Color       int      `json:"color"`
}

// GameState is a player's self-reported board snapshot. The server relays it
// without interpreting it.
type GameState struct {
	Grid         [][]int     `json:"grid"`
	CurrentPiece *PieceState `json:"currentPiece"`
	IsGameOver   bool        `json:"isGameOver"`
}

// Validate bounds the snapshot size so a client cannot make the server relay
// arbitrarily large grids.
func (s GameState) Validate() error {
	if len(s.Grid) > maxGridRows {
		return fmt.Errorf("grid has %d rows, max %d", len(s.Grid), maxGridRows)
	}
	for y, row := range s.Grid {
		if len(row) > maxGridCols {
			return fmt.Errorf("grid row %d has %d columns, max %d", y, len(row), maxGridCols)
		}
	}
	if s.CurrentPiece != nil && len(s.CurrentPiece.Shape) > 4 {
		return fmt.Errorf("piece shape has %d rows", len(s.CurrentPiece.Shape))
	}
	return nil
}

// Clone returns a deep copy.
func (s GameState) Clone() GameState {
	out := GameState{IsGameOver: s.IsGameOver}
	if s.Grid != nil {
		out.Grid = make([][]int, len(s.Grid))
		for y, row := range s.Grid {
			out.Grid[y] = append([]int(nil), row...)
		}
	}
	if s.CurrentPiece != nil {
		p := *s.CurrentPiece
		p.Shape = make([][]int, len(s.CurrentPiece.Shape))
		for y, row := range s.CurrentPiece.Shape {
			p.Shape[y] = append([]int(nil), row...)
		}
		out.CurrentPiece = &p
	}
	return out
}
