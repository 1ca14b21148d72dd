// Package board runs a single player's stacking game on top of the tetris
// kinematics. A Board is not safe for concurrent use; the owner serialises
// input, Tick and ReceiveGarbage.
package board

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lunablock/lunablock-server/internal/protocol"
	"github.com/lunablock/lunablock-server/internal/tetris"
)

// State is a board's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateSpawning
	StateFalling
	StateLocking
	StateGameOver
)

var stateNames = map[State]string{
	StateIdle:     "IDLE",
	StateSpawning: "SPAWNING",
	StateFalling:  "FALLING",
	StateLocking:  "LOCKING",
	StateGameOver: "GAME_OVER",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int(s))
}

// Listener receives the events a board reports upward.
type Listener interface {
	LinesCleared(count int)
	GameOver(score int)
}

// Options tune board timing and dimensions.
type Options struct {
	Rows         int
	Cols         int
	DropInterval time.Duration
	LockDelay    time.Duration
	MaxLockMoves int
	PreviewSize  int
	Rand         tetris.Rand
}

// DefaultOptions returns the standard 20x10 board timings.
func DefaultOptions() Options {
	return Options{
		Rows:         tetris.DefaultRows,
		Cols:         tetris.DefaultCols,
		DropInterval: time.Second,
		LockDelay:    500 * time.Millisecond,
		MaxLockMoves: 15,
		PreviewSize:  4,
	}
}

// Option mutates Options.
type Option func(*Options)

func WithRand(rng tetris.Rand) Option {
	return func(o *Options) { o.Rand = rng }
}

func WithDropInterval(d time.Duration) Option {
	return func(o *Options) { o.DropInterval = d }
}

func WithLockDelay(d time.Duration) Option {
	return func(o *Options) { o.LockDelay = d }
}

func WithMaxLockMoves(n int) Option {
	return func(o *Options) { o.MaxLockMoves = n }
}

// Board is one player's grid plus active, held and queued pieces.
type Board struct {
	opts     Options
	listener Listener

	grid    tetris.Grid
	current *tetris.Piece
	held    *tetris.PieceType
	canHold bool
	bag     []tetris.PieceType
	queue   []tetris.PieceType

	state       State
	dropCounter time.Duration
	lockTimer   time.Duration
	lockMoves   int
	lowestRow   int
	lines       int
}

// New creates an idle board. A nil listener discards events.
func New(listener Listener, options ...Option) *Board {
	opts := DefaultOptions()
	for _, apply := range options {
		apply(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if listener == nil {
		listener = nopListener{}
	}
	return &Board{
		opts:     opts,
		listener: listener,
		grid:     tetris.NewGrid(opts.Rows, opts.Cols),
		state:    StateIdle,
	}
}

// Start resets the board and spawns the first piece.
func (b *Board) Start() {
	b.grid = tetris.NewGrid(b.opts.Rows, b.opts.Cols)
	b.current = nil
	b.held = nil
	b.canHold = true
	b.bag = tetris.GenerateBag(b.opts.Rand)
	b.queue = b.queue[:0]
	b.dropCounter = 0
	b.lockTimer = 0
	b.lockMoves = 0
	b.lines = 0
	b.state = StateSpawning
	b.spawn()
}

func (b *Board) active() bool {
	return b.current != nil && (b.state == StateFalling || b.state == StateLocking)
}

func (b *Board) nextFromBag() tetris.PieceType {
	if len(b.bag) == 0 {
		b.bag = tetris.GenerateBag(b.opts.Rand)
	}
	t := b.bag[len(b.bag)-1]
	b.bag = b.bag[:len(b.bag)-1]
	return t
}

func (b *Board) spawn() bool {
	for len(b.queue) < b.opts.PreviewSize+1 {
		b.queue = append(b.queue, b.nextFromBag())
	}
	t := b.queue[0]
	b.queue = append(b.queue[:0], b.queue[1:]...)

	p := tetris.Spawn(t, b.opts.Cols)
	return b.place(p)
}

// place makes p the active piece, or tops out if it does not fit.
func (b *Board) place(p tetris.Piece) bool {
	b.current = &p
	if tetris.CheckCollision(p, b.grid) {
		b.gameOver()
		return false
	}
	b.state = StateFalling
	b.dropCounter = 0
	b.lockTimer = 0
	b.lockMoves = 0
	b.lowestRow = p.Y
	return true
}

func (b *Board) gameOver() {
	b.state = StateGameOver
	b.listener.GameOver(b.lines)
}

// afterShift applies lock-delay bookkeeping after a successful move or rotation.
func (b *Board) afterShift() {
	if b.current.Y > b.lowestRow {
		b.lowestRow = b.current.Y
		b.lockMoves = 0
	}
	if b.state != StateLocking {
		return
	}
	b.lockTimer = 0
	b.lockMoves++
	if b.lockMoves >= b.opts.MaxLockMoves {
		b.lock()
		return
	}
	if _, free := tetris.Move(*b.current, b.grid, 0, 1); free {
		b.state = StateFalling
	}
}

func (b *Board) shift(dx int) bool {
	if !b.active() {
		return false
	}
	moved, ok := tetris.Move(*b.current, b.grid, dx, 0)
	if !ok {
		return false
	}
	b.current = &moved
	b.afterShift()
	return true
}

// MoveLeft shifts the active piece one column left.
func (b *Board) MoveLeft() bool { return b.shift(-1) }

// MoveRight shifts the active piece one column right.
func (b *Board) MoveRight() bool { return b.shift(1) }

// Rotate turns the active piece; dir is +1 clockwise or -1 counter-clockwise.
func (b *Board) Rotate(dir int) bool {
	if !b.active() {
		return false
	}
	rotated, ok := tetris.Rotate(*b.current, b.grid, dir)
	if !ok {
		return false
	}
	b.current = &rotated
	b.afterShift()
	return true
}

// stepDown moves the piece one row down, entering Locking when blocked.
func (b *Board) stepDown() bool {
	moved, ok := tetris.Move(*b.current, b.grid, 0, 1)
	if !ok {
		if b.state != StateLocking {
			b.state = StateLocking
			b.lockTimer = 0
		}
		return false
	}
	b.current = &moved
	if moved.Y > b.lowestRow {
		b.lowestRow = moved.Y
		b.lockMoves = 0
	}
	if b.state == StateLocking {
		b.state = StateFalling
		b.lockTimer = 0
	}
	return true
}

// SoftDrop moves the piece down one row and restarts the gravity counter.
func (b *Board) SoftDrop() bool {
	if !b.active() {
		return false
	}
	b.dropCounter = 0
	return b.stepDown()
}

// HardDrop drops the piece to its ghost position and locks it at once.
func (b *Board) HardDrop() {
	if !b.active() {
		return
	}
	ghost := tetris.GhostPosition(*b.current, b.grid)
	b.current = &ghost
	b.lock()
}

func (b *Board) lock() {
	b.grid = tetris.MergePiece(b.grid, *b.current)
	res := tetris.ClearLines(b.grid)
	b.grid = res.Grid
	b.current = nil
	b.canHold = true
	b.lockMoves = 0
	b.lockTimer = 0
	b.state = StateSpawning

	if res.Count > 0 {
		b.lines += res.Count
		b.listener.LinesCleared(res.Count)
	}
	b.spawn()
}

// Hold swaps the active piece with the held one. Allowed once per spawn.
func (b *Board) Hold() bool {
	if !b.canHold || !b.active() {
		return false
	}
	outgoing := b.current.Type

	if b.held == nil {
		b.held = &outgoing
		b.current = nil
		b.state = StateSpawning
		if !b.spawn() {
			return true
		}
	} else {
		incoming := *b.held
		b.held = &outgoing
		shape := tetris.ShapeOf(incoming, 0)
		p := tetris.Piece{
			Type: incoming,
			X:    b.opts.Cols/2 - shape.Width()/2,
			Y:    0,
		}
		if !b.place(p) {
			return true
		}
	}

	b.canHold = false
	return true
}

// Tick advances gravity and lock delay by delta.
func (b *Board) Tick(delta time.Duration) {
	if !b.active() {
		return
	}
	b.dropCounter += delta
	if b.state == StateLocking {
		b.lockTimer += delta
		if b.lockTimer >= b.opts.LockDelay {
			b.lock()
			return
		}
	}
	if b.dropCounter > b.opts.DropInterval {
		b.dropCounter = 0
		b.stepDown()
	}
}

// ReceiveGarbage injects attack rows. A piece that ends up buried at the top
// of the board tops the player out.
func (b *Board) ReceiveGarbage(lines int) {
	if lines <= 0 || b.state == StateGameOver || b.state == StateIdle {
		return
	}
	b.grid = tetris.AddGarbage(b.grid, lines, b.current, b.opts.Rand)
	if b.current != nil && tetris.CheckCollision(*b.current, b.grid) {
		b.gameOver()
	}
}

// State returns the lifecycle phase.
func (b *Board) State() State { return b.state }

// Lines returns the total lines cleared since Start.
func (b *Board) Lines() int { return b.lines }

// CanHold reports whether Hold is currently allowed.
func (b *Board) CanHold() bool { return b.canHold }

// Grid returns a copy of the locked cells.
func (b *Board) Grid() tetris.Grid { return b.grid.Clone() }

// Current returns the active piece.
func (b *Board) Current() (tetris.Piece, bool) {
	if b.current == nil {
		return tetris.Piece{}, false
	}
	return *b.current, true
}

// Ghost returns where the active piece would land.
func (b *Board) Ghost() (tetris.Piece, bool) {
	if b.current == nil {
		return tetris.Piece{}, false
	}
	return tetris.GhostPosition(*b.current, b.grid), true
}

// Held returns the held piece type.
func (b *Board) Held() (tetris.PieceType, bool) {
	if b.held == nil {
		return 0, false
	}
	return *b.held, true
}

// Next returns the preview queue, soonest first.
func (b *Board) Next() []tetris.PieceType {
	n := min(len(b.queue), b.opts.PreviewSize)
	return append([]tetris.PieceType(nil), b.queue[:n]...)
}

// Snapshot builds the state reported to opponents.
func (b *Board) Snapshot() protocol.GameState {
	state := protocol.GameState{
		Grid:       b.grid.Matrix(),
		IsGameOver: b.state == StateGameOver,
	}
	if b.current != nil {
		p := *b.current
		state.CurrentPiece = &protocol.PieceState{
			Type:        int(p.Type),
			Orientation: p.Orientation,
			Shape:       p.Shape().Matrix(),
			Pos:         protocol.Position{X: p.X, Y: p.Y},
			Color:       p.Color(),
		}
	}
	return state
}

type nopListener struct{}

func (nopListener) LinesCleared(int) {}
func (nopListener) GameOver(int)     {}
