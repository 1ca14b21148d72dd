// Package bot is a headless player. It connects over the websocket protocol,
// creates or joins a room, plays its own board with a greedy placement policy
// and reacts to garbage and match events like a browser client would.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lunablock/lunablock-server/internal/board"
	"github.com/lunablock/lunablock-server/internal/config"
	"github.com/lunablock/lunablock-server/internal/protocol"
)

const (
	defaultTick         = 50 * time.Millisecond
	outboxSize          = 64
	snapshotEveryNTicks = 10
	writeWait           = 5 * time.Second
)

// Bot plays one seat. All game state is guarded by mu.
type Bot struct {
	cfg    config.BotConfig
	userID string
	logger *zap.Logger

	mu       sync.Mutex
	board    *board.Board
	roomID   string
	hostID   string
	players  int
	playing  bool
	started  int
	finished int
	ticks    int

	outbox chan outbound
}

type outbound struct {
	event protocol.EventType
	data  any
}

// New creates a bot. Board options tune gravity and randomness.
func New(cfg config.BotConfig, logger *zap.Logger, options ...board.Option) *Bot {
	if cfg.Tick <= 0 {
		cfg.Tick = defaultTick
	}
	if cfg.MinPlayers < 2 {
		cfg.MinPlayers = 2
	}
	b := &Bot{
		cfg:    cfg,
		userID: uuid.NewString(),
		logger: logger,
		outbox: make(chan outbound, outboxSize),
	}
	b.board = board.New(boardListener{b}, options...)
	return b
}

// UserID returns the identity the bot plays under.
func (b *Bot) UserID() string { return b.userID }

// RoomID returns the room the bot sits in, or "" before it has one.
func (b *Bot) RoomID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.roomID
}

// GamesStarted returns how many matches the bot has begun.
func (b *Bot) GamesStarted() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// GamesFinished returns how many matches ended with a winner while seated.
func (b *Bot) GamesFinished() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finished
}

// Run connects and plays until ctx is cancelled or the server rejects the bot.
func (b *Bot) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.cfg.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", b.cfg.ServerURL, err)
	}
	defer conn.Close()

	b.logger.Info("bot connected",
		zap.String("url", b.cfg.ServerURL),
		zap.String("user_id", b.userID),
	)

	if b.cfg.Room != "" {
		b.enqueue(protocol.EventJoinRoom, protocol.JoinRoom{
			RoomID:   b.cfg.Room,
			UserID:   b.userID,
			Nickname: b.cfg.Nickname,
		})
	} else {
		b.enqueue(protocol.EventCreateRoom, protocol.CreateRoom{
			RoomName: b.cfg.Nickname + "'s room",
			UserID:   b.userID,
			Nickname: b.cfg.Nickname,
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.readLoop(ctx, conn) })
	g.Go(func() error { return b.writeLoop(ctx, conn) })
	g.Go(func() error { return b.playLoop(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		_ = conn.Close()
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bot) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			b.logger.Warn("bad frame from server", zap.Error(err))
			continue
		}
		if err := b.handle(env); err != nil {
			return err
		}
	}
}

func (b *Bot) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		case out := <-b.outbox:
			raw, err := json.Marshal(out.data)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", out.event, err)
			}
			frame, err := json.Marshal(protocol.Envelope{Type: out.event, Data: raw})
			if err != nil {
				return fmt.Errorf("marshal envelope: %w", err)
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write %s: %w", out.event, err)
			}
		}
	}
}

func (b *Bot) playLoop(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.step(b.cfg.Tick)
		}
	}
}

// step advances gravity and performs one input toward the planned placement.
func (b *Bot) step(delta time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.playing {
		return
	}
	b.board.Tick(delta)
	b.act()

	b.ticks++
	if b.ticks%snapshotEveryNTicks == 0 {
		b.enqueue(protocol.EventUpdateGameState, protocol.UpdateGameState{
			RoomID:    b.roomID,
			GameState: b.board.Snapshot(),
		})
	}
}

// act issues a single input toward the best placement for the current
// piece, replanning from its present position. Caller holds b.mu.
func (b *Bot) act() {
	current, ok := b.board.Current()
	if !ok {
		return
	}
	plan, found := Plan(b.board.Grid(), current)
	if !found {
		b.board.HardDrop()
		return
	}

	var moved bool
	switch {
	case current.Orientation != plan.Orientation:
		moved = b.board.Rotate(1)
	case current.X < plan.X:
		moved = b.board.MoveRight()
	case current.X > plan.X:
		moved = b.board.MoveLeft()
	}
	if !moved {
		b.board.HardDrop()
	}
}

// handle applies one server event. Caller must not hold b.mu.
func (b *Bot) handle(env protocol.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch env.Type {
	case protocol.EventRoomCreated:
		var msg protocol.RoomCreated
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.seat(msg.Room)
	case protocol.EventJoinRoomSuccess:
		var msg protocol.JoinRoomSuccess
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.seat(msg.Room)
	case protocol.EventRoomCreateError, protocol.EventJoinRoomError:
		var msg protocol.JoinRoomError
		_ = json.Unmarshal(env.Data, &msg)
		return fmt.Errorf("server rejected bot: %s", msg.Message)
	case protocol.EventPlayerJoined:
		var msg protocol.PlayerJoined
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.hostID, b.players = msg.HostID, len(msg.Players)
		b.maybeStart()
	case protocol.EventPlayerLeft:
		var msg protocol.PlayerLeft
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.hostID, b.players = msg.HostID, len(msg.Players)
	case protocol.EventMoveToTetrisPage:
		b.enqueue(protocol.EventTetrisPageLoaded, protocol.TetrisPageLoaded{RoomID: b.roomID})
	case protocol.EventGameStart:
		b.board.Start()
		b.playing = true
		b.started++
		b.logger.Info("match started", zap.String("room_id", b.roomID))
	case protocol.EventReceiveGarbage:
		var msg protocol.ReceiveGarbage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.board.ReceiveGarbage(msg.Lines)
	case protocol.EventGameWin:
		var msg protocol.GameWin
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		b.playing = false
		b.finished++
		b.logger.Info("match finished",
			zap.String("room_id", b.roomID),
			zap.Bool("won", msg.Winner.ID == b.userID),
		)
		b.enqueue(protocol.EventRestartGame, protocol.RestartGame{RoomID: b.roomID})
	case protocol.EventGameRestart:
		b.playing = false
		b.maybeStart()
	case protocol.EventGameStartConfirmation:
		var msg protocol.GameStartConfirmation
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if msg.Status == protocol.StartStatusError {
			b.logger.Warn("start rejected", zap.String("error", msg.Error))
		}
	case protocol.EventError:
		var msg protocol.Error
		_ = json.Unmarshal(env.Data, &msg)
		b.logger.Warn("server error", zap.String("message", msg.Message))
	}
	return nil
}

func (b *Bot) seat(room protocol.RoomView) {
	b.roomID = room.ID
	b.hostID = room.HostID
	b.players = len(room.Players)
	b.logger.Info("bot seated",
		zap.String("room_id", room.ID),
		zap.Int("players", b.players),
	)
}

// maybeStart starts a match when the bot hosts a room holding at least
// cfg.MinPlayers players.
func (b *Bot) maybeStart() {
	if b.hostID == b.userID && b.players >= b.cfg.MinPlayers && !b.playing {
		b.enqueue(protocol.EventStartGame, protocol.StartGame{RoomID: b.roomID, UserID: b.userID})
	}
}

func (b *Bot) enqueue(event protocol.EventType, data any) {
	select {
	case b.outbox <- outbound{event: event, data: data}:
	default:
		b.logger.Warn("outbox full, dropping message", zap.String("event", string(event)))
	}
}

// boardListener forwards board events to the server. It runs inside board
// calls, so b.mu is already held.
type boardListener struct {
	b *Bot
}

func (l boardListener) LinesCleared(n int) {
	l.b.enqueue(protocol.EventLineCleared, protocol.LineCleared{RoomID: l.b.roomID, LinesCleared: n})
}

func (l boardListener) GameOver(score int) {
	l.b.enqueue(protocol.EventGameOver, protocol.GameOver{RoomID: l.b.roomID, Score: score})
	l.b.enqueue(protocol.EventUpdateGameState, protocol.UpdateGameState{
		RoomID:    l.b.roomID,
		GameState: l.b.board.Snapshot(),
	})
}
