// Package room coordinates lobbies and matches: membership, host handoff,
// match start and restart, periodic retargeting, and garbage routing.
package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunablock/lunablock-server/internal/protocol"
	"github.com/lunablock/lunablock-server/internal/session"
)

const (
	roomIDLength   = 5
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// bcrypt only accepts passwords up to this many bytes.
	maxPasswordBytes = 72
)

// Notifier delivers server messages. Implementations must not block and must
// not call back into the Manager; they run under its lock.
type Notifier interface {
	Send(connID string, msg protocol.Message)
	Broadcast(msg protocol.Message)
}

// Options tunes match rules and injects time, randomness and scheduling.
type Options struct {
	RetargetInterval  time.Duration
	DefaultMaxPlayers int
	MinPlayers        int
	MaxPlayers        int
	SingleLineChance  float64
	PasswordCost      int

	Rand      Rand
	Scheduler Scheduler
	Now       func() time.Time
}

// DefaultOptions returns the standard match rules.
func DefaultOptions() Options {
	return Options{
		RetargetInterval:  15 * time.Second,
		DefaultMaxPlayers: 6,
		MinPlayers:        2,
		MaxPlayers:        50,
		SingleLineChance:  0.3,
		PasswordCost:      bcrypt.DefaultCost,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.RetargetInterval <= 0 {
		o.RetargetInterval = def.RetargetInterval
	}
	if o.DefaultMaxPlayers <= 0 {
		o.DefaultMaxPlayers = def.DefaultMaxPlayers
	}
	if o.MinPlayers <= 0 {
		o.MinPlayers = def.MinPlayers
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = def.MaxPlayers
	}
	if o.PasswordCost == 0 {
		o.PasswordCost = def.PasswordCost
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Scheduler == nil {
		o.Scheduler = TickerScheduler{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Manager owns every live room. One mutex guards all of them, retarget
// callbacks included.
type Manager struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	identity *session.Registry
	notifier Notifier
	opts     Options
	logger   *zap.Logger
}

// NewManager creates a room manager.
func NewManager(identity *session.Registry, notifier Notifier, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		identity: identity,
		notifier: notifier,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// CreateRoom opens a waiting room with the caller as sole member and host.
func (m *Manager) CreateRoom(connID string, req protocol.CreateRoom) (protocol.RoomView, error) {
	if req.UserID == "" || req.Nickname == "" {
		return protocol.RoomView{}, ErrMissingIdentity
	}

	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = m.opts.DefaultMaxPlayers
	}
	if maxPlayers < m.opts.MinPlayers || maxPlayers > m.opts.MaxPlayers {
		return protocol.RoomView{}, fmt.Errorf("%w: maxPlayers must be between %d and %d",
			ErrInvalidCapacity, m.opts.MinPlayers, m.opts.MaxPlayers)
	}

	var hash []byte
	if req.IsPrivate {
		if len(req.Password) > maxPasswordBytes {
			return protocol.RoomView{}, ErrPasswordTooLong
		}
		h, err := bcrypt.GenerateFromPassword([]byte(req.Password), m.opts.PasswordCost)
		if err != nil {
			return protocol.RoomView{}, fmt.Errorf("failed to hash room password: %w", err)
		}
		hash = h
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newRoomID()
	name := strings.TrimSpace(req.RoomName)
	if name == "" {
		name = "Room-" + id
	}

	room := newRoom(id, name, maxPlayers, m.opts.Now())
	room.IsPrivate = req.IsPrivate
	room.passwordHash = hash
	room.HostID = req.UserID
	room.upsertMember(req.UserID, req.Nickname)
	m.rooms[id] = room

	m.identity.Bind(req.UserID, connID)

	m.logger.Info("room created",
		zap.String("room_id", id),
		zap.String("host_id", req.UserID),
		zap.Int("max_players", maxPlayers),
		zap.Bool("private", req.IsPrivate),
	)

	m.notifier.Broadcast(protocol.RoomListUpdated{})
	return room.view(), nil
}

// JoinRoom seats the caller in a waiting room. Rejections leave the room
// untouched.
func (m *Manager) JoinRoom(connID string, req protocol.JoinRoom) (protocol.RoomView, error) {
	// The hash comparison runs outside m.mu.
	passwordOK := true
	if hash := m.passwordHash(req.RoomID); hash != nil {
		passwordOK = bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) == nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[req.RoomID]
	if !ok {
		return protocol.RoomView{}, ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return protocol.RoomView{}, ErrRoomNotWaiting
	}
	alreadyMember := room.isMember(req.UserID)
	if !alreadyMember && len(room.members) >= room.MaxPlayers {
		return protocol.RoomView{}, ErrRoomFull
	}
	if room.IsPrivate && !passwordOK {
		return protocol.RoomView{}, ErrWrongPassword
	}
	if req.UserID == "" || req.Nickname == "" {
		return protocol.RoomView{}, ErrMissingIdentity
	}

	room.upsertMember(req.UserID, req.Nickname)
	if room.HostID == "" || !room.isMember(room.HostID) {
		room.HostID = req.UserID
	}
	m.identity.Bind(req.UserID, connID)

	m.logger.Info("player joined room",
		zap.String("room_id", room.ID),
		zap.String("user_id", req.UserID),
		zap.Int("players", len(room.members)),
	)

	m.sendToRoom(room, protocol.PlayerJoined{
		RoomID:  room.ID,
		Player:  protocol.PlayerView{UserID: req.UserID, Name: req.Nickname},
		HostID:  room.HostID,
		Players: room.players(),
	}, req.UserID)
	m.notifier.Broadcast(protocol.RoomListUpdated{})

	return room.view(), nil
}

func (m *Manager) passwordHash(roomID string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || !room.IsPrivate {
		return nil
	}
	return room.passwordHash
}

// LeaveRoom removes a member. Unknown rooms and non-members are ignored.
func (m *Manager) LeaveRoom(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return
	}
	if m.leave(room, userID) {
		m.notifier.Broadcast(protocol.RoomListUpdated{})
	}
}

// Disconnect releases the connection's identity and removes that user from
// every room it occupies.
func (m *Manager) Disconnect(connID string) {
	userID, ok := m.identity.Unbind(connID)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	changed := false
	for _, id := range ids {
		if m.leave(m.rooms[id], userID) {
			changed = true
		}
	}
	if changed {
		m.notifier.Broadcast(protocol.RoomListUpdated{})
	}

	m.logger.Debug("connection released",
		zap.String("conn_id", connID),
		zap.String("user_id", userID),
	)
}

// leave removes userID from room, notifies the remaining members and destroys
// the room when it empties. Caller holds m.mu.
func (m *Manager) leave(room *Room, userID string) bool {
	if !room.removeMember(userID) {
		return false
	}

	m.logger.Info("player left room",
		zap.String("room_id", room.ID),
		zap.String("user_id", userID),
		zap.String("host_id", room.HostID),
	)

	if len(room.members) == 0 {
		m.destroy(room)
		return true
	}

	m.sendToRoom(room, protocol.PlayerLeft{
		RoomID:  room.ID,
		UserID:  userID,
		HostID:  room.HostID,
		Players: room.players(),
	}, "")
	m.sendToRoom(room, protocol.PlayerDisconnect(userID), "")

	if room.Status == StatusPlaying && !room.finished {
		if alive := room.survivors(); len(alive) == 1 && len(room.members) > 1 {
			m.finishMatch(room, alive[0])
		}
	}
	if len(room.restarted) > 0 && len(room.restarted) == len(room.members) {
		m.completeRestart(room)
	}
	return true
}

func (m *Manager) destroy(room *Room) {
	room.stopRetarget()
	delete(m.rooms, room.ID)
	m.logger.Info("room destroyed", zap.String("room_id", room.ID))
}

// StartGame moves a waiting room into a match and returns the participant
// count.
func (m *Manager) StartGame(roomID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}
	if room.HostID != userID {
		return 0, ErrNotHost
	}
	if room.Status == StatusPlaying {
		return 0, ErrAlreadyPlaying
	}
	if len(room.members) < 2 {
		return 0, ErrNotEnoughPlayers
	}

	room.Status = StatusPlaying
	room.resetMatch()
	room.states = make(map[string]*PlayerState)
	m.assignTargets(room)
	m.armRetarget(room)

	m.logger.Info("game started",
		zap.String("room_id", room.ID),
		zap.Strings("players", room.memberIDs()),
	)

	m.sendToRoom(room, protocol.MoveToTetrisPage{RoomID: room.ID}, "")
	m.sendToRoom(room, protocol.GameStart{}, "")
	m.notifier.Broadcast(protocol.RoomListUpdated{})

	return len(room.members), nil
}

// armRetarget replaces the room's retarget task. The generation counter lets
// a late tick from a stopped task recognise itself and bail out.
func (m *Manager) armRetarget(room *Room) {
	room.stopRetarget()
	gen := room.retargetGen
	room.retarget = m.opts.Scheduler.Every(m.opts.RetargetInterval, func() {
		m.retargetTick(room, gen)
	})
}

func (m *Manager) retargetTick(room *Room, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[room.ID] != room || room.retargetGen != gen || room.Status != StatusPlaying {
		return
	}
	m.assignTargets(room)
	m.logger.Debug("targets reassigned", zap.String("room_id", room.ID))
}

// assignTargets draws a new targeting round and tells every attacker whom it
// now targets. Caller holds m.mu.
func (m *Manager) assignTargets(room *Room) {
	room.targets = AssignTargets(room.memberIDs(), m.opts.Rand)
	for _, attacker := range room.memberIDs() {
		m.sendTarget(room, attacker)
	}
}

func (m *Manager) sendTarget(room *Room, attacker string) {
	target, ok := room.targets[attacker]
	if !ok {
		return
	}
	m.sendToUser(attacker, protocol.TargetAssigned{
		TargetID:   target,
		TargetName: room.memberName(target),
	})
}

// PageLoaded records that a member's match view is ready and repeats its
// current target.
func (m *Manager) PageLoaded(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || !room.isMember(userID) {
		return
	}
	room.loaded[userID] = true
	m.sendTarget(room, userID)
}

// ReportLinesCleared routes garbage from an attacker's line clear to its
// current target.
func (m *Manager) ReportLinesCleared(roomID, userID string, lines int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || room.Status != StatusPlaying {
		return
	}
	target, ok := room.targets[userID]
	if !ok {
		return
	}
	garbage := GarbageLines(lines, m.opts.SingleLineChance, m.opts.Rand)
	if garbage == 0 {
		return
	}
	if !room.isMember(target) || room.isDead(target) {
		m.logger.Debug("garbage dropped",
			zap.String("room_id", room.ID),
			zap.String("attacker_id", userID),
			zap.String("target_id", target),
		)
		return
	}

	m.sendToUser(target, protocol.ReceiveGarbage{Lines: garbage})
	m.logger.Debug("garbage sent",
		zap.String("room_id", room.ID),
		zap.String("attacker_id", userID),
		zap.String("target_id", target),
		zap.Int("lines", garbage),
	)
}

// UpdateGameState stores a member's board and relays it to the others.
func (m *Manager) UpdateGameState(roomID, userID string, state protocol.GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || !room.isMember(userID) {
		return
	}

	ps := room.state(userID)
	ps.Snapshot = state.Clone()
	if ps.Dead {
		ps.Snapshot.IsGameOver = true
	}

	m.sendToRoom(room, protocol.GameStateUpdate{
		PlayerID:   userID,
		PlayerName: room.memberName(userID),
		GameState:  ps.Snapshot.Clone(),
	}, userID)
}

// ReportGameOver marks a member dead and ends the match when one survivor
// remains.
func (m *Manager) ReportGameOver(roomID, userID string, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || room.Status != StatusPlaying || room.finished || !room.isMember(userID) {
		return
	}

	ps := room.state(userID)
	if ps.Dead {
		return
	}
	ps.Dead = true
	ps.Snapshot.IsGameOver = true

	m.logger.Info("player topped out",
		zap.String("room_id", room.ID),
		zap.String("user_id", userID),
		zap.Int("score", score),
	)

	m.sendToRoom(room, protocol.PlayerGameOver{
		PlayerID:   userID,
		Score:      score,
		IsGameOver: true,
	}, userID)
	m.sendToRoom(room, protocol.GameStateUpdate{
		PlayerID:   userID,
		PlayerName: room.memberName(userID),
		GameState:  ps.Snapshot.Clone(),
	}, userID)

	alive := room.survivors()
	if len(alive) == 1 && len(room.members) > 1 {
		m.finishMatch(room, alive[0])
	}
}

func (m *Manager) finishMatch(room *Room, winner Member) {
	room.finished = true
	room.Status = StatusWaiting
	room.stopRetarget()
	room.targets = nil
	room.restarted = make(map[string]bool)
	room.loaded = make(map[string]bool)

	m.logger.Info("game won",
		zap.String("room_id", room.ID),
		zap.String("winner_id", winner.UserID),
	)

	m.sendToRoom(room, protocol.GameWin{
		Winner:  protocol.Winner{ID: winner.UserID, Name: winner.Name},
		Players: room.players(),
	}, "")
	m.notifier.Broadcast(protocol.RoomListUpdated{})
}

// RestartGame records a member's restart acknowledgement. Once every current
// member has acknowledged, the room resets for a fresh start.
func (m *Manager) RestartGame(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok || !room.isMember(userID) || room.restarted[userID] {
		return
	}
	room.restarted[userID] = true

	m.sendToRoom(room, protocol.PlayerRestarted{
		PlayerID:       userID,
		PlayerName:     room.memberName(userID),
		RestartedCount: len(room.restarted),
		TotalPlayers:   len(room.members),
	}, "")

	if len(room.restarted) == len(room.members) {
		m.completeRestart(room)
	}
}

// completeRestart returns the room to a fresh waiting state once every
// current member has acknowledged. Caller holds m.mu.
func (m *Manager) completeRestart(room *Room) {
	wasPlaying := room.Status == StatusPlaying
	room.stopRetarget()
	room.Status = StatusWaiting
	room.resetMatch()

	m.logger.Info("room restarted", zap.String("room_id", room.ID))

	m.sendToRoom(room, protocol.GameRestart{}, "")
	if wasPlaying {
		m.notifier.Broadcast(protocol.RoomListUpdated{})
	}
}

// ListRooms returns every live room, oldest first.
func (m *Manager) ListRooms() []protocol.RoomSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	slices.SortFunc(rooms, func(a, b *Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	list := make([]protocol.RoomSummary, len(rooms))
	for i, r := range rooms {
		list[i] = r.summary()
	}
	return list
}

// Room returns a snapshot of a live room.
func (m *Manager) Room(roomID string) (protocol.RoomView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return protocol.RoomView{}, false
	}
	return room.view(), true
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Close stops every retarget task. Rooms stay readable.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		room.stopRetarget()
	}
}

// IsValidationError reports whether err is a caller mistake rather than a
// server fault.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMissingIdentity, ErrInvalidCapacity, ErrPasswordTooLong, ErrRoomNotFound,
		ErrRoomNotWaiting, ErrRoomFull, ErrWrongPassword,
		ErrNotHost, ErrAlreadyPlaying, ErrNotEnoughPlayers,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (m *Manager) newRoomID() string {
	var b strings.Builder
	for {
		b.Reset()
		for range roomIDLength {
			b.WriteByte(roomIDAlphabet[m.opts.Rand.IntN(len(roomIDAlphabet))])
		}
		if _, taken := m.rooms[b.String()]; !taken {
			return b.String()
		}
	}
}

func (m *Manager) sendToUser(userID string, msg protocol.Message) {
	if connID, ok := m.identity.ConnFor(userID); ok {
		m.notifier.Send(connID, msg)
	}
}

// sendToRoom delivers msg to every member except skip.
func (m *Manager) sendToRoom(room *Room, msg protocol.Message, skip string) {
	for _, member := range room.members {
		if member.UserID == skip {
			continue
		}
		m.sendToUser(member.UserID, msg)
	}
}
