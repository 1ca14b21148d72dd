package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunablock/lunablock-server/internal/protocol"
	"github.com/lunablock/lunablock-server/internal/session"
)

type delivery struct {
	connID string
	msg    protocol.Message
}

type recordingNotifier struct {
	mu         sync.Mutex
	sent       []delivery
	broadcasts []protocol.Message
}

func (n *recordingNotifier) Send(connID string, msg protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, delivery{connID: connID, msg: msg})
}

func (n *recordingNotifier) Broadcast(msg protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, msg)
}

func (n *recordingNotifier) to(connID string) []protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []protocol.Message
	for _, d := range n.sent {
		if d.connID == connID {
			out = append(out, d.msg)
		}
	}
	return out
}

func (n *recordingNotifier) events(connID string) []protocol.EventType {
	var out []protocol.EventType
	for _, msg := range n.to(connID) {
		out = append(out, msg.Event())
	}
	return out
}

func (n *recordingNotifier) broadcastCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.broadcasts)
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
	n.broadcasts = nil
}

// ofType returns the messages sent to connID with the given concrete type.
func ofType[T protocol.Message](n *recordingNotifier, connID string) []T {
	var out []T
	for _, msg := range n.to(connID) {
		if typed, ok := msg.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

type manualTask struct {
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() { t.stopped = true }

type manualScheduler struct {
	tasks []*manualTask
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) Task {
	t := &manualTask{fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) fire() {
	for _, t := range s.tasks {
		if !t.stopped {
			t.fn()
		}
	}
}

func (s *manualScheduler) active() int {
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// stubRand cycles IntN results and returns a fixed Float64.
type stubRand struct {
	next  int
	float float64
}

func (r *stubRand) IntN(n int) int {
	r.next++
	return r.next % n
}

func (r *stubRand) Float64() float64 { return r.float }

type fixture struct {
	manager  *Manager
	notifier *recordingNotifier
	sched    *manualScheduler
	rng      *stubRand
	identity *session.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		notifier: &recordingNotifier{},
		sched:    &manualScheduler{},
		rng:      &stubRand{float: 0.99},
		identity: session.NewRegistry(),
	}
	opts := DefaultOptions()
	opts.Rand = f.rng
	opts.Scheduler = f.sched
	opts.PasswordCost = bcrypt.MinCost
	f.manager = NewManager(f.identity, f.notifier, opts, zaptest.NewLogger(t))
	return f
}

func conn(userID string) string { return "conn-" + userID }

func (f *fixture) create(t *testing.T, userID string, maxPlayers int) string {
	t.Helper()
	view, err := f.manager.CreateRoom(conn(userID), protocol.CreateRoom{
		MaxPlayers: maxPlayers,
		UserID:     userID,
		Nickname:   userID,
	})
	require.NoError(t, err)
	return view.ID
}

func (f *fixture) join(t *testing.T, roomID, userID string) {
	t.Helper()
	_, err := f.manager.JoinRoom(conn(userID), protocol.JoinRoom{
		RoomID:   roomID,
		UserID:   userID,
		Nickname: userID,
	})
	require.NoError(t, err)
}

// match creates a room hosted by the first user, seats the rest and starts it.
func (f *fixture) match(t *testing.T, users ...string) string {
	t.Helper()
	id := f.create(t, users[0], 0)
	for _, u := range users[1:] {
		f.join(t, id, u)
	}
	_, err := f.manager.StartGame(id, users[0])
	require.NoError(t, err)
	f.notifier.reset()
	return id
}

func (f *fixture) room(id string) *Room {
	f.manager.mu.Lock()
	defer f.manager.mu.Unlock()
	return f.manager.rooms[id]
}
