package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunablock/lunablock-server/internal/config"
	"github.com/lunablock/lunablock-server/internal/protocol"
	"github.com/lunablock/lunablock-server/internal/room"
	"github.com/lunablock/lunablock-server/internal/session"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Address:         ":0",
		AllowedOrigins:  []string{"*"},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteWait:       time.Second,
		PongWait:        10 * time.Second,
		MaxMessageSize:  64 * 1024,
		SendBuffer:      64,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*httptest.Server, *room.Manager) {
	t.Helper()
	logger := zap.NewNop()
	hub := NewHub(logger)
	identity := session.NewRegistry()

	opts := room.DefaultOptions()
	opts.PasswordCost = bcrypt.MinCost
	rooms := room.NewManager(identity, hub, opts, logger)

	srv := httptest.NewServer(New(cfg, hub, rooms, identity, logger).Routes())
	t.Cleanup(srv.Close)
	t.Cleanup(rooms.Close)
	return srv, rooms
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(event protocol.EventType, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	frame, err := json.Marshal(protocol.Envelope{Type: event, Data: raw})
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

// expect reads frames until one of the given type arrives and decodes its
// payload into out.
func (c *wsClient) expect(event protocol.EventType, out any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, frame, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", event)

		var env protocol.Envelope
		require.NoError(c.t, json.Unmarshal(frame, &env))
		if env.Type != event {
			continue
		}
		if out != nil {
			require.NoError(c.t, json.Unmarshal(env.Data, out))
		}
		return
	}
}

func createRoom(t *testing.T, c *wsClient, userID string) string {
	t.Helper()
	c.send(protocol.EventCreateRoom, protocol.CreateRoom{UserID: userID, Nickname: userID})
	var created protocol.RoomCreated
	c.expect(protocol.EventRoomCreated, &created)
	require.NotEmpty(t, created.RoomID)
	return created.RoomID
}

func joinRoom(t *testing.T, c *wsClient, roomID, userID string) {
	t.Helper()
	c.send(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: roomID, UserID: userID, Nickname: userID})
	var joined protocol.JoinRoomSuccess
	c.expect(protocol.EventJoinRoomSuccess, &joined)
	require.Equal(t, roomID, joined.RoomID)
}

func TestHTTPRoutes(t *testing.T) {
	srv, rooms := newTestServer(t, testServerConfig())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Luna-Block backend is running", string(body))

	_, err = rooms.CreateRoom("conn-x", protocol.CreateRoom{UserID: "alice", Nickname: "Alice"})
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []protocol.RoomSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].HostID)
	assert.Equal(t, 1, list[0].ParticipantCount)
}

func TestMatchFlow(t *testing.T) {
	srv, _ := newTestServer(t, testServerConfig())
	alice := dial(t, srv)
	bob := dial(t, srv)

	roomID := createRoom(t, alice, "alice")
	joinRoom(t, bob, roomID, "bob")

	var joined protocol.PlayerJoined
	alice.expect(protocol.EventPlayerJoined, &joined)
	assert.Equal(t, "bob", joined.Player.UserID)
	assert.Len(t, joined.Players, 2)

	alice.send(protocol.EventStartGame, protocol.StartGame{RoomID: roomID, UserID: "alice"})

	var target protocol.TargetAssigned
	bob.expect(protocol.EventTargetAssigned, &target)
	assert.Equal(t, "alice", target.TargetID)
	bob.expect(protocol.EventMoveToTetrisPage, nil)
	bob.expect(protocol.EventGameStart, nil)

	var confirm protocol.GameStartConfirmation
	alice.expect(protocol.EventGameStartConfirmation, &confirm)
	assert.Equal(t, protocol.StartStatusSuccess, confirm.Status)
	assert.Equal(t, 2, confirm.ParticipantCount)

	alice.send(protocol.EventLineCleared, protocol.LineCleared{RoomID: roomID, LinesCleared: 4})
	var garbage protocol.ReceiveGarbage
	bob.expect(protocol.EventReceiveGarbage, &garbage)
	assert.Equal(t, 4, garbage.Lines)

	bob.send(protocol.EventGameOver, protocol.GameOver{RoomID: roomID, Score: 300})
	var over protocol.PlayerGameOver
	alice.expect(protocol.EventPlayerGameOver, &over)
	assert.Equal(t, "bob", over.PlayerID)
	assert.Equal(t, 300, over.Score)

	var win protocol.GameWin
	alice.expect(protocol.EventGameWin, &win)
	assert.Equal(t, "alice", win.Winner.ID)
	bob.expect(protocol.EventGameWin, nil)

	alice.send(protocol.EventRestartGame, protocol.RestartGame{RoomID: roomID})
	bob.send(protocol.EventRestartGame, protocol.RestartGame{RoomID: roomID})
	alice.expect(protocol.EventGameRestart, nil)
	bob.expect(protocol.EventGameRestart, nil)
}

func TestRejections(t *testing.T) {
	srv, _ := newTestServer(t, testServerConfig())
	alice := dial(t, srv)
	bob := dial(t, srv)

	t.Run("malformed frame", func(t *testing.T) {
		require.NoError(t, alice.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		var msg protocol.Error
		alice.expect(protocol.EventError, &msg)
		assert.NotEmpty(t, msg.Message)
	})

	t.Run("unknown event", func(t *testing.T) {
		alice.send("teleport", map[string]string{})
		var msg protocol.Error
		alice.expect(protocol.EventError, &msg)
		assert.Contains(t, msg.Message, "unknown event")
	})

	t.Run("create without identity", func(t *testing.T) {
		alice.send(protocol.EventCreateRoom, protocol.CreateRoom{RoomName: "nobody"})
		var msg protocol.RoomCreateError
		alice.expect(protocol.EventRoomCreateError, &msg)
		assert.Equal(t, room.ErrMissingIdentity.Error(), msg.Message)
	})

	t.Run("join missing room", func(t *testing.T) {
		bob.send(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: "NOPE1", UserID: "bob", Nickname: "bob"})
		var msg protocol.JoinRoomError
		bob.expect(protocol.EventJoinRoomError, &msg)
		assert.Equal(t, room.ErrRoomNotFound.Error(), msg.Message)
	})

	t.Run("bound identity wins over payload", func(t *testing.T) {
		roomID := createRoom(t, alice, "alice")
		joinRoom(t, bob, roomID, "bob")

		bob.send(protocol.EventStartGame, protocol.StartGame{RoomID: roomID, UserID: "alice"})
		var confirm protocol.GameStartConfirmation
		bob.expect(protocol.EventGameStartConfirmation, &confirm)
		assert.Equal(t, protocol.StartStatusError, confirm.Status)
		assert.Equal(t, room.ErrNotHost.Error(), confirm.Error)
		assert.Equal(t, roomID, confirm.RoomID)
	})
}

func TestDisconnectLeavesRooms(t *testing.T) {
	srv, rooms := newTestServer(t, testServerConfig())
	alice := dial(t, srv)
	bob := dial(t, srv)

	roomID := createRoom(t, alice, "alice")
	joinRoom(t, bob, roomID, "bob")

	require.NoError(t, alice.conn.Close())

	var left protocol.PlayerLeft
	bob.expect(protocol.EventPlayerLeft, &left)
	assert.Equal(t, "alice", left.UserID)
	assert.Equal(t, "bob", left.HostID)

	var gone protocol.PlayerDisconnect
	bob.expect(protocol.EventPlayerDisconnect, &gone)
	assert.Equal(t, protocol.PlayerDisconnect("alice"), gone)

	view, ok := rooms.Room(roomID)
	require.True(t, ok)
	assert.Len(t, view.Players, 1)
}

func TestOriginCheck(t *testing.T) {
	cfg := testServerConfig()
	cfg.AllowedOrigins = []string{"https://luna.example"}
	srv, _ := newTestServer(t, cfg)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://luna.example")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	conn.Close()
}
