package protocol

import "encoding/json"

// Message is a server-to-client payload.
type Message interface {
	Event() EventType
}

// PlayerView is a room member as seen by clients.
type PlayerView struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// RoomView is the full room description sent on create and join.
type RoomView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	IsPrivate  bool         `json:"isPrivate"`
	MaxPlayers int          `json:"maxPlayers"`
	Status     string       `json:"status"`
	HostID     string       `json:"hostId"`
	Players    []PlayerView `json:"players"`
}

// RoomSummary is one entry of the public room listing.
type RoomSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	IsPrivate        bool   `json:"isPrivate"`
	MaxPlayers       int    `json:"maxPlayers"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participantCount"`
	HostID           string `json:"hostId"`
}

// RoomListResponse encodes as a bare JSON array.
type RoomListResponse []RoomSummary

func (RoomListResponse) Event() EventType { return EventRoomListResponse }

type RoomListUpdated struct{}

func (RoomListUpdated) Event() EventType { return EventRoomListUpdated }

type RoomCreated struct {
	RoomID string   `json:"roomId"`
	Room   RoomView `json:"room"`
}

func (RoomCreated) Event() EventType { return EventRoomCreated }

type RoomCreateError struct {
	Message string `json:"message"`
}

func (RoomCreateError) Event() EventType { return EventRoomCreateError }

type JoinRoomSuccess struct {
	RoomID string   `json:"roomId"`
	Room   RoomView `json:"room"`
}

func (JoinRoomSuccess) Event() EventType { return EventJoinRoomSuccess }

type JoinRoomError struct {
	Message string `json:"message"`
}

func (JoinRoomError) Event() EventType { return EventJoinRoomError }

type PlayerJoined struct {
	RoomID  string       `json:"roomId"`
	Player  PlayerView   `json:"player"`
	HostID  string       `json:"hostId"`
	Players []PlayerView `json:"players"`
}

func (PlayerJoined) Event() EventType { return EventPlayerJoined }

type PlayerLeft struct {
	RoomID  string       `json:"roomId"`
	UserID  string       `json:"userId"`
	HostID  string       `json:"hostId"`
	Players []PlayerView `json:"players"`
}

func (PlayerLeft) Event() EventType { return EventPlayerLeft }

// PlayerDisconnect carries the departed user's id as the whole payload.
type PlayerDisconnect string

func (PlayerDisconnect) Event() EventType { return EventPlayerDisconnect }

const (
	StartStatusSuccess = "success"
	StartStatusError   = "error"
)

type GameStartConfirmation struct {
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount,omitempty"`
}

func (GameStartConfirmation) Event() EventType { return EventGameStartConfirmation }

type MoveToTetrisPage struct {
	RoomID string `json:"roomId"`
}

func (MoveToTetrisPage) Event() EventType { return EventMoveToTetrisPage }

type GameStart struct{}

func (GameStart) Event() EventType { return EventGameStart }

type TargetAssigned struct {
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

func (TargetAssigned) Event() EventType { return EventTargetAssigned }

type ReceiveGarbage struct {
	Lines int `json:"lines"`
}

func (ReceiveGarbage) Event() EventType { return EventReceiveGarbage }

type GameStateUpdate struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	GameState  GameState `json:"gameState"`
}

func (GameStateUpdate) Event() EventType { return EventGameStateUpdate }

type PlayerGameOver struct {
	PlayerID   string `json:"playerId"`
	Score      int    `json:"score"`
	IsGameOver bool   `json:"isGameOver"`
}

func (PlayerGameOver) Event() EventType { return EventPlayerGameOver }

// Winner identifies the last player standing.
type Winner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GameWin struct {
	Winner  Winner       `json:"winner"`
	Players []PlayerView `json:"players"`
}

func (GameWin) Event() EventType { return EventGameWin }

type PlayerRestarted struct {
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	RestartedCount int    `json:"restartedCount"`
	TotalPlayers   int    `json:"totalPlayers"`
}

func (PlayerRestarted) Event() EventType { return EventPlayerRestarted }

type GameRestart struct{}

func (GameRestart) Event() EventType { return EventGameRestart }

// Error reports a frame the server could not accept.
type Error struct {
	Message string `json:"message"`
}

func (Error) Event() EventType { return EventError }

// Envelope is the JSON frame carrying every message in both directions.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
