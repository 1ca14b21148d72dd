package protocol

import (
	"errors"
	"fmt"
)

var errRoomIDRequired = errors.New("roomId is required")

// Request is a decoded client message.
type Request interface {
	Event() EventType
	Validate() error
}

type GetRoomList struct{}

func (GetRoomList) Event() EventType { return EventGetRoomList }
func (GetRoomList) Validate() error  { return nil }

// CreateRoom asks for a new room. Identity checks happen in the room manager so
// the caller gets a roomCreateError rather than a generic error.
type CreateRoom struct {
	RoomName   string `json:"roomName"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	Password   string `json:"password"`
	UserID     string `json:"userId"`
	Nickname   string `json:"nickname"`
}

func (CreateRoom) Event() EventType { return EventCreateRoom }

func (r CreateRoom) Validate() error {
	if r.MaxPlayers < 0 {
		return fmt.Errorf("maxPlayers must not be negative")
	}
	return nil
}

type JoinRoom struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

func (JoinRoom) Event() EventType { return EventJoinRoom }
func (JoinRoom) Validate() error  { return nil }

type LeaveRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (LeaveRoom) Event() EventType { return EventLeaveRoom }

func (r LeaveRoom) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	if r.UserID == "" {
		return errors.New("userId is required")
	}
	return nil
}

type StartGame struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (StartGame) Event() EventType { return EventStartGame }

func (r StartGame) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	return nil
}

type TetrisPageLoaded struct {
	RoomID string `json:"roomId"`
}

func (TetrisPageLoaded) Event() EventType { return EventTetrisPageLoaded }

func (r TetrisPageLoaded) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	return nil
}

type LineCleared struct {
	RoomID       string `json:"roomId"`
	LinesCleared int    `json:"linesCleared"`
}

func (LineCleared) Event() EventType { return EventLineCleared }

func (r LineCleared) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	if r.LinesCleared < 0 {
		return fmt.Errorf("linesCleared must not be negative")
	}
	return nil
}

type UpdateGameState struct {
	RoomID    string    `json:"roomId"`
	GameState GameState `json:"gameState"`
}

func (UpdateGameState) Event() EventType { return EventUpdateGameState }

func (r UpdateGameState) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	return r.GameState.Validate()
}

type GameOver struct {
	RoomID string `json:"roomId"`
	Score  int    `json:"score"`
}

func (GameOver) Event() EventType { return EventGameOver }

func (r GameOver) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	if r.Score < 0 {
		return fmt.Errorf("score must not be negative")
	}
	return nil
}

type RestartGame struct {
	RoomID string `json:"roomId"`
}

func (RestartGame) Event() EventType { return EventRestartGame }

func (r RestartGame) Validate() error {
	if r.RoomID == "" {
		return errRoomIDRequired
	}
	return nil
}
