package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned by Decode for an unrecognised message type.
var ErrUnknownEvent = errors.New("unknown event")

// Encode wraps a message in an envelope.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", msg.Event(), err)
	}
	return json.Marshal(Envelope{Type: msg.Event(), Data: data})
}

// Decode parses a client frame into its typed request and validates it.
func Decode(frame []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var req Request
	switch env.Type {
	case EventGetRoomList:
		req = &GetRoomList{}
	case EventCreateRoom:
		req = &CreateRoom{}
	case EventJoinRoom:
		req = &JoinRoom{}
	case EventLeaveRoom:
		req = &LeaveRoom{}
	case EventStartGame:
		req = &StartGame{}
	case EventTetrisPageLoaded:
		req = &TetrisPageLoaded{}
	case EventLineCleared:
		req = &LineCleared{}
	case EventUpdateGameState:
		req = &UpdateGameState{}
	case EventGameOver:
		req = &GameOver{}
	case EventRestartGame:
		req = &RestartGame{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, req); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", env.Type, err)
	}
	return req, nil
}
