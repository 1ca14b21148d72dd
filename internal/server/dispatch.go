package server

import (
	"go.uber.org/zap"

	"github.com/lunablock/lunablock-server/internal/protocol"
	"github.com/lunablock/lunablock-server/internal/room"
)

// dispatch decodes one inbound frame and routes it by event type.
func (s *Server) dispatch(connID string, frame []byte) {
	req, err := protocol.Decode(frame)
	if err != nil {
		s.logger.Debug("rejected frame",
			zap.String("conn_id", connID),
			zap.Error(err),
		)
		s.hub.Send(connID, protocol.Error{Message: err.Error()})
		return
	}

	switch r := req.(type) {
	case *protocol.GetRoomList:
		s.hub.Send(connID, protocol.RoomListResponse(s.rooms.ListRooms()))
	case *protocol.CreateRoom:
		s.handleCreateRoom(connID, r)
	case *protocol.JoinRoom:
		s.handleJoinRoom(connID, r)
	case *protocol.LeaveRoom:
		s.rooms.LeaveRoom(r.RoomID, s.actor(connID, r.UserID))
	case *protocol.StartGame:
		s.handleStartGame(connID, r)
	case *protocol.TetrisPageLoaded:
		if userID, ok := s.boundUser(connID, req); ok {
			s.rooms.PageLoaded(r.RoomID, userID)
		}
	case *protocol.LineCleared:
		if userID, ok := s.boundUser(connID, req); ok {
			s.rooms.ReportLinesCleared(r.RoomID, userID, r.LinesCleared)
		}
	case *protocol.UpdateGameState:
		if userID, ok := s.boundUser(connID, req); ok {
			s.rooms.UpdateGameState(r.RoomID, userID, r.GameState)
		}
	case *protocol.GameOver:
		if userID, ok := s.boundUser(connID, req); ok {
			s.rooms.ReportGameOver(r.RoomID, userID, r.Score)
		}
	case *protocol.RestartGame:
		if userID, ok := s.boundUser(connID, req); ok {
			s.rooms.RestartGame(r.RoomID, userID)
		}
	default:
		s.logger.Warn("unhandled request", zap.String("event", string(req.Event())))
	}
}

func (s *Server) handleCreateRoom(connID string, req *protocol.CreateRoom) {
	view, err := s.rooms.CreateRoom(connID, *req)
	if err != nil {
		s.logRejection("create room rejected", connID, err)
		s.hub.Send(connID, protocol.RoomCreateError{Message: err.Error()})
		return
	}
	s.hub.Send(connID, protocol.RoomCreated{RoomID: view.ID, Room: view})
}

func (s *Server) handleJoinRoom(connID string, req *protocol.JoinRoom) {
	view, err := s.rooms.JoinRoom(connID, *req)
	if err != nil {
		s.logRejection("join room rejected", connID, err)
		s.hub.Send(connID, protocol.JoinRoomError{Message: err.Error()})
		return
	}
	s.hub.Send(connID, protocol.JoinRoomSuccess{RoomID: view.ID, Room: view})
}

func (s *Server) handleStartGame(connID string, req *protocol.StartGame) {
	count, err := s.rooms.StartGame(req.RoomID, s.actor(connID, req.UserID))
	if err != nil {
		s.logRejection("start game rejected", connID, err)
		s.hub.Send(connID, protocol.GameStartConfirmation{
			Status: protocol.StartStatusError,
			Error:  err.Error(),
			RoomID: req.RoomID,
		})
		return
	}
	s.hub.Send(connID, protocol.GameStartConfirmation{
		Status:           protocol.StartStatusSuccess,
		RoomID:           req.RoomID,
		ParticipantCount: count,
	})
}

// actor resolves who is acting. A connection bound to a user always acts as
// that user, whatever userId the payload claims.
func (s *Server) actor(connID, claimed string) string {
	if userID, ok := s.identity.UserFor(connID); ok {
		return userID
	}
	return claimed
}

// boundUser returns the user bound to connID. Match events from unbound
// connections are ignored.
func (s *Server) boundUser(connID string, req protocol.Request) (string, bool) {
	userID, ok := s.identity.UserFor(connID)
	if !ok {
		s.logger.Debug("ignoring event from unbound connection",
			zap.String("conn_id", connID),
			zap.String("event", string(req.Event())),
		)
	}
	return userID, ok
}

func (s *Server) logRejection(msg, connID string, err error) {
	fields := []zap.Field{zap.String("conn_id", connID), zap.Error(err)}
	if room.IsValidationError(err) {
		s.logger.Debug(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}
