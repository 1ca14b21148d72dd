package protocol

// EventType names a message on the wire.
type EventType string

// Client to server.
const (
	EventGetRoomList      EventType = "getRoomList"
	EventCreateRoom       EventType = "createRoom"
	EventJoinRoom         EventType = "joinRoom"
	EventLeaveRoom        EventType = "leaveRoom"
	EventStartGame        EventType = "startGame"
	EventTetrisPageLoaded EventType = "tetrisPageLoaded"
	EventLineCleared      EventType = "lineCleared"
	EventUpdateGameState  EventType = "updateGameState"
	EventGameOver         EventType = "gameOver"
	EventRestartGame      EventType = "restartGame"
)

// Server to client.
const (
	EventRoomListResponse      EventType = "roomListResponse"
	EventRoomListUpdated       EventType = "roomListUpdated"
	EventRoomCreated           EventType = "roomCreated"
	EventRoomCreateError       EventType = "roomCreateError"
	EventJoinRoomSuccess       EventType = "joinRoomSuccess"
	EventJoinRoomError         EventType = "joinRoomError"
	EventPlayerJoined          EventType = "playerJoined"
	EventPlayerLeft            EventType = "playerLeft"
	EventPlayerDisconnect      EventType = "playerDisconnect"
	EventGameStartConfirmation EventType = "gameStartConfirmation"
	EventMoveToTetrisPage      EventType = "moveToTetrisPage"
	EventGameStart             EventType = "gameStart"
	EventTargetAssigned        EventType = "targetAssigned"
	EventReceiveGarbage        EventType = "receiveGarbage"
	EventGameStateUpdate       EventType = "gameStateUpdate"
	EventPlayerGameOver        EventType = "playerGameOver"
	EventGameWin               EventType = "gameWin"
	EventPlayerRestarted       EventType = "playerRestarted"
	EventGameRestart           EventType = "gameRestart"
	EventError                 EventType = "error"
)
