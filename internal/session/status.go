package session

import "errors"

// ConnStatus is the connection state surfaced to the user.
type ConnStatus string

const (
	StatusDisconnected ConnStatus = "DISCONNECTED"
	StatusConnecting   ConnStatus = "CONNECTING"
	StatusConnected    ConnStatus = "CONNECTED"
	StatusFailed       ConnStatus = "FAILED"
)

// User facing notices.
const (
	MsgHostTimeout        = "Connection timed out. The server may be busy."
	MsgRoomNotFound       = "Could not find room. Check code."
	MsgWaitingForHost     = "Waiting for host to start..."
	MsgConnectionLost     = "Connection to host lost."
	MsgPlayerDisconnected = "A player disconnected"
	MsgRoomFull           = "Room is full."
	MsgGameInProgress     = "Game already in progress."
	MsgNeedPlayers        = "Need at least 2 players."
	MsgHostOnly           = "Only the host can start the game."
)

var (
	ErrConnectFailed = errors.New("connection failed")
	ErrRoomNotFound  = errors.New("room not found")
	ErrAddressTaken  = errors.New("room address already taken")
	ErrRoomClosed    = errors.New("room is closed")
	ErrNotConnected  = errors.New("not connected")
	ErrBadFrame      = errors.New("malformed frame")
)
