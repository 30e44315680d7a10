// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
// Unknown rooms and bad host tokens are refused before the upgrade with plain HTTP errors.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	RoomClosedError     = 3002 // Room shut down while the client was connecting.
)
