package models

// LogType classifies a history entry.
type LogType string

const (
	LogPlay     LogType = "PLAY"
	LogDraw     LogType = "DRAW"
	LogPass     LogType = "PASS"
	LogGameOver LogType = "GAME_OVER"
)

// LogEntry is one line of the append-only audit history.
type LogEntry struct {
	ID          string  `json:"id"`
	Timestamp   int64   `json:"timestamp"`
	PlayerID    int     `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	Type        LogType `json:"type"`
	Description string  `json:"description"`
}

// ChatMessage is relayed through the host and appended to the chat log.
type ChatMessage struct {
	ID         string `json:"id"`
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}
