package protocol

// Client -> server messages carried over the lobby websocket.
const (
	ClientStartGameInitiated = "start_game_initiated"
	ClientTransitioning      = "transitioning_to_game"
	ClientChatMessage        = "chat_message"
)

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	Message    string `json:"message,omitempty"`
}
