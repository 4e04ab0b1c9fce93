package websocket

import (
	"encoding/json"

	"github.com/jarvisluke416/TripleTry/internal/game"
)

// Message represents an inbound WebSocket message with an action type and a
// raw payload decoded per action.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// response is the outbound envelope mirroring Message.
type response struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type SubmitGridPayload struct {
	RoomID string    `json:"roomId"`
	Grid   game.Grid `json:"grid"`
}

type FlipCardPayload struct {
	RoomID    string `json:"roomId"`
	CardIndex int    `json:"cardIndex"`
}

type PassTurnPayload struct {
	RoomID string `json:"roomId"`
}

type GuessPayload struct {
	RoomID string `json:"roomId"`
	Guess  string `json:"guess"`
}

type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}
