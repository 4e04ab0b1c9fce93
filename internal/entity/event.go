package entity

import "time"

// Outbound event actions. Names match the wire protocol consumed by clients.
const (
	ActionYouAreFirstPlayer = "youAreFirstPlayer"
	ActionGameDeck          = "gameDeck"
	ActionSetWordGrid       = "setWordGrid"
	ActionTurnChanged       = "turnChanged"
	ActionCardFlipped       = "cardFlipped"
	ActionCardsMatched      = "cardsMatched"
	ActionCardsUnmatched    = "cardsUnmatched"
	ActionMatchScored       = "matchScored"
	ActionWordScored        = "wordScored"
	ActionUpdateScore       = "updateScore"
	ActionInitialScores     = "initialScores"
	ActionUpdatePlayers     = "updatePlayers"
	ActionGuessResult       = "guessResult"
	ActionGameOver          = "gameOver"
	ActionNotYourTurn       = "notYourTurn"
	ActionError             = "error"
)

// Event - an outbound notification produced by a session state transition.
// An empty To means the event is broadcast to the whole room; otherwise it is
// delivered only to the named player. Delay postpones delivery; the scheduler
// must re-enter the room's serialization point before delivering.
type Event struct {
	Action  string
	To      string
	Payload any
	Delay   time.Duration
}

func broadcast(action string, payload any) Event {
	return Event{Action: action, Payload: payload}
}

func unicast(to, action string, payload any) Event {
	return Event{Action: action, To: to, Payload: payload}
}

type CardFlippedPayload struct {
	CardIndex int    `json:"cardIndex"`
	By        string `json:"by"`
}

type CardsUnmatchedPayload struct {
	CardsToFlipBack []int `json:"cardsToFlipBack"`
}

type MatchScoredPayload struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

type WordScoredPayload struct {
	PlayerID string `json:"playerId"`
	Word     string `json:"word"`
	Points   int    `json:"points"`
}

type UpdateScorePayload struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

type GuessResultPayload struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Score   int    `json:"score"`
}

type GameOverPayload struct {
	WinnerID string `json:"winnerId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
