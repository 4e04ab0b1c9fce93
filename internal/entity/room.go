package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jarvisluke416/TripleTry/internal/apperror"
	"github.com/jarvisluke416/TripleTry/internal/game"
)

const (
	StatusAwaitingGrid = "awaiting_grid"
	StatusAwaitingDeck = "awaiting_deck"
	StatusInTurn       = "in_turn"
	StatusTurnPending  = "turn_pending"
	StatusGameOver     = "game_over"
)

// turnUnset - sentinel turn index before the first player joins.
const turnUnset = -1

const maxPendingFlips = 2

// Rules - per-room gameplay constants, derived from configuration.
type Rules struct {
	Rows int
	Cols int

	MatchBonus   int
	WordBonus    int
	WordPenalty  int
	ImageBonus   int
	ImagePenalty int

	ImageAnswer string

	FlipBackDelay time.Duration
}

// Room - the full mutable state of one game session. Join order is turn
// order. None of the methods synchronize; the caller must serialize all
// access to a room, one event at a time.
type Room struct {
	ID           string
	Players      []*Player
	TurnIndex    int
	Deck         []string
	Grid         game.Grid
	GuessedWords map[string]bool
	PendingFlips map[string][]int
	RemovedCards map[int]bool
	Scores       map[string]int
	Status       string
	Winner       string
	Rules        Rules
	CreatedAt    time.Time
}

func NewRoom(id string, rules Rules) *Room {
	return &Room{
		ID:           id,
		TurnIndex:    turnUnset,
		GuessedWords: make(map[string]bool),
		PendingFlips: make(map[string][]int),
		RemovedCards: make(map[int]bool),
		Scores:       make(map[string]int),
		Status:       StatusAwaitingGrid,
		Rules:        rules,
		CreatedAt:    time.Now(),
	}
}

// AddPlayer - appends a player to the roster unless already present. The
// first player ever added becomes the turn holder.
func (that *Room) AddPlayer(player *Player) []Event {
	for _, existing := range that.Players {
		if existing.ID == player.ID {
			return that.joinEvents(player.ID)
		}
	}

	that.Players = append(that.Players, player)
	if _, ok := that.Scores[player.ID]; !ok {
		that.Scores[player.ID] = 0
	}

	if that.TurnIndex == turnUnset {
		that.TurnIndex = 0
	}

	return that.joinEvents(player.ID)
}

// joinEvents - roster update for everyone, plus state snapshots for the
// joining player when the game is already underway.
func (that *Room) joinEvents(playerID string) []Event {
	events := []Event{
		broadcast(ActionUpdatePlayers, that.Roster()),
		broadcast(ActionInitialScores, that.ScoreSnapshot()),
	}

	if that.Grid != nil {
		events = append(events, unicast(playerID, ActionSetWordGrid, that.Grid))
	}
	if that.Deck != nil {
		events = append(events, unicast(playerID, ActionGameDeck, that.Deck))
	}
	if holder := that.TurnHolder(); holder != nil {
		events = append(events, unicast(playerID, ActionTurnChanged, holder.ID))
	}

	return events
}

// RemovePlayer - drops a player from the roster. A vanished turn holder
// never deadlocks the room: the turn advances past them immediately. Returns
// the events to emit and whether the room is now empty.
func (that *Room) RemovePlayer(playerID string) ([]Event, bool) {
	idx := -1
	for i, player := range that.Players {
		if player.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, len(that.Players) == 0
	}

	wasHolder := idx == that.TurnIndex

	that.Players = append(that.Players[:idx], that.Players[idx+1:]...)
	delete(that.PendingFlips, playerID)

	if len(that.Players) == 0 {
		return nil, true
	}

	if idx < that.TurnIndex {
		that.TurnIndex--
	}
	if that.TurnIndex >= len(that.Players) {
		that.TurnIndex = 0
	}

	events := []Event{broadcast(ActionUpdatePlayers, that.Roster())}

	if wasHolder {
		// A disconnect mid-turn is an implicit pass.
		if that.Status == StatusTurnPending {
			that.Status = StatusInTurn
		}
		events = append(events, broadcast(ActionTurnChanged, that.Players[that.TurnIndex].ID))
	}

	return events, false
}

// SetGrid - first-writer-wins: the grid is accepted exactly once per game,
// late or malformed submissions are rejected without mutation.
func (that *Room) SetGrid(grid game.Grid) error {
	if that.Grid != nil {
		return apperror.ErrGridAlreadySet
	}

	if err := game.ValidateShape(grid, that.Rules.Rows, that.Rules.Cols); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrBadGridShape, err)
	}

	that.Grid = grid
	that.Status = StatusAwaitingDeck

	return nil
}

// SetDeck - installs the generated deck and opens play.
func (that *Room) SetDeck(deck []string) []Event {
	that.Deck = deck
	that.Status = StatusInTurn

	events := []Event{
		broadcast(ActionSetWordGrid, that.Grid),
		broadcast(ActionGameDeck, that.Deck),
	}
	if holder := that.TurnHolder(); holder != nil {
		events = append(events, broadcast(ActionTurnChanged, holder.ID))
	}

	return events
}

// FlipCard - the two-phase flip protocol. The first flip is buffered; the
// second resolves to a match (turn retained, cards retired) or a mismatch
// (turn pending until the player chooses pass / guess word / guess image).
func (that *Room) FlipCard(playerID string, cardIndex int) ([]Event, error) {
	if that.Status == StatusGameOver {
		return nil, apperror.ErrGameFinished
	}
	if that.Deck == nil {
		return nil, apperror.ErrGridNotReady
	}
	if !that.isTurnHolder(playerID) {
		return nil, apperror.ErrNotYourTurn
	}
	if that.Status == StatusTurnPending {
		// The player owes an action before flipping again.
		return nil, nil
	}

	if cardIndex < 0 || cardIndex >= len(that.Deck) {
		return []Event{unicast(playerID, ActionError, ErrorPayload{Error: "card index out of range"})}, nil
	}

	buffer := that.PendingFlips[playerID]
	if len(buffer) >= maxPendingFlips || that.RemovedCards[cardIndex] || contains(buffer, cardIndex) {
		return nil, nil
	}

	buffer = append(buffer, cardIndex)
	that.PendingFlips[playerID] = buffer

	events := []Event{broadcast(ActionCardFlipped, CardFlippedPayload{CardIndex: cardIndex, By: playerID})}

	if len(buffer) < maxPendingFlips {
		return events, nil
	}

	first, second := buffer[0], buffer[1]
	that.PendingFlips[playerID] = nil

	if that.Deck[first] != that.Deck[second] {
		that.Status = StatusTurnPending
		events = append(events, Event{
			Action:  ActionCardsUnmatched,
			Payload: CardsUnmatchedPayload{CardsToFlipBack: []int{first, second}},
			Delay:   that.Rules.FlipBackDelay,
		})
		return events, nil
	}

	that.RemovedCards[first] = true
	that.RemovedCards[second] = true
	that.Scores[playerID] += that.Rules.MatchBonus

	events = append(events,
		broadcast(ActionCardsMatched, []int{first, second}),
		broadcast(ActionMatchScored, MatchScoredPayload{PlayerID: playerID, Points: that.Rules.MatchBonus}),
		broadcast(ActionUpdateScore, UpdateScorePayload{PlayerID: playerID, Score: that.Scores[playerID]}),
	)

	return events, nil
}

// GuessWord - verifies a word against the hidden grid. Success clears the
// matched cells and keeps the turn with the guesser; failure costs the
// penalty and passes the turn. A word already found is rejected outright so
// it can never score twice.
func (that *Room) GuessWord(playerID, guess string) ([]Event, error) {
	if that.Status == StatusGameOver {
		return nil, apperror.ErrGameFinished
	}
	if that.Grid == nil {
		return nil, apperror.ErrGridNotReady
	}
	if !that.isTurnHolder(playerID) {
		return nil, apperror.ErrNotYourTurn
	}

	guess = strings.ToUpper(strings.TrimSpace(guess))
	if that.GuessedWords[guess] {
		return nil, apperror.ErrWordAlreadyFound
	}

	cells, found := game.FindWord(that.Grid, guess)
	if !found {
		that.Scores[playerID] -= that.Rules.WordPenalty

		events := []Event{
			unicast(playerID, ActionGuessResult, GuessResultPayload{
				Valid:   false,
				Message: fmt.Sprintf("%q is not on the board", guess),
				Score:   that.Scores[playerID],
			}),
			broadcast(ActionUpdateScore, UpdateScorePayload{PlayerID: playerID, Score: that.Scores[playerID]}),
		}

		return append(events, that.advanceTurn()...), nil
	}

	game.RemoveCells(that.Grid, cells)
	that.GuessedWords[guess] = true
	that.Scores[playerID] += that.Rules.WordBonus
	if that.Status == StatusTurnPending {
		that.Status = StatusInTurn
	}

	events := []Event{
		unicast(playerID, ActionGuessResult, GuessResultPayload{
			Valid:   true,
			Message: fmt.Sprintf("you found %q", guess),
			Score:   that.Scores[playerID],
		}),
		broadcast(ActionWordScored, WordScoredPayload{PlayerID: playerID, Word: guess, Points: that.Rules.WordBonus}),
		broadcast(ActionUpdateScore, UpdateScorePayload{PlayerID: playerID, Score: that.Scores[playerID]}),
		broadcast(ActionSetWordGrid, that.Grid),
	}

	if game.IsEmpty(that.Grid) {
		return append(events, that.finish(playerID)...), nil
	}

	return events, nil
}

// GuessImage - the side-channel win condition: a case-normalized exact match
// against the room's secret answer ends the game immediately.
func (that *Room) GuessImage(playerID, guess string) ([]Event, error) {
	if that.Status == StatusGameOver {
		return nil, apperror.ErrGameFinished
	}
	if !that.isTurnHolder(playerID) {
		return nil, apperror.ErrNotYourTurn
	}

	guess = strings.ToUpper(strings.TrimSpace(guess))
	answer := strings.ToUpper(strings.TrimSpace(that.Rules.ImageAnswer))

	if guess != answer {
		that.Scores[playerID] -= that.Rules.ImagePenalty

		events := []Event{
			unicast(playerID, ActionGuessResult, GuessResultPayload{
				Valid:   false,
				Message: "that is not the hidden picture",
				Score:   that.Scores[playerID],
			}),
			broadcast(ActionUpdateScore, UpdateScorePayload{PlayerID: playerID, Score: that.Scores[playerID]}),
		}

		return append(events, that.advanceTurn()...), nil
	}

	that.Scores[playerID] += that.Rules.ImageBonus

	events := []Event{
		unicast(playerID, ActionGuessResult, GuessResultPayload{
			Valid:   true,
			Message: "you guessed the hidden picture",
			Score:   that.Scores[playerID],
		}),
		broadcast(ActionUpdateScore, UpdateScorePayload{PlayerID: playerID, Score: that.Scores[playerID]}),
	}

	return append(events, that.finish(playerID)...), nil
}

// Pass - the turn holder hands the turn to the next player with no score
// change.
func (that *Room) Pass(playerID string) ([]Event, error) {
	if that.Status == StatusGameOver {
		return nil, apperror.ErrGameFinished
	}
	if !that.isTurnHolder(playerID) {
		return nil, apperror.ErrNotYourTurn
	}

	return that.advanceTurn(), nil
}

func (that *Room) advanceTurn() []Event {
	if len(that.Players) == 0 {
		return nil
	}

	that.TurnIndex = (that.TurnIndex + 1) % len(that.Players)
	that.Status = StatusInTurn

	return []Event{broadcast(ActionTurnChanged, that.Players[that.TurnIndex].ID)}
}

func (that *Room) finish(winnerID string) []Event {
	that.Status = StatusGameOver
	that.Winner = winnerID

	return []Event{broadcast(ActionGameOver, GameOverPayload{WinnerID: winnerID})}
}

// ResetForNewGame - clears all per-game state for a fresh round while the
// roster persists. The deck and grid must be generated anew by the caller.
func (that *Room) ResetForNewGame() {
	that.Deck = nil
	that.Grid = nil
	that.GuessedWords = make(map[string]bool)
	that.PendingFlips = make(map[string][]int)
	that.RemovedCards = make(map[int]bool)
	that.Winner = ""
	that.Status = StatusAwaitingGrid

	for id := range that.Scores {
		that.Scores[id] = 0
	}

	if len(that.Players) > 0 {
		that.TurnIndex = 0
	} else {
		that.TurnIndex = turnUnset
	}
}

// TurnHolder - the single player currently authorized to act, or nil.
func (that *Room) TurnHolder() *Player {
	if that.TurnIndex < 0 || that.TurnIndex >= len(that.Players) {
		return nil
	}
	return that.Players[that.TurnIndex]
}

func (that *Room) isTurnHolder(playerID string) bool {
	holder := that.TurnHolder()
	return holder != nil && holder.ID == playerID
}

// Roster - the players in join order.
func (that *Room) Roster() []*Player {
	roster := make([]*Player, len(that.Players))
	copy(roster, that.Players)
	return roster
}

// ScoreSnapshot - a copy of the score table for resync messages.
func (that *Room) ScoreSnapshot() map[string]int {
	snapshot := make(map[string]int, len(that.Scores))
	for id, score := range that.Scores {
		snapshot[id] = score
	}
	return snapshot
}

func contains(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
