package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jarvisluke416/TripleTry/internal/apperror"
	"github.com/jarvisluke416/TripleTry/internal/config"
	"github.com/jarvisluke416/TripleTry/internal/entity"
	"github.com/jarvisluke416/TripleTry/internal/game"
)

// minDensityFloor - a finished grid below this letter density is served
// anyway but logged as degraded.
const minDensityFloor = 0.10

const generateTimeout = 30 * time.Second

type wordProvider interface {
	FetchCandidateWords(ctx context.Context, count int) ([]string, error)
}

type scoreRepo interface {
	SetScore(ctx context.Context, roomID, playerID string, score int) error
	GetScores(ctx context.Context, roomID string) (map[string]int, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

// Notifier - delivers outbound events to connected clients. Events with an
// empty To are broadcast to the whole room.
type Notifier interface {
	Publish(roomID string, event entity.Event)
}

// roomHandle - pairs a room with the mutex that serializes it. Every state
// transition for a room happens under this lock, one event at a time;
// different rooms proceed concurrently.
type roomHandle struct {
	mu   sync.Mutex
	room *entity.Room
}

// RoomManager - the room registry and the orchestrator of all session state
// transitions. Rooms are created on first join and destroyed the moment the
// last player leaves; a periodic sweep is a defensive backstop.
type RoomManager struct {
	logger *slog.Logger
	conf   config.Game
	words  wordProvider
	scores scoreRepo

	notifierMu sync.RWMutex
	notifier   Notifier

	mu    sync.RWMutex
	rooms map[string]*roomHandle
}

func NewRoomManager(logger *slog.Logger, conf config.Game, words wordProvider, scores scoreRepo) *RoomManager {
	return &RoomManager{
		logger: logger,
		conf:   conf,
		words:  words,
		scores: scores,
		rooms:  make(map[string]*roomHandle),
	}
}

// SetNotifier - wires the transport after construction; the manager and the
// websocket server depend on each other.
func (that *RoomManager) SetNotifier(notifier Notifier) {
	that.notifierMu.Lock()
	that.notifier = notifier
	that.notifierMu.Unlock()
}

func (that *RoomManager) rules() entity.Rules {
	return entity.Rules{
		Rows:          that.conf.Rows,
		Cols:          that.conf.Cols,
		MatchBonus:    that.conf.MatchBonus,
		WordBonus:     that.conf.WordBonus,
		WordPenalty:   that.conf.WordPenalty,
		ImageBonus:    that.conf.ImageBonus,
		ImagePenalty:  that.conf.ImagePenalty,
		ImageAnswer:   that.conf.ImageAnswer,
		FlipBackDelay: that.conf.FlipBackDelay,
	}
}

// Join - resolves (or creates) the room and adds the player to its roster.
// The first joiner is told to expect grid generation; the manager also
// starts the server-side generation pipeline for the room.
func (that *RoomManager) Join(ctx context.Context, roomID string, player *entity.Player) (bool, error) {
	log := that.logger.With("method", "Join", "roomID", roomID)

	that.mu.Lock()
	handle, ok := that.rooms[roomID]
	isFirst := !ok
	if !ok {
		handle = &roomHandle{room: entity.NewRoom(roomID, that.rules())}
		that.rooms[roomID] = handle
	}
	that.mu.Unlock()

	// Persisted scores are read before entering the serialized section so
	// a slow repository cannot stall the room.
	stored, err := that.scores.GetScores(ctx, roomID)
	if err != nil {
		log.Warn("failed to read persisted scores", "error", err)
	}

	handle.mu.Lock()
	if score, ok := stored[player.ID]; ok {
		if _, seen := handle.room.Scores[player.ID]; !seen {
			handle.room.Scores[player.ID] = score
		}
	}
	events := handle.room.AddPlayer(player)
	handle.mu.Unlock()

	if isFirst {
		events = append(events, entity.Event{Action: entity.ActionYouAreFirstPlayer, To: player.ID})
		go that.generateGrid(roomID)
	}

	that.dispatch(ctx, roomID, events)

	log.Info("player joined", "playerID", player.ID, "first", isFirst)

	return isFirst, nil
}

// generateGrid - the server-side generation pipeline. The word fetch is the
// one long-latency operation in the system, so it runs before the serialized
// grid submission, never inside it.
func (that *RoomManager) generateGrid(roomID string) {
	log := that.logger.With("method", "generateGrid", "roomID", roomID)

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	fetched, err := that.words.FetchCandidateWords(ctx, that.conf.WordFetchSize)
	if err != nil {
		// A failed fetch degrades the puzzle, it never crashes the session.
		log.Warn("word fetch failed, continuing with what we have", "error", err, "usable", len(fetched))
	}

	candidates := game.FilterCandidates(fetched, that.conf.Rows, that.conf.Cols, that.conf.MinWordLen)

	result := game.PlaceWords(candidates, that.conf.Rows, that.conf.Cols, game.PlacementOptions{
		RetryBudget:   that.conf.PlacementRetries,
		BufferRadius:  that.conf.BufferRadius,
		TargetDensity: that.conf.TargetDensity,
	})

	if len(result.Dropped) > 0 {
		log.Debug("some words could not be placed", "dropped", len(result.Dropped))
	}
	if result.Density < minDensityFloor {
		log.Warn("grid density below floor, serving a degraded puzzle", "density", result.Density)
	}

	if err = that.SubmitGrid(ctx, roomID, result.Grid); err != nil {
		if errors.Is(err, apperror.ErrGridAlreadySet) {
			log.Debug("grid was already submitted by a client")
			return
		}
		log.Error("failed to submit generated grid", "error", err)
	}
}

// SubmitGrid - the single compare-and-set entry point for grids: the
// server pipeline and client submissions race through the same gate, and
// only the first well-formed grid wins. Acceptance triggers deck generation.
func (that *RoomManager) SubmitGrid(ctx context.Context, roomID string, grid game.Grid) error {
	handle, err := that.handle(roomID)
	if err != nil {
		return err
	}

	deck, err := game.GenerateDeck(that.conf.TotalCards())
	if err != nil {
		return fmt.Errorf("failed to generate deck: %w", err)
	}

	handle.mu.Lock()
	if err = handle.room.SetGrid(grid); err != nil {
		handle.mu.Unlock()
		return err
	}
	events := handle.room.SetDeck(deck)
	handle.mu.Unlock()

	that.dispatch(ctx, roomID, events)

	return nil
}

// FlipCard - flips one card for the turn holder.
func (that *RoomManager) FlipCard(ctx context.Context, roomID, playerID string, cardIndex int) error {
	handle, err := that.handle(roomID)
	if err != nil {
		return err
	}

	handle.mu.Lock()
	events, err := handle.room.FlipCard(playerID, cardIndex)
	handle.mu.Unlock()
	if err != nil {
		return err
	}

	that.dispatch(ctx, roomID, events)

	return nil
}

// GuessWord - resolves a word-search guess for the turn holder.
func (that *RoomManager) GuessWord(ctx context.Context, roomID, playerID, guess string) error {
	handle, err := that.handle(roomID)
	if err != nil {
		return err
	}

	handle.mu.Lock()
	events, err := handle.room.GuessWord(playerID, guess)
	handle.mu.Unlock()
	if err != nil {
		return err
	}

	that.dispatch(ctx, roomID, events)
	that.maybeStartNewGame(ctx, roomID, events)

	return nil
}

// GuessImage - resolves a hidden-picture guess for the turn holder.
func (that *RoomManager) GuessImage(ctx context.Context, roomID, playerID, guess string) error {
	handle, err := that.handle(roomID)
	if err != nil {
		return err
	}

	handle.mu.Lock()
	events, err := handle.room.GuessImage(playerID, guess)
	handle.mu.Unlock()
	if err != nil {
		return err
	}

	that.dispatch(ctx, roomID, events)
	that.maybeStartNewGame(ctx, roomID, events)

	return nil
}

// PassTurn - the turn holder passes to the next player in roster order.
func (that *RoomManager) PassTurn(ctx context.Context, roomID, playerID string) error {
	handle, err := that.handle(roomID)
	if err != nil {
		return err
	}

	handle.mu.Lock()
	events, err := handle.room.Pass(playerID)
	handle.mu.Unlock()
	if err != nil {
		return err
	}

	that.dispatch(ctx, roomID, events)

	return nil
}

// Disconnect - removes a player from their room. A room whose player count
// reaches zero is destroyed immediately.
func (that *RoomManager) Disconnect(ctx context.Context, roomID, playerID string) {
	log := that.logger.With("method", "Disconnect", "roomID", roomID)

	handle, err := that.handle(roomID)
	if err != nil {
		return
	}

	handle.mu.Lock()
	events, empty := handle.room.RemovePlayer(playerID)
	handle.mu.Unlock()

	if empty {
		that.destroyRoom(ctx, roomID)
		return
	}

	that.dispatch(ctx, roomID, events)

	log.Info("player left", "playerID", playerID)
}

// Run - the periodic sweep of empty rooms, a defensive backstop behind the
// destroy-on-empty path. Blocks until the context is canceled.
func (that *RoomManager) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(that.conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, roomID := range that.emptyRooms() {
				log.Info("sweeping empty room", "roomID", roomID)
				that.destroyRoom(ctx, roomID)
			}
		}
	}
}

// RoomCount - the number of live rooms.
func (that *RoomManager) RoomCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()
	return len(that.rooms)
}

func (that *RoomManager) emptyRooms() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var empty []string
	for roomID, handle := range that.rooms {
		handle.mu.Lock()
		if len(handle.room.Players) == 0 {
			empty = append(empty, roomID)
		}
		handle.mu.Unlock()
	}

	return empty
}

func (that *RoomManager) destroyRoom(ctx context.Context, roomID string) {
	log := that.logger.With("method", "destroyRoom", "roomID", roomID)

	that.mu.Lock()
	delete(that.rooms, roomID)
	that.mu.Unlock()

	if err := that.scores.DeleteRoom(ctx, roomID); err != nil {
		log.Warn("failed to delete persisted scores", "error", err)
	}

	log.Info("room destroyed")
}

func (that *RoomManager) handle(roomID string) (*roomHandle, error) {
	that.mu.RLock()
	handle, ok := that.rooms[roomID]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return handle, nil
}

// dispatch - persists score changes and hands events to the notifier.
// Delayed events re-enter the room's serialization point before delivery so
// a timer can never outlive the room it was scheduled for.
func (that *RoomManager) dispatch(ctx context.Context, roomID string, events []entity.Event) {
	log := that.logger.With("method", "dispatch", "roomID", roomID)

	for _, event := range events {
		if payload, ok := event.Payload.(entity.UpdateScorePayload); ok {
			if err := that.scores.SetScore(ctx, roomID, payload.PlayerID, payload.Score); err != nil {
				log.Warn("failed to persist score", "playerID", payload.PlayerID, "error", err)
			}
		}

		if event.Delay > 0 {
			that.schedule(roomID, event)
			continue
		}

		that.publish(roomID, event)
	}
}

func (that *RoomManager) schedule(roomID string, event entity.Event) {
	delay := event.Delay
	event.Delay = 0

	time.AfterFunc(delay, func() {
		handle, err := that.handle(roomID)
		if err != nil {
			return
		}

		// Taking the room lock orders the delayed delivery against any
		// in-flight transition for the same room.
		handle.mu.Lock()
		alive := len(handle.room.Players) > 0
		handle.mu.Unlock()

		if alive {
			that.publish(roomID, event)
		}
	})
}

func (that *RoomManager) publish(roomID string, event entity.Event) {
	that.notifierMu.RLock()
	notifier := that.notifier
	that.notifierMu.RUnlock()

	if notifier != nil {
		notifier.Publish(roomID, event)
	}
}

// maybeStartNewGame - a terminal game resets for a fresh round while the
// room and roster persist; deck and grid are generated anew.
func (that *RoomManager) maybeStartNewGame(ctx context.Context, roomID string, events []entity.Event) {
	finished := false
	for _, event := range events {
		if event.Action == entity.ActionGameOver {
			finished = true
			break
		}
	}
	if !finished {
		return
	}

	log := that.logger.With("method", "maybeStartNewGame", "roomID", roomID)

	handle, err := that.handle(roomID)
	if err != nil {
		return
	}

	handle.mu.Lock()
	handle.room.ResetForNewGame()
	snapshot := handle.room.ScoreSnapshot()
	handle.mu.Unlock()

	for playerID, score := range snapshot {
		if err = that.scores.SetScore(ctx, roomID, playerID, score); err != nil {
			log.Warn("failed to persist reset score", "playerID", playerID, "error", err)
		}
	}

	that.publish(roomID, entity.Event{Action: entity.ActionInitialScores, Payload: snapshot})

	log.Info("starting a new round")

	go that.generateGrid(roomID)
}
