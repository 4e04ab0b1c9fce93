package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvisluke416/TripleTry/internal/apperror"
	"github.com/jarvisluke416/TripleTry/internal/config"
	"github.com/jarvisluke416/TripleTry/internal/entity"
	"github.com/jarvisluke416/TripleTry/internal/game"
)

// stubWords - a word provider serving canned words. When block is set the
// fetch stalls until the context expires, keeping the generation pipeline out
// of the way of tests that submit grids by hand.
type stubWords struct {
	words []string
	block bool
}

func (that *stubWords) FetchCandidateWords(ctx context.Context, _ int) ([]string, error) {
	if that.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return that.words, nil
}

type memScores struct {
	mu   sync.Mutex
	data map[string]map[string]int
}

func newMemScores() *memScores {
	return &memScores{data: make(map[string]map[string]int)}
}

func (that *memScores) SetScore(_ context.Context, roomID, playerID string, score int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.data[roomID] == nil {
		that.data[roomID] = make(map[string]int)
	}
	that.data[roomID][playerID] = score

	return nil
}

func (that *memScores) GetScores(_ context.Context, roomID string) (map[string]int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	scores := make(map[string]int, len(that.data[roomID]))
	for id, score := range that.data[roomID] {
		scores[id] = score
	}

	return scores, nil
}

func (that *memScores) DeleteRoom(_ context.Context, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.data, roomID)

	return nil
}

func (that *memScores) score(roomID, playerID string) (int, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	score, ok := that.data[roomID][playerID]
	return score, ok
}

func (that *memScores) hasRoom(roomID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.data[roomID]
	return ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.Event
}

func (that *recordingNotifier) Publish(_ string, event entity.Event) {
	that.mu.Lock()
	that.events = append(that.events, event)
	that.mu.Unlock()
}

func (that *recordingNotifier) countAction(action string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for _, event := range that.events {
		if event.Action == action {
			count++
		}
	}

	return count
}

func (that *recordingNotifier) sawAction(action string) bool {
	return that.countAction(action) > 0
}

func testGameConfig() config.Game {
	return config.Game{
		Rows:             1,
		Cols:             4,
		MatchBonus:       10,
		WordBonus:        50,
		WordPenalty:      10,
		ImageBonus:       200,
		ImagePenalty:     20,
		ImageAnswer:      "TIMOTHY LEARY",
		PlacementRetries: 50,
		TargetDensity:    0.25,
		WordFetchSize:    10,
		MinWordLen:       3,
		MaxWordLen:       4,
		FlipBackDelay:    100 * time.Millisecond,
		SweepInterval:    20 * time.Millisecond,
	}
}

func newTestManager(words *stubWords) (*RoomManager, *memScores, *recordingNotifier) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scores := newMemScores()
	notifier := &recordingNotifier{}

	manager := NewRoomManager(logger, testGameConfig(), words, scores)
	manager.SetNotifier(notifier)

	return manager, scores, notifier
}

// deckIndexes - one matching pair and one mismatching pair from a live deck.
func deckIndexes(t *testing.T, deck []string) (pairA, pairB, oddA, oddB int) {
	t.Helper()

	bySymbol := make(map[string][]int)
	for i, symbol := range deck {
		bySymbol[symbol] = append(bySymbol[symbol], i)
	}

	pairs := make([][]int, 0, len(bySymbol))
	for _, indexes := range bySymbol {
		require.Len(t, indexes, 2)
		pairs = append(pairs, indexes)
	}
	require.GreaterOrEqual(t, len(pairs), 2)

	return pairs[0][0], pairs[0][1], pairs[0][0], pairs[1][0]
}

func TestRoomManagerJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("First join creates the room and starts the generation pipeline", func(t *testing.T) {
		manager, _, notifier := newTestManager(&stubWords{words: []string{"cat"}})

		// When: the first player joins
		isFirst, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})

		// Then: they are flagged as first and the room exists
		require.NoError(t, err)
		assert.True(t, isFirst)
		assert.Equal(t, 1, manager.RoomCount())
		assert.True(t, notifier.sawAction(entity.ActionYouAreFirstPlayer))

		// And: the generation pipeline eventually opens play
		assert.Eventually(t, func() bool {
			return notifier.sawAction(entity.ActionGameDeck)
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("Second join reuses the room", func(t *testing.T) {
		manager, _, _ := newTestManager(&stubWords{block: true})

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)

		isFirst, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p2", Name: "Bob"})

		require.NoError(t, err)
		assert.False(t, isFirst)
		assert.Equal(t, 1, manager.RoomCount())
	})

	t.Run("Rejoining player gets their persisted score back", func(t *testing.T) {
		manager, scores, _ := newTestManager(&stubWords{block: true})
		require.NoError(t, scores.SetScore(ctx, "room-1", "p1", 40))

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)

		handle, err := manager.handle("room-1")
		require.NoError(t, err)

		handle.mu.Lock()
		defer handle.mu.Unlock()
		assert.Equal(t, 40, handle.room.Scores["p1"])
	})
}

func TestRoomManagerSubmitGrid(t *testing.T) {
	ctx := context.Background()

	t.Run("First well-formed grid wins, later ones are rejected", func(t *testing.T) {
		manager, _, notifier := newTestManager(&stubWords{block: true})

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)

		// When: a grid is submitted twice
		require.NoError(t, manager.SubmitGrid(ctx, "room-1", game.Grid{{"C", "A", "T", ""}}))
		err = manager.SubmitGrid(ctx, "room-1", game.Grid{{"D", "O", "G", ""}})

		// Then: the second submission loses the race
		require.ErrorIs(t, err, apperror.ErrGridAlreadySet)

		// And: acceptance opened play with grid, deck and turn
		assert.True(t, notifier.sawAction(entity.ActionSetWordGrid))
		assert.True(t, notifier.sawAction(entity.ActionGameDeck))
		assert.True(t, notifier.sawAction(entity.ActionTurnChanged))
	})

	t.Run("Unknown room is rejected", func(t *testing.T) {
		manager, _, _ := newTestManager(&stubWords{block: true})

		err := manager.SubmitGrid(ctx, "nowhere", game.Grid{{"C", "A", "T", ""}})
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoomManagerFlipCard(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*RoomManager, *memScores, *recordingNotifier, []string) {
		t.Helper()

		manager, scores, notifier := newTestManager(&stubWords{block: true})

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)
		_, err = manager.Join(ctx, "room-1", &entity.Player{ID: "p2", Name: "Bob"})
		require.NoError(t, err)

		require.NoError(t, manager.SubmitGrid(ctx, "room-1", game.Grid{{"C", "A", "T", ""}}))

		handle, err := manager.handle("room-1")
		require.NoError(t, err)

		handle.mu.Lock()
		deck := make([]string, len(handle.room.Deck))
		copy(deck, handle.room.Deck)
		handle.mu.Unlock()

		return manager, scores, notifier, deck
	}

	t.Run("Matching pair is scored and the score persisted", func(t *testing.T) {
		manager, scores, notifier, deck := setup(t)
		first, second, _, _ := deckIndexes(t, deck)

		require.NoError(t, manager.FlipCard(ctx, "room-1", "p1", first))
		require.NoError(t, manager.FlipCard(ctx, "room-1", "p1", second))

		assert.True(t, notifier.sawAction(entity.ActionCardsMatched))

		persisted, ok := scores.score("room-1", "p1")
		require.True(t, ok)
		assert.Equal(t, 10, persisted)
	})

	t.Run("Mismatch delivers the flip-back after the delay", func(t *testing.T) {
		manager, _, notifier, deck := setup(t)
		_, _, odd, other := deckIndexes(t, deck)

		require.NoError(t, manager.FlipCard(ctx, "room-1", "p1", odd))
		require.NoError(t, manager.FlipCard(ctx, "room-1", "p1", other))

		// The flip-back is scheduled, not immediate.
		assert.False(t, notifier.sawAction(entity.ActionCardsUnmatched))

		assert.Eventually(t, func() bool {
			return notifier.sawAction(entity.ActionCardsUnmatched)
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("Out of turn flips are rejected", func(t *testing.T) {
		manager, _, _, _ := setup(t)

		err := manager.FlipCard(ctx, "room-1", "p2", 0)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})
}

func TestRoomManagerDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Last player leaving destroys the room and its scores", func(t *testing.T) {
		manager, scores, _ := newTestManager(&stubWords{block: true})

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)
		require.NoError(t, scores.SetScore(ctx, "room-1", "p1", 30))

		// When: the only player disconnects
		manager.Disconnect(ctx, "room-1", "p1")

		// Then: the room and its persisted scores are gone
		assert.Zero(t, manager.RoomCount())
		assert.False(t, scores.hasRoom("room-1"))
	})

	t.Run("Remaining players keep playing", func(t *testing.T) {
		manager, _, notifier := newTestManager(&stubWords{block: true})

		_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
		require.NoError(t, err)
		_, err = manager.Join(ctx, "room-1", &entity.Player{ID: "p2", Name: "Bob"})
		require.NoError(t, err)

		manager.Disconnect(ctx, "room-1", "p1")

		assert.Equal(t, 1, manager.RoomCount())
		assert.True(t, notifier.sawAction(entity.ActionUpdatePlayers))
	})
}

func TestRoomManagerSweep(t *testing.T) {
	// Given: a room that somehow ended up empty without being destroyed
	manager, _, _ := newTestManager(&stubWords{block: true})

	manager.mu.Lock()
	manager.rooms["stale"] = &roomHandle{room: entity.NewRoom("stale", manager.rules())}
	manager.mu.Unlock()

	require.Equal(t, 1, manager.RoomCount())

	// When: the sweep runs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	// Then: the stale room is collected
	assert.Eventually(t, func() bool {
		return manager.RoomCount() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRoomManagerNewRound(t *testing.T) {
	ctx := context.Background()

	// Given: a live game
	manager, scores, notifier := newTestManager(&stubWords{block: true})

	_, err := manager.Join(ctx, "room-1", &entity.Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	require.NoError(t, manager.SubmitGrid(ctx, "room-1", game.Grid{{"C", "A", "T", ""}}))

	// When: the hidden picture is guessed
	require.NoError(t, manager.GuessImage(ctx, "room-1", "p1", "timothy leary"))

	// Then: the game ends and a fresh round begins with zeroed scores
	assert.True(t, notifier.sawAction(entity.ActionGameOver))
	assert.GreaterOrEqual(t, notifier.countAction(entity.ActionInitialScores), 2)

	persisted, ok := scores.score("room-1", "p1")
	require.True(t, ok)
	assert.Zero(t, persisted)

	handle, err := manager.handle("room-1")
	require.NoError(t, err)

	handle.mu.Lock()
	defer handle.mu.Unlock()
	assert.Equal(t, entity.StatusAwaitingGrid, handle.room.Status)
	assert.Nil(t, handle.room.Deck)
	assert.Len(t, handle.room.Players, 1)
}
