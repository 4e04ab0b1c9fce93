package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShape(t *testing.T) {
	t.Run("Accepts an exact rows x cols grid", func(t *testing.T) {
		err := ValidateShape(NewGrid(3, 5), 3, 5)
		require.NoError(t, err)
	})

	t.Run("Rejects the wrong row count", func(t *testing.T) {
		err := ValidateShape(NewGrid(2, 5), 3, 5)
		require.ErrorIs(t, err, ErrBadGridShape)
	})

	t.Run("Rejects a ragged row", func(t *testing.T) {
		grid := NewGrid(3, 5)
		grid[1] = grid[1][:4]

		err := ValidateShape(grid, 3, 5)
		require.ErrorIs(t, err, ErrBadGridShape)
	})
}

func TestFilterCandidates(t *testing.T) {
	// Given: a mix of usable, short, long and non-alphabetic words
	words := []string{" cat ", "ZEBRA", "ox", "it's", "hyphen-ated", "abcdefghijk", ""}

	// When: filtering for a 5x10 board with a minimum length of 3
	filtered := FilterCandidates(words, 5, 10, 3)

	// Then: only normalized alphabetic words that fit an axis survive
	assert.Equal(t, []string{"CAT", "ZEBRA"}, filtered)
}

func TestPlaceWords(t *testing.T) {
	opts := PlacementOptions{RetryBudget: 50}

	t.Run("Every placed word is recoverable from the grid", func(t *testing.T) {
		// Given: candidates that comfortably fit a 15x15 board
		candidates := []string{"ELEPHANT", "GIRAFFE", "MONKEY", "TIGER", "LION", "CAT"}

		// When: placing them
		result := PlaceWords(candidates, 15, 15, opts)

		// Then: each placed word can be found again along some direction
		require.NotEmpty(t, result.Placed)
		for _, word := range result.Placed {
			cells, ok := FindWord(result.Grid, word)
			require.Truef(t, ok, "placed word %q should be findable", word)
			assert.Len(t, cells, len(word))
		}

		assert.Len(t, result.Placed, len(candidates)-len(result.Dropped))
	})

	t.Run("Letter count never exceeds the sum of placed word lengths", func(t *testing.T) {
		result := PlaceWords([]string{"STONE", "RIVER", "CLOUD"}, 10, 10, opts)

		budget := 0
		for _, word := range result.Placed {
			budget += len(word)
		}

		letters := 0
		for _, row := range result.Grid {
			for _, cell := range row {
				if cell != EmptyCell {
					letters++
				}
			}
		}

		// Shared crossings may only reduce the letter count, never grow it.
		assert.LessOrEqual(t, letters, budget)
		assert.InDelta(t, float64(letters)/100.0, result.Density, 1e-9)
	})

	t.Run("Drops words that cannot fit any direction", func(t *testing.T) {
		// When: a word is longer than both axes
		result := PlaceWords([]string{"UNPLACEABLE"}, 4, 4, opts)

		// Then: it is dropped, not fatal
		assert.Empty(t, result.Placed)
		assert.Equal(t, []string{"UNPLACEABLE"}, result.Dropped)
		assert.True(t, IsEmpty(result.Grid))
	})

	t.Run("No candidates yields a legal empty grid", func(t *testing.T) {
		result := PlaceWords(nil, 6, 6, opts)

		assert.Empty(t, result.Placed)
		assert.Empty(t, result.Dropped)
		assert.Zero(t, result.Density)
	})

	t.Run("Stops placing once the target density is reached", func(t *testing.T) {
		// Given: far more material than a 5x5 board at 20% density can hold
		candidates := []string{"AAAAA", "BBBBB", "CCCCC", "DDDDD", "EEEEE", "FFFFF"}

		// When: placing with a low target density
		result := PlaceWords(candidates, 5, 5, PlacementOptions{RetryBudget: 50, TargetDensity: 0.2})

		// Then: placement stops at the first word crossing the target
		require.NotEmpty(t, result.Placed)
		assert.Len(t, result.Placed, 1)
	})
}

func TestCanPlace(t *testing.T) {
	newClaimed := func(rows, cols int) [][]bool {
		claimed := make([][]bool, rows)
		for r := range claimed {
			claimed[r] = make([]bool, cols)
		}
		return claimed
	}

	t.Run("Allows crossing on an identical letter", func(t *testing.T) {
		// Given: CAT placed horizontally on row 1
		grid := NewGrid(3, 3)
		claimed := newClaimed(3, 3)
		place(grid, claimed, "CAT", 1, 0, direction{0, 1}, 0)

		// Then: a vertical word sharing the A may cross it
		assert.True(t, canPlace(grid, claimed, "BAD", 0, 1, direction{1, 0}, 0))

		// And: a vertical word demanding a different letter there may not
		assert.False(t, canPlace(grid, claimed, "BOX", 0, 1, direction{1, 0}, 0))
	})

	t.Run("Rejects words running out of bounds", func(t *testing.T) {
		grid := NewGrid(3, 3)
		claimed := newClaimed(3, 3)

		assert.False(t, canPlace(grid, claimed, "LONG", 0, 0, direction{0, 1}, 0))
	})

	t.Run("Buffer radius keeps neighbouring words apart", func(t *testing.T) {
		// Given: AB placed on row 0 with a one-cell spacing ring
		grid := NewGrid(4, 4)
		claimed := newClaimed(4, 4)
		place(grid, claimed, "AB", 0, 0, direction{0, 1}, 1)

		// Then: a word directly underneath is rejected
		assert.False(t, canPlace(grid, claimed, "CD", 1, 0, direction{0, 1}, 1))

		// And: a word clear of the ring is accepted
		assert.True(t, canPlace(grid, claimed, "CD", 3, 0, direction{0, 1}, 1))
	})
}

func TestFindWord(t *testing.T) {
	grid := Grid{
		{"C", "A", "T", ""},
		{"", "X", "", ""},
		{"", "", "E", ""},
	}

	t.Run("Finds a horizontal occurrence", func(t *testing.T) {
		cells, ok := FindWord(grid, "CAT")

		require.True(t, ok)
		assert.Equal(t, []Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}, cells)
	})

	t.Run("Finds a diagonal occurrence", func(t *testing.T) {
		cells, ok := FindWord(grid, "CXE")

		require.True(t, ok)
		assert.Equal(t, []Cell{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}}, cells)
	})

	t.Run("Reports absence without panicking near the edges", func(t *testing.T) {
		_, ok := FindWord(grid, "TAXI")
		assert.False(t, ok)
	})
}

func TestRemoveCells(t *testing.T) {
	// Given: a grid holding only CAT
	grid := Grid{
		{"C", "A", "T"},
		{"", "", ""},
	}
	require.False(t, IsEmpty(grid))

	// When: removing its cells
	cells, ok := FindWord(grid, "CAT")
	require.True(t, ok)
	RemoveCells(grid, cells)

	// Then: the grid is empty and the word is gone
	assert.True(t, IsEmpty(grid))
	_, found := FindWord(grid, "CAT")
	assert.False(t, found)
}
