package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

var ErrBadGridShape = errors.New("grid has the wrong shape")

const EmptyCell = ""

// Grid - a rows x cols matrix of single uppercase letters or EmptyCell.
type Grid [][]string

// Cell - a single grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// direction - a unit step along one of the six placement directions.
type direction struct {
	dr, dc int
}

var directions = []direction{
	{0, 1},   // horizontal
	{1, 0},   // vertical
	{1, 1},   // diagonal down-right
	{1, -1},  // diagonal down-left
	{-1, 1},  // diagonal up-right
	{-1, -1}, // diagonal up-left
}

// PlacementOptions - tuning knobs for the placement engine.
type PlacementOptions struct {
	RetryBudget   int     // attempts per word before it is dropped
	BufferRadius  int     // spacing ring around placed words, 0 disables
	TargetDensity float64 // stop placing once this share of cells is filled
}

// PlacementResult - outcome of a PlaceWords run.
type PlacementResult struct {
	Grid    Grid
	Placed  []string
	Dropped []string
	Density float64
}

// NewGrid - allocates an empty rows x cols grid.
func NewGrid(rows, cols int) Grid {
	grid := make(Grid, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}
	return grid
}

// ValidateShape - checks a submitted grid is exactly rows x cols.
func ValidateShape(grid Grid, rows, cols int) error {
	if len(grid) != rows {
		return fmt.Errorf("%w: got %d rows, want %d", ErrBadGridShape, len(grid), rows)
	}

	for r := range grid {
		if len(grid[r]) != cols {
			return fmt.Errorf("%w: row %d has %d cols, want %d", ErrBadGridShape, r, len(grid[r]), cols)
		}
	}

	return nil
}

// FilterCandidates - keeps uppercase alphabetic words that fit the board,
// normalizing case. Words shorter than minLen or longer than the longest
// board axis are discarded.
func FilterCandidates(words []string, rows, cols, minLen int) []string {
	maxLen := rows
	if cols > maxLen {
		maxLen = cols
	}

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToUpper(strings.TrimSpace(word))
		if len(word) < minLen || len(word) > maxLen {
			continue
		}
		if !isAlphabetic(word) {
			continue
		}
		filtered = append(filtered, word)
	}

	return filtered
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(word) > 0
}

// PlaceWords - fills a rows x cols grid with candidate words along the six
// directions. Longest words get first claim on space; within each length the
// order is random. Words that exhaust the retry budget are dropped, never
// fatal - a sparse or empty grid is a legal outcome.
func PlaceWords(candidates []string, rows, cols int, opts PlacementOptions) PlacementResult {
	words := make([]string, len(candidates))
	copy(words, candidates)
	orderLongestFirst(words)

	grid := NewGrid(rows, cols)
	claimed := make([][]bool, rows)
	for r := range claimed {
		claimed[r] = make([]bool, cols)
	}

	result := PlacementResult{Grid: grid}
	letters := 0
	totalCells := rows * cols

	for _, word := range words {
		if opts.TargetDensity > 0 && float64(letters)/float64(totalCells) >= opts.TargetDensity {
			break
		}

		if tryPlace(grid, claimed, word, opts) {
			result.Placed = append(result.Placed, word)
			letters += len(word)
			continue
		}

		result.Dropped = append(result.Dropped, word)
	}

	result.Density = Density(grid)

	return result
}

// orderLongestFirst - sorts longest-first, then shuffles within each run of
// equal-length words so the placement order is not deterministic.
func orderLongestFirst(words []string) {
	sort.SliceStable(words, func(i, j int) bool {
		return len(words[i]) > len(words[j])
	})

	start := 0
	for end := 1; end <= len(words); end++ {
		if end == len(words) || len(words[end]) != len(words[start]) {
			run := words[start:end]
			rand.Shuffle(len(run), func(i, j int) { //nolint: gosec // not used for security
				run[i], run[j] = run[j], run[i]
			})
			start = end
		}
	}
}

func tryPlace(grid Grid, claimed [][]bool, word string, opts PlacementOptions) bool {
	rows, cols := len(grid), len(grid[0])

	for attempt := 0; attempt < opts.RetryBudget; attempt++ {
		dir := directions[rand.Intn(len(directions))] //nolint: gosec // not used for security

		minRow, maxRow, minCol, maxCol, ok := startRange(len(word), rows, cols, dir)
		if !ok {
			continue
		}

		row := minRow + rand.Intn(maxRow-minRow+1) //nolint: gosec // not used for security
		col := minCol + rand.Intn(maxCol-minCol+1) //nolint: gosec // not used for security

		if !canPlace(grid, claimed, word, row, col, dir, opts.BufferRadius) {
			continue
		}

		place(grid, claimed, word, row, col, dir, opts.BufferRadius)
		return true
	}

	return false
}

// startRange - the inclusive range of start cells keeping every letter of a
// wordLen-long word in bounds for the given direction.
func startRange(wordLen, rows, cols int, dir direction) (minRow, maxRow, minCol, maxCol int, ok bool) {
	span := wordLen - 1

	switch dir.dr {
	case 0:
		minRow, maxRow = 0, rows-1
	case 1:
		minRow, maxRow = 0, rows-1-span
	case -1:
		minRow, maxRow = span, rows-1
	}

	switch dir.dc {
	case 0:
		minCol, maxCol = 0, cols-1
	case 1:
		minCol, maxCol = 0, cols-1-span
	case -1:
		minCol, maxCol = span, cols-1
	}

	if minRow > maxRow || minCol > maxCol {
		return 0, 0, 0, 0, false
	}

	return minRow, maxRow, minCol, maxCol, true
}

// canPlace - a word may reuse a cell only when it already holds the identical
// letter. When a buffer radius is configured, cells around the word that are
// not on its own path must be unclaimed.
func canPlace(grid Grid, claimed [][]bool, word string, row, col int, dir direction, radius int) bool {
	rows, cols := len(grid), len(grid[0])

	for i := 0; i < len(word); i++ {
		r, c := row+dir.dr*i, col+dir.dc*i
		if r < 0 || r >= rows || c < 0 || c >= cols {
			return false
		}
		if cell := grid[r][c]; cell != EmptyCell && cell != string(word[i]) {
			return false
		}
	}

	if radius <= 0 {
		return true
	}

	onPath := pathCells(word, row, col, dir)

	for i := -radius; i < len(word)+radius; i++ {
		for rr := -radius; rr <= radius; rr++ {
			for cc := -radius; cc <= radius; cc++ {
				r := row + dir.dr*i + rr
				c := col + dir.dc*i + cc
				if r < 0 || r >= rows || c < 0 || c >= cols {
					continue
				}
				if onPath[Cell{Row: r, Col: c}] {
					continue
				}
				if claimed[r][c] {
					return false
				}
			}
		}
	}

	return true
}

func place(grid Grid, claimed [][]bool, word string, row, col int, dir direction, radius int) {
	rows, cols := len(grid), len(grid[0])

	for i := 0; i < len(word); i++ {
		r, c := row+dir.dr*i, col+dir.dc*i
		grid[r][c] = string(word[i])
		claimed[r][c] = true
	}

	if radius <= 0 {
		return
	}

	for i := -radius; i < len(word)+radius; i++ {
		for rr := -radius; rr <= radius; rr++ {
			for cc := -radius; cc <= radius; cc++ {
				r := row + dir.dr*i + rr
				c := col + dir.dc*i + cc
				if r >= 0 && r < rows && c >= 0 && c < cols {
					claimed[r][c] = true
				}
			}
		}
	}
}

func pathCells(word string, row, col int, dir direction) map[Cell]bool {
	cells := make(map[Cell]bool, len(word))
	for i := 0; i < len(word); i++ {
		cells[Cell{Row: row + dir.dr*i, Col: col + dir.dc*i}] = true
	}
	return cells
}

// FindWord - searches every anchor cell along the six directions for an
// exact, contiguous, character-by-character occurrence of word. Returns the
// covered cells of the first occurrence found.
func FindWord(grid Grid, word string) ([]Cell, bool) {
	if len(grid) == 0 || word == "" {
		return nil, false
	}

	rows, cols := len(grid), len(grid[0])

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if grid[r][c] != string(word[0]) {
				continue
			}
			for _, dir := range directions {
				if cells, ok := matchAt(grid, word, r, c, dir); ok {
					return cells, true
				}
			}
		}
	}

	return nil, false
}

func matchAt(grid Grid, word string, row, col int, dir direction) ([]Cell, bool) {
	rows, cols := len(grid), len(grid[0])

	cells := make([]Cell, 0, len(word))
	for i := 0; i < len(word); i++ {
		r, c := row+dir.dr*i, col+dir.dc*i
		if r < 0 || r >= rows || c < 0 || c >= cols {
			return nil, false
		}
		if grid[r][c] != string(word[i]) {
			return nil, false
		}
		cells = append(cells, Cell{Row: r, Col: c})
	}

	return cells, true
}

// RemoveCells - clears the given cells back to EmptyCell.
func RemoveCells(grid Grid, cells []Cell) {
	for _, cell := range cells {
		grid[cell.Row][cell.Col] = EmptyCell
	}
}

// IsEmpty - reports whether no letters remain on the grid.
func IsEmpty(grid Grid) bool {
	for _, row := range grid {
		for _, cell := range row {
			if cell != EmptyCell {
				return false
			}
		}
	}
	return true
}

// Density - the share of cells currently holding a letter.
func Density(grid Grid) float64 {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return 0
	}

	letters := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell != EmptyCell {
				letters++
			}
		}
	}

	return float64(letters) / float64(len(grid)*len(grid[0]))
}
