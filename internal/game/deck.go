package game

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrBadDeckSize = errors.New("deck size must be a positive even number")

const (
	miscSymbolBase  = 0x2600
	miscSymbolCount = 256

	pictographBase  = 0x1F300
	pictographCount = 768
)

// GenerateDeck - builds a shuffled deck of totalCards symbols where every
// distinct symbol appears exactly twice.
func GenerateDeck(totalCards int) ([]string, error) {
	if totalCards <= 0 || totalCards%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadDeckSize, totalCards)
	}

	deck := make([]string, 0, totalCards)
	for i := 0; i < totalCards/2; i++ {
		symbol := symbolFor(i)
		deck = append(deck, symbol, symbol)
	}

	rand.Shuffle(len(deck), func(i, j int) { //nolint: gosec // not used for security
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck, nil
}

// symbolFor - picks a renderable glyph for symbol index i, falling back to
// a synthesized token once the glyph ranges run out.
func symbolFor(i int) string {
	switch {
	case i < miscSymbolCount:
		return string(rune(miscSymbolBase + i))
	case i < miscSymbolCount+pictographCount:
		return string(rune(pictographBase + i - miscSymbolCount))
	default:
		return fmt.Sprintf("S%d", i)
	}
}
