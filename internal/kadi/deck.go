// internal/kadi/deck.go
package kadi

import (
	"fmt"
	"math/rand"
	"time"
)

// Deck is the draw pile. Deal pops cards off the tail, so the tail is the
// "top" of the pile.
type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck builds the full 52-card deck in deterministic suit-major,
// rank-minor order. Shuffle before use.
func NewDeck() *Deck {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return &Deck{Cards: cards}
}

// Shuffle permutes the draw pile uniformly.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Size returns the number of cards remaining in the draw pile.
func (d *Deck) Size() int {
	return len(d.Cards)
}

// Deal removes and returns n cards from the tail of the draw pile. It fails
// with ErrInsufficientCards when fewer than n remain; the caller is expected
// to reshuffle the discard stack first.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: cannot deal %d cards", ErrInsufficientCards, n)
	}
	if len(d.Cards) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, n, len(d.Cards))
	}
	cut := len(d.Cards) - n
	dealt := make([]Card, n)
	copy(dealt, d.Cards[cut:])
	d.Cards = d.Cards[:cut]
	return dealt, nil
}

// Reshuffle folds every discard-stack card except the current top back into
// the draw pile, shuffles, and returns the surviving single-card stack.
// Invoked whenever a pending deal cannot be satisfied.
func (d *Deck) Reshuffle(stack []Card) []Card {
	if len(stack) == 0 {
		return stack
	}
	top := stack[len(stack)-1]
	d.Cards = append(d.Cards, stack[:len(stack)-1]...)
	d.Shuffle()
	return []Card{top}
}
